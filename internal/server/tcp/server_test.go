package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auboutique/internal/httpwire"
	"auboutique/internal/server/messages"
	"auboutique/internal/server/products"
	"auboutique/internal/server/ratings"
	"auboutique/internal/server/users"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	userRepo := users.NewMemoryRepository()
	productRepo := products.NewMemoryRepository()

	us := users.NewService(userRepo, "@mail.aub.edu")
	ps := products.NewService(productRepo, us)
	rs := ratings.NewService(ratings.NewMemoryRepository(), productRepo)
	ms := messages.NewService(messages.NewMemoryRepository(userRepo), us)

	handlers := NewHandlers(us, ps, rs, ms, testLogger())
	srv := NewServer("127.0.0.1:0", handlers, testLogger(), 2*time.Second, 2*time.Second)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	return ln.Addr().String()
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialTest(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) tryDo(method, path string, body any) (*httpwire.Response, error) {
	req := &httpwire.Request{
		Method:  method,
		Path:    path,
		Proto:   "HTTP/1.1",
		Headers: map[string]string{"Content-Type": "application/json"},
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req.Body = raw
	}

	if err := req.Write(c.conn); err != nil {
		return nil, err
	}
	return httpwire.ReadResponse(c.reader)
}

func (c *testClient) do(method, path string, body any) *httpwire.Response {
	c.t.Helper()
	resp, err := c.tryDo(method, path, body)
	require.NoError(c.t, err)
	return resp
}

func (c *testClient) message(resp *httpwire.Response) string {
	c.t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(c.t, json.Unmarshal(resp.Body, &body))
	return body.Message
}

func (c *testClient) register(username string) {
	c.t.Helper()
	resp := c.do("POST", "/register", map[string]any{
		"first_name": "Lina", "last_name": "Haddad",
		"email": username + "@mail.aub.edu", "username": username, "password": "digest",
	})
	require.Equal(c.t, 200, resp.Status)
	require.Equal(c.t, "Registration successful. Please log in.", c.message(resp))
}

func (c *testClient) login(username string, port int) int64 {
	c.t.Helper()
	resp := c.do("POST", "/login", map[string]any{
		"username": username, "password": "digest", "ip": "127.0.0.1", "port": port,
	})
	require.Equal(c.t, 200, resp.Status)

	var body struct {
		UserID  int64  `json:"user_id"`
		Message string `json:"message"`
	}
	require.NoError(c.t, json.Unmarshal(resp.Body, &body))
	require.Equal(c.t, "Login successful", body.Message)
	require.NotZero(c.t, body.UserID)
	return body.UserID
}

func TestServer_AccountFlow(t *testing.T) {
	addr := startTestServer(t)
	c := dialTest(t, addr)

	c.register("lina")

	resp := c.do("POST", "/register", map[string]any{
		"first_name": "Other", "last_name": "Lina",
		"email": "other@mail.aub.edu", "username": "lina", "password": "digest",
	})
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, "Username already exists", c.message(resp))

	resp = c.do("POST", "/register", map[string]any{
		"first_name": "L1na", "last_name": "Haddad",
		"email": "x@mail.aub.edu", "username": "x", "password": "digest",
	})
	assert.Equal(t, "Names must contain only letters", c.message(resp))

	resp = c.do("POST", "/register", map[string]any{
		"first_name": "Lina", "last_name": "Haddad",
		"email": "lina@gmail.com", "username": "x", "password": "digest",
	})
	assert.Equal(t, "Email must end with @mail.aub.edu", c.message(resp))

	resp = c.do("POST", "/login", map[string]any{"username": "lina", "password": "wrong"})
	assert.Equal(t, "Invalid credentials", c.message(resp))

	userID := c.login("lina", 4040)

	resp = c.do("POST", "/get_online_users", map[string]any{})
	var online struct {
		OnlineUsers []string `json:"online_users"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &online))
	assert.Equal(t, []string{"lina"}, online.OnlineUsers)

	resp = c.do("POST", "/logout", map[string]any{"user_id": userID})
	assert.Equal(t, "Logout successful", c.message(resp))

	resp = c.do("POST", "/get_user_connection_info", map[string]any{"username": "lina"})
	assert.Equal(t, "User is offline", c.message(resp))
}

func TestServer_CatalogFlow(t *testing.T) {
	addr := startTestServer(t)
	c := dialTest(t, addr)

	c.register("lina")
	c.register("omar")
	linaID := c.login("lina", 4040)
	omarID := c.login("omar", 5050)

	resp := c.do("POST", "/add_product", map[string]any{
		"name": "Coffee Mug", "owner_id": linaID, "category": "kitchen",
		"price": 8.5, "description": "white ceramic", "image": "mug.png", "quantity": 1,
	})
	assert.Equal(t, "Product added successfully", c.message(resp))

	resp = c.do("POST", "/add_product", map[string]any{
		"name": "Desk Lamp", "owner_id": linaID, "price": -1, "quantity": 1,
	})
	assert.Equal(t, "Price cannot be negative", c.message(resp))

	var catalog []struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		OwnerID  int64   `json:"owner_id"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	}
	resp = c.do("GET", "/products", nil)
	require.Equal(t, 200, resp.Status)
	require.NoError(t, json.Unmarshal(resp.Body, &catalog))
	require.Len(t, catalog, 1)
	assert.Equal(t, "Coffee Mug", catalog[0].Name)
	assert.Equal(t, linaID, catalog[0].OwnerID)
	assert.Equal(t, 8.5, catalog[0].Price)
	productID := catalog[0].ID

	resp = c.do("POST", "/search_product", map[string]any{"search_term": "MUG"})
	catalog = catalog[:0]
	require.NoError(t, json.Unmarshal(resp.Body, &catalog))
	assert.Len(t, catalog, 1)

	resp = c.do("POST", "/search_user_products", map[string]any{"username": "ghost"})
	assert.Equal(t, "User not found", c.message(resp))

	resp = c.do("POST", "/buy_product", map[string]any{"buyer_id": omarID, "product_id": productID})
	assert.Equal(t, "Purchase successful", c.message(resp))

	resp = c.do("POST", "/buy_product", map[string]any{"buyer_id": omarID, "product_id": productID})
	assert.Equal(t, "Product is not available", c.message(resp))

	resp = c.do("POST", "/rate_product", map[string]any{"user_id": omarID, "product_id": productID, "rating": 9})
	assert.Equal(t, "Rating must be between 1 and 5", c.message(resp))

	resp = c.do("POST", "/rate_product", map[string]any{"user_id": omarID, "product_id": productID, "rating": 4})
	assert.Equal(t, "Rating submitted successfully", c.message(resp))

	resp = c.do("POST", "/get_average_rating", map[string]any{"product_id": productID})
	var avg struct {
		AverageRating float64 `json:"average_rating"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &avg))
	assert.Equal(t, 4.0, avg.AverageRating)
}

func TestServer_ConcurrentBuyOverWire(t *testing.T) {
	addr := startTestServer(t)
	c := dialTest(t, addr)

	c.register("seller")
	sellerID := c.login("seller", 4040)

	resp := c.do("POST", "/add_product", map[string]any{
		"name": "Signed First Edition", "owner_id": sellerID, "category": "books",
		"price": 100, "quantity": 1,
	})
	require.Equal(t, "Product added successfully", c.message(resp))

	const buyers = 8

	// accounts and connections are set up serially; only the buy itself
	// races
	clients := make([]*testClient, buyers)
	buyerIDs := make([]int64, buyers)
	for i := 0; i < buyers; i++ {
		clients[i] = dialTest(t, addr)
		buyer := fmt.Sprintf("buyer%d", i)
		clients[i].register(buyer)
		buyerIDs[i] = clients[i].login(buyer, 0)
	}

	results := make(chan string, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := clients[i].tryDo("POST", "/buy_product", map[string]any{
				"buyer_id": buyerIDs[i], "product_id": 1,
			})
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(resp.Body, &body); err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- body.Message
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, unavailable int
	for msg := range results {
		switch msg {
		case "Purchase successful":
			succeeded++
		case "Product is not available":
			unavailable++
		default:
			t.Errorf("unexpected outcome %q", msg)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, unavailable)
}

func TestServer_MessagingFallback(t *testing.T) {
	addr := startTestServer(t)
	c := dialTest(t, addr)

	c.register("lina")
	c.register("omar")
	linaID := c.login("lina", 4040)
	omarID := c.login("omar", 5050)

	resp := c.do("POST", "/get_user_connection_info", map[string]any{"username": "omar"})
	var info struct {
		IPAddress string `json:"ip_address"`
		Port      int    `json:"port"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &info))
	assert.Equal(t, "127.0.0.1", info.IPAddress)
	assert.Equal(t, 5050, info.Port)

	resp = c.do("POST", "/send_message", map[string]any{
		"sender_id": linaID, "receiver_username": "ghost", "message": "hello?",
	})
	assert.Equal(t, "User not found", c.message(resp))

	resp = c.do("POST", "/send_message", map[string]any{
		"sender_id": linaID, "receiver_username": "omar", "message": "see you at 5",
	})
	assert.Equal(t, "Message stored for delivery", c.message(resp))

	resp = c.do("POST", "/get_messages", map[string]any{"user_id": omarID})
	var inbox struct {
		Messages []struct {
			From string `json:"from"`
			Body string `json:"body"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &inbox))
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, "lina", inbox.Messages[0].From)
	assert.Equal(t, "see you at 5", inbox.Messages[0].Body)

	resp = c.do("POST", "/get_messages", map[string]any{"user_id": omarID})
	inbox.Messages = nil
	require.NoError(t, json.Unmarshal(resp.Body, &inbox))
	assert.Empty(t, inbox.Messages, "inbox drained after pickup")
}

func TestServer_ProtocolErrors(t *testing.T) {
	addr := startTestServer(t)

	t.Run("unknown route keeps connection usable", func(t *testing.T) {
		c := dialTest(t, addr)

		resp := c.do("POST", "/nope", map[string]any{})
		assert.Equal(t, 404, resp.Status)

		resp = c.do("POST", "/get_online_users", map[string]any{})
		assert.Equal(t, 200, resp.Status)
	})

	t.Run("invalid body is a 400", func(t *testing.T) {
		c := dialTest(t, addr)

		req := &httpwire.Request{Method: "POST", Path: "/register", Proto: "HTTP/1.1", Body: []byte("{not json")}
		require.NoError(t, req.Write(c.conn))
		resp, err := httpwire.ReadResponse(c.reader)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Status)
	})

	t.Run("malformed envelope closes connection with 400", func(t *testing.T) {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("garbage\r\n\r\n"))
		require.NoError(t, err)

		resp, err := httpwire.ReadResponse(bufio.NewReader(conn))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Status)
	})
}

func TestServer_ShutdownUnblocksAccept(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	us := users.NewService(users.NewMemoryRepository(), "@mail.aub.edu")
	ps := products.NewService(products.NewMemoryRepository(), us)
	rs := ratings.NewService(ratings.NewMemoryRepository(), products.NewMemoryRepository())
	ms := messages.NewService(messages.NewMemoryRepository(users.NewMemoryRepository()), us)
	srv := NewServer("127.0.0.1:0", NewHandlers(us, ps, rs, ms, testLogger()), testLogger(), time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// no inbound connection is needed for the cancellation to be noticed
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
