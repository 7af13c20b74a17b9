package client

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"auboutique/internal/common"
)

// Product mirrors the server's catalog record.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	OwnerID     int64   `json:"owner_id"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Quantity    int     `json:"quantity"`
	BuyerID     *int64  `json:"buyer_id,omitempty"`
}

// InboxMessage is one stored message retrieved from the server queue.
type InboxMessage struct {
	From   string    `json:"from"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// APIError is a domain failure the server embedded in a 200 response.
// Error() is the server's own text; Unwrap() yields the matching sentinel
// from internal/common so callers can branch with errors.Is.
type APIError struct {
	Kind    error
	Message string
}

func (e *APIError) Error() string { return e.Message }
func (e *APIError) Unwrap() error { return e.Kind }

var failureMessages = map[string]error{
	"Username already exists":  common.ErrDuplicateUsername,
	"Invalid credentials":      common.ErrInvalidCredentials,
	"User not found":           common.ErrNotFound,
	"User is offline":          common.ErrUserOffline,
	"Product is not available": common.ErrProductUnavailable,
	"Product not found":        common.ErrNotFound,
}

var validationPrefixes = []string{
	"Names must",
	"Email must end with",
	"Username and password",
	"Rating must be",
	"Price cannot",
	"Quantity cannot",
	"Product name cannot",
}

// domainError maps a server message to an error, or nil when the message
// reports success.
func domainError(msg string) error {
	if kind, ok := failureMessages[msg]; ok {
		return &APIError{Kind: kind, Message: msg}
	}
	for _, prefix := range validationPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return &APIError{Kind: common.ErrValidation, Message: msg}
		}
	}
	return nil
}

type messageOut struct {
	Message string `json:"message"`
}

// message runs a message-shaped request: the result is either a success
// text or a domain error.
func (c *Client) message(ctx context.Context, path string, body any) (string, error) {
	var out messageOut
	if err := c.do(ctx, "POST", path, body, &out); err != nil {
		return "", err
	}
	if err := domainError(out.Message); err != nil {
		return "", err
	}
	return out.Message, nil
}

// products runs a request whose response is either a product array or an
// embedded domain error object.
func (c *Client) products(ctx context.Context, method, path string, body any) ([]Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var items []Product
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var out messageOut
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if err := domainError(out.Message); err != nil {
		return nil, err
	}
	return nil, &APIError{Kind: common.ErrInternal, Message: out.Message}
}

func (c *Client) Register(ctx context.Context, firstName, lastName, email, username, passwordDigest string) (string, error) {
	return c.message(ctx, "/register", map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"username":   username,
		"password":   passwordDigest,
	})
}

// Login authenticates and returns the user id the server hands out as the
// bearer credential. port is the peer listener port the client advertises;
// ip may be empty to let the server record the connection's source address.
func (c *Client) Login(ctx context.Context, username, passwordDigest, ip string, port int) (int64, error) {
	var out struct {
		UserID  int64  `json:"user_id"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, "POST", "/login", map[string]any{
		"username": username,
		"password": passwordDigest,
		"ip":       ip,
		"port":     port,
	}, &out); err != nil {
		return 0, err
	}
	if out.UserID == 0 {
		if err := domainError(out.Message); err != nil {
			return 0, err
		}
		return 0, &APIError{Kind: common.ErrInternal, Message: out.Message}
	}
	return out.UserID, nil
}

func (c *Client) Logout(ctx context.Context, userID int64) error {
	_, err := c.message(ctx, "/logout", map[string]any{"user_id": userID})
	return err
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	return c.products(ctx, "GET", "/products", nil)
}

func (c *Client) SearchProduct(ctx context.Context, term string) ([]Product, error) {
	return c.products(ctx, "POST", "/search_product", map[string]any{"search_term": term})
}

func (c *Client) SearchUserProducts(ctx context.Context, username string) ([]Product, error) {
	return c.products(ctx, "POST", "/search_user_products", map[string]any{"username": username})
}

func (c *Client) AddProduct(ctx context.Context, ownerID int64, p Product) (string, error) {
	return c.message(ctx, "/add_product", map[string]any{
		"name":        p.Name,
		"owner_id":    ownerID,
		"category":    p.Category,
		"price":       p.Price,
		"description": p.Description,
		"image":       p.Image,
		"quantity":    p.Quantity,
	})
}

func (c *Client) BuyProduct(ctx context.Context, buyerID, productID int64) (string, error) {
	return c.message(ctx, "/buy_product", map[string]any{
		"buyer_id":   buyerID,
		"product_id": productID,
	})
}

func (c *Client) RateProduct(ctx context.Context, userID, productID int64, rating int) (string, error) {
	return c.message(ctx, "/rate_product", map[string]any{
		"user_id":    userID,
		"product_id": productID,
		"rating":     rating,
	})
}

func (c *Client) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var out struct {
		AverageRating float64 `json:"average_rating"`
		Message       string  `json:"message"`
	}
	if err := c.do(ctx, "POST", "/get_average_rating", map[string]any{"product_id": productID}, &out); err != nil {
		return 0, err
	}
	if out.Message != "" {
		if err := domainError(out.Message); err != nil {
			return 0, err
		}
		return 0, &APIError{Kind: common.ErrInternal, Message: out.Message}
	}
	return out.AverageRating, nil
}

// ConnectionInfo resolves a username to the peer address recorded at its
// last login. Fails with common.ErrNotFound or common.ErrUserOffline.
func (c *Client) ConnectionInfo(ctx context.Context, username string) (string, int, error) {
	var out struct {
		IPAddress string `json:"ip_address"`
		Port      int    `json:"port"`
		Message   string `json:"message"`
	}
	if err := c.do(ctx, "POST", "/get_user_connection_info", map[string]any{"username": username}, &out); err != nil {
		return "", 0, err
	}
	if out.Message != "" {
		if err := domainError(out.Message); err != nil {
			return "", 0, err
		}
		return "", 0, &APIError{Kind: common.ErrInternal, Message: out.Message}
	}
	return out.IPAddress, out.Port, nil
}

func (c *Client) OnlineUsers(ctx context.Context) ([]string, error) {
	var out struct {
		OnlineUsers []string `json:"online_users"`
	}
	if err := c.do(ctx, "POST", "/get_online_users", map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out.OnlineUsers, nil
}

// SendMessage stores a message on the server for later pickup; the
// fallback path when direct peer delivery is impossible.
func (c *Client) SendMessage(ctx context.Context, senderID int64, receiverUsername, message string) (string, error) {
	return c.message(ctx, "/send_message", map[string]any{
		"sender_id":         senderID,
		"receiver_username": receiverUsername,
		"message":           message,
	})
}

// Messages drains the caller's stored-message queue.
func (c *Client) Messages(ctx context.Context, userID int64) ([]InboxMessage, error) {
	var out struct {
		Messages []InboxMessage `json:"messages"`
	}
	if err := c.do(ctx, "POST", "/get_messages", map[string]any{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}
