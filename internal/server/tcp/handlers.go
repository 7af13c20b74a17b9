package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"auboutique/internal/common"
	"auboutique/internal/httpwire"
	"auboutique/internal/logging"
	"auboutique/internal/server/messages"
	"auboutique/internal/server/models"
	"auboutique/internal/server/products"
	"auboutique/internal/server/ratings"
	"auboutique/internal/server/users"
)

// Handlers adapts the domain services to the wire protocol. Domain errors
// travel as 200 responses with an embedded message, so clients parse every
// outcome the same way; 400/404/500 are reserved for protocol, routing and
// store faults.
type Handlers struct {
	users    *users.Service
	products *products.Service
	ratings  *ratings.Service
	messages *messages.Service
	logger   logging.Logger
}

func NewHandlers(us *users.Service, ps *products.Service, rs *ratings.Service, ms *messages.Service, logger logging.Logger) *Handlers {
	return &Handlers{
		users:    us,
		products: ps,
		ratings:  rs,
		messages: ms,
		logger:   logger.With("module", "handlers"),
	}
}

// RegisterRoutes binds every route onto the router.
func (h *Handlers) RegisterRoutes(r *Router) {
	r.Register("POST", "/register", h.Register)
	r.Register("POST", "/login", h.Login)
	r.Register("POST", "/logout", h.Logout)
	r.Register("GET", "/products", h.ListProducts)
	r.Register("POST", "/add_product", h.AddProduct)
	r.Register("POST", "/buy_product", h.BuyProduct)
	r.Register("POST", "/search_product", h.SearchProduct)
	r.Register("POST", "/search_user_products", h.SearchUserProducts)
	r.Register("POST", "/rate_product", h.RateProduct)
	r.Register("POST", "/get_average_rating", h.GetAverageRating)
	r.Register("POST", "/get_user_connection_info", h.GetUserConnectionInfo)
	r.Register("POST", "/get_online_users", h.GetOnlineUsers)
	r.Register("POST", "/send_message", h.SendMessage)
	r.Register("POST", "/get_messages", h.GetMessages)
}

type messageBody struct {
	Message string `json:"message"`
}

type productRecord struct {
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

func toProductRecords(items []*models.Product) []productRecord {
	out := make([]productRecord, 0, len(items))
	for _, p := range items {
		out = append(out, productRecord{
			ID:          p.ID,
			Name:        p.Name,
			OwnerID:     p.OwnerID,
			Category:    p.Category,
			Price:       p.Price,
			Description: p.Description,
			Image:       p.Image,
			Quantity:    p.Quantity,
			BuyerID:     p.BuyerID,
		})
	}
	return out
}

// decode unmarshals the request body into v. A nil return with ok=false
// means the 400 response has already been built.
func (h *Handlers) decode(req *httpwire.Request, v any) (*httpwire.Response, bool) {
	if err := json.Unmarshal(req.Body, v); err != nil {
		return httpwire.JSON(400, messageBody{Message: "invalid request body"}), false
	}
	return nil, true
}

// fail maps an error to its wire form: known domain errors become a 200
// with the embedded message, anything else is a store fault and becomes
// a 500.
func (h *Handlers) fail(ctx context.Context, err error, domainMessage func(error) (string, bool)) *httpwire.Response {
	if msg, ok := domainMessage(err); ok {
		return httpwire.JSON(200, messageBody{Message: msg})
	}
	h.logger.Error(ctx, "handler error", "error", err.Error())
	return httpwire.JSON(500, messageBody{Message: "internal error"})
}

func (h *Handlers) Register(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	_, err := h.users.Register(ctx, body.FirstName, body.LastName, body.Email, body.Username, body.Password)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			switch {
			case errors.Is(err, users.ErrNameNotLetters):
				return "Names must contain only letters", true
			case errors.Is(err, users.ErrBadEmailDomain):
				return "Email must end with " + h.users.EmailDomain(), true
			case errors.Is(err, users.ErrEmptyCredentials):
				return "Username and password cannot be empty", true
			case errors.Is(err, common.ErrDuplicateUsername):
				return "Username already exists", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, messageBody{Message: "Registration successful. Please log in."})
}

func (h *Handlers) Login(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		IP       string `json:"ip"`
		Port     int    `json:"port"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	// A client that does not know its outward address may omit ip; the
	// address the connection arrived from is used instead.
	if body.IP == "" {
		body.IP = remoteIP(ctx)
	}

	user, err := h.users.Login(ctx, body.Username, body.Password, body.IP, body.Port)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			if errors.Is(err, common.ErrInvalidCredentials) {
				return "Invalid credentials", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, struct {
		UserID  int64  `json:"user_id"`
		Message string `json:"message"`
	}{UserID: user.ID, Message: "Login successful"})
}

func (h *Handlers) Logout(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	if err := h.users.Logout(ctx, body.UserID); err != nil {
		return h.fail(ctx, err, func(error) (string, bool) { return "", false })
	}
	return httpwire.JSON(200, messageBody{Message: "Logout successful"})
}

func (h *Handlers) ListProducts(ctx context.Context, _ *httpwire.Request) *httpwire.Response {
	items, err := h.products.List(ctx)
	if err != nil {
		return h.fail(ctx, err, func(error) (string, bool) { return "", false })
	}
	return httpwire.JSON(200, toProductRecords(items))
}

func (h *Handlers) AddProduct(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		Name        string  `json:"name"`
		OwnerID     int64   `json:"owner_id"`
		Category    string  `json:"category"`
		Price       float64 `json:"price"`
		Description string  `json:"description"`
		Image       string  `json:"image"`
		Quantity    int     `json:"quantity"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	_, err := h.products.Add(ctx, body.OwnerID, &models.Product{
		Name:        body.Name,
		Category:    body.Category,
		Price:       body.Price,
		Description: body.Description,
		Image:       body.Image,
		Quantity:    body.Quantity,
	})
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			switch {
			case errors.Is(err, products.ErrEmptyName):
				return "Product name cannot be empty", true
			case errors.Is(err, products.ErrNegativePrice):
				return "Price cannot be negative", true
			case errors.Is(err, products.ErrNegativeQuantity):
				return "Quantity cannot be negative", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, messageBody{Message: "Product added successfully"})
}

func (h *Handlers) BuyProduct(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		BuyerID   int64 `json:"buyer_id"`
		ProductID int64 `json:"product_id"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	_, err := h.products.Buy(ctx, body.ProductID, body.BuyerID)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			if errors.Is(err, common.ErrProductUnavailable) {
				return "Product is not available", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, messageBody{Message: "Purchase successful"})
}

func (h *Handlers) SearchProduct(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		SearchTerm string `json:"search_term"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	items, err := h.products.Search(ctx, body.SearchTerm)
	if err != nil {
		return h.fail(ctx, err, func(error) (string, bool) { return "", false })
	}
	return httpwire.JSON(200, toProductRecords(items))
}

func (h *Handlers) SearchUserProducts(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		Username string `json:"username"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	items, err := h.products.SearchUserProducts(ctx, body.Username)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			if errors.Is(err, common.ErrNotFound) {
				return "User not found", true
			}
			return "", false
		})
	}
	return httpwire.JSON(200, toProductRecords(items))
}

func (h *Handlers) RateProduct(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		UserID    int64 `json:"user_id"`
		ProductID int64 `json:"product_id"`
		Rating    int   `json:"rating"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	err := h.ratings.Rate(ctx, body.ProductID, body.UserID, body.Rating)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			switch {
			case errors.Is(err, ratings.ErrOutOfRange):
				return "Rating must be between 1 and 5", true
			case errors.Is(err, common.ErrNotFound):
				return "Product not found", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, messageBody{Message: "Rating submitted successfully"})
}

func (h *Handlers) GetAverageRating(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		ProductID int64 `json:"product_id"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	avg, err := h.ratings.Average(ctx, body.ProductID)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			if errors.Is(err, common.ErrNotFound) {
				return "Product not found", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, struct {
		AverageRating float64 `json:"average_rating"`
	}{AverageRating: avg})
}

func (h *Handlers) GetUserConnectionInfo(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		Username string `json:"username"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	ip, port, err := h.users.ConnectionInfo(ctx, body.Username)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			switch {
			case errors.Is(err, common.ErrNotFound):
				return "User not found", true
			case errors.Is(err, common.ErrUserOffline):
				return "User is offline", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, struct {
		IPAddress string `json:"ip_address"`
		Port      int    `json:"port"`
	}{IPAddress: ip, Port: port})
}

func (h *Handlers) GetOnlineUsers(ctx context.Context, _ *httpwire.Request) *httpwire.Response {
	names, err := h.users.OnlineUsers(ctx)
	if err != nil {
		return h.fail(ctx, err, func(error) (string, bool) { return "", false })
	}

	return httpwire.JSON(200, struct {
		OnlineUsers []string `json:"online_users"`
	}{OnlineUsers: names})
}

func (h *Handlers) SendMessage(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		SenderID         int64  `json:"sender_id"`
		ReceiverUsername string `json:"receiver_username"`
		Message          string `json:"message"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	err := h.messages.Send(ctx, body.SenderID, body.ReceiverUsername, body.Message)
	if err != nil {
		return h.fail(ctx, err, func(err error) (string, bool) {
			if errors.Is(err, common.ErrNotFound) {
				return "User not found", true
			}
			return "", false
		})
	}

	return httpwire.JSON(200, messageBody{Message: "Message stored for delivery"})
}

func (h *Handlers) GetMessages(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if resp, ok := h.decode(req, &body); !ok {
		return resp
	}

	inbox, err := h.messages.Inbox(ctx, body.UserID)
	if err != nil {
		return h.fail(ctx, err, func(error) (string, bool) { return "", false })
	}

	type inboxRecord struct {
		From   string    `json:"from"`
		Body   string    `json:"body"`
		SentAt time.Time `json:"sent_at"`
	}
	records := make([]inboxRecord, 0, len(inbox))
	for _, m := range inbox {
		records = append(records, inboxRecord{From: m.From, Body: m.Body, SentAt: m.SentAt})
	}

	return httpwire.JSON(200, struct {
		Messages []inboxRecord `json:"messages"`
	}{Messages: records})
}
