package models

import "encoding/json"

// User represents the authenticated account as returned by the storefront API
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at,omitempty"`
	LastLogin string `json:"last_login,omitempty"`
}

// Product represents a product in the catalog
type Product struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	Category       string         `json:"category"`
	Brand          string         `json:"brand"`
	SKU            string         `json:"sku"`
	StockQuantity  int            `json:"stock_quantity"`
	ImageURL       string         `json:"image_url"`
	Rating         float64        `json:"rating"`
	ReviewCount    int            `json:"review_count"`
	Specifications map[string]any `json:"specifications,omitempty"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      string         `json:"created_at,omitempty"`
}

// Category represents a product category
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// CartItem represents one cart line. Quantity is always in (0, Product.StockQuantity].
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Chat message authors
const (
	MessageTypeUser = "user"
	MessageTypeBot  = "bot"
)

// MessageMetadata is the structured payload attached to bot messages
type MessageMetadata struct {
	Type         string     `json:"type,omitempty"`
	Products     []Product  `json:"products,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
	QuickReplies []string   `json:"quick_replies,omitempty"`
	TotalCount   int        `json:"total_count,omitempty"`
	SearchTerms  []string   `json:"search_terms,omitempty"`
}

// ChatMessage represents a single transcript entry
type ChatMessage struct {
	ID          int64            `json:"id"`
	SessionID   int64            `json:"session_id"`
	MessageType string           `json:"message_type"`
	Content     string           `json:"content"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	Timestamp   string           `json:"timestamp"`

	// LocalID is set only on messages authored by this client.
	LocalID string `json:"-"`
}

// ChatSession is the server-side conversation record
type ChatSession struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	SessionToken string `json:"session_token"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	IsActive     bool   `json:"is_active"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order represents an order
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	TotalAmount     float64         `json:"total_amount"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty"`
	BillingAddress  json.RawMessage `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Address is a shipping or billing address
type Address struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResponse from POST /auth/login and POST /auth/register
type AuthResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// MessageResponse is the bare {"message": ...} acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductFilters are the query parameters accepted by GET /products
type ProductFilters struct {
	CategoryID int64
	Brand      string
	MinPrice   float64
	MaxPrice   float64
	Search     string
	SortBy     string // name | price | rating | created_at
	SortOrder  string // asc | desc
	Page       int
	PerPage    int
}

// ProductsResponse from GET /products
type ProductsResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// SearchResponse from GET /products/search
type SearchResponse struct {
	Products []Product `json:"products"`
	Query    string    `json:"query"`
	Count    int       `json:"count"`
}

// ChatRequest for POST /chat/message
type ChatRequest struct {
	Message      string `json:"message"`
	SessionToken string `json:"session_token,omitempty"`
}

// ChatResponse from POST /chat/message
type ChatResponse struct {
	SessionToken string      `json:"session_token"`
	UserMessage  ChatMessage `json:"user_message"`
	BotResponse  ChatMessage `json:"bot_response"`
}

// ChatHistoryResponse from GET /chat/history
type ChatHistoryResponse struct {
	Session  *ChatSession  `json:"session"`
	Messages []ChatMessage `json:"messages"`
}

// ChatSessionsResponse from GET /chat/sessions
type ChatSessionsResponse struct {
	Sessions   []ChatSession `json:"sessions"`
	Pagination Pagination    `json:"pagination"`
}

// OrderLine is one requested line of POST /orders
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest for POST /orders
type CreateOrderRequest struct {
	Items           []OrderLine `json:"items"`
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
}

// OrderResponse from POST /orders and POST /orders/{id}/cancel
type OrderResponse struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

// OrdersResponse from GET /orders
type OrdersResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
