// Package fakeapi is an in-memory storefront API for local runs and tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-client/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// WelcomeReply is returned by the fake assistant for greetings.
const WelcomeReply = "Hi! What are you shopping for today?"

type account struct {
	user     models.User
	password string
}

type chatSession struct {
	session  models.ChatSession
	messages []models.ChatMessage
}

type injected struct {
	status  int
	message string
	delay   time.Duration
}

// Server is a fake storefront API. The zero value is not usable; call NewServer.
type Server struct {
	secret []byte

	mu           sync.Mutex
	accounts     map[string]*account // by username
	products     map[int64]models.Product
	categories   []models.Category
	sessions     map[string]*chatSession // by token
	orders       map[int64]*models.Order
	nextID       int64
	issued       int64
	revokedBelow int64
	failures     map[string][]injected // by route template
	hits         map[string]int
	lastChat     models.ChatRequest
	authHeaders  []string
}

// NewServer returns a fake seeded with the sample catalog and one account
// (SeedUsername / SeedPassword).
func NewServer() *Server {
	s := &Server{
		secret:   []byte("fakeapi-secret"),
		accounts: map[string]*account{},
		products: map[int64]models.Product{},
		sessions: map[string]*chatSession{},
		orders:   map[int64]*models.Order{},
		failures: map[string][]injected{},
		hits:     map[string]int{},
		nextID:   1000,
	}
	s.seed()
	return s
}

// Handler routes the API under /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.SetupRoutes(r)
	return r
}

// SetupRoutes configures the HTTP routes
func (s *Server) SetupRoutes(r *mux.Router) {
	r.Use(s.recordMiddleware)
	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/login", s.LoginHandler).Methods("POST")
	api.HandleFunc("/auth/register", s.RegisterHandler).Methods("POST")
	api.HandleFunc("/auth/me", s.requireAuth(s.MeHandler)).Methods("GET")
	api.HandleFunc("/auth/logout", s.requireAuth(s.LogoutHandler)).Methods("POST")

	// Products
	api.HandleFunc("/products", s.ListProductsHandler).Methods("GET")
	api.HandleFunc("/products/search", s.SearchProductsHandler).Methods("GET")
	api.HandleFunc("/products/categories", s.CategoriesHandler).Methods("GET")
	api.HandleFunc("/products/recommendations", s.RecommendationsHandler).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", s.GetProductHandler).Methods("GET")

	// Chat
	api.HandleFunc("/chat/message", s.requireAuth(s.ChatMessageHandler)).Methods("POST")
	api.HandleFunc("/chat/history", s.requireAuth(s.ChatHistoryHandler)).Methods("GET")
	api.HandleFunc("/chat/sessions", s.requireAuth(s.ChatSessionsHandler)).Methods("GET")
	api.HandleFunc("/chat/reset", s.requireAuth(s.ChatResetHandler)).Methods("POST")

	// Orders
	api.HandleFunc("/orders", s.requireAuth(s.CreateOrderHandler)).Methods("POST")
	api.HandleFunc("/orders", s.requireAuth(s.ListOrdersHandler)).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", s.requireAuth(s.GetOrderHandler)).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}/cancel", s.requireAuth(s.CancelOrderHandler)).Methods("POST")
}

// Fail makes the next call to route (a template such as "/chat/message")
// answer with status and an {"error": message} payload. Calls queue up.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], injected{status: status, message: message})
}

// Delay makes the next call to route sleep for d before being handled normally.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], injected{delay: d})
}

// RevokeTokens rejects every token issued so far with 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokedBelow = s.issued
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// LastChatRequest returns the body of the most recent POST /chat/message.
func (s *Server) LastChatRequest() models.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChat
}

// AuthHeaders returns every Authorization header seen, in arrival order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// IssueToken mints a valid token for username.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	acct := s.accounts[username]
	s.mu.Unlock()
	if acct == nil {
		return ""
	}
	token, _ := s.sign(acct.user)
	return token
}

// AddProduct inserts or replaces a catalog product.
func (s *Server) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := strings.TrimPrefix(templateOf(r), "/api")

		s.mu.Lock()
		s.hits[route]++
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		var inj *injected
		if q := s.failures[route]; len(q) > 0 {
			inj = &q[0]
			s.failures[route] = q[1:]
		}
		s.mu.Unlock()

		if inj != nil {
			if inj.delay > 0 {
				time.Sleep(inj.delay)
			}
			if inj.status != 0 {
				writeError(w, inj.status, inj.message)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func templateOf(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			// drop the id regexp: "/orders/{id:[0-9]+}" -> "/orders/{id}"
			return strings.ReplaceAll(tpl, "{id:[0-9]+}", "{id}")
		}
	}
	return r.URL.Path
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) sign(u models.User) (string, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(seq, 10),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		var c claims
		_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}

		seq, _ := strconv.ParseInt(c.ID, 10, 64)
		s.mu.Lock()
		revoked := seq <= s.revokedBelow
		acct := s.accounts[c.Username]
		s.mu.Unlock()
		if revoked || acct == nil {
			writeError(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}
		user := acct.user
		next(w, r, &user)
	}
}

// LoginHandler handles POST /auth/login
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	acct := s.accounts[req.Username]
	s.mu.Unlock()
	if acct == nil || acct.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	s.writeAuth(w, http.StatusOK, "Login successful", acct.user)
}

// RegisterHandler handles POST /auth/register
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	s.nextID++
	user := models.User{
		ID:        s.nextID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.accounts[req.Username] = &account{user: user, password: req.Password}
	s.mu.Unlock()

	s.writeAuth(w, http.StatusCreated, "User registered successfully", user)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, message string, user models.User) {
	token, err := s.sign(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, status, models.AuthResponse{Message: message, AccessToken: token, User: &user})
}

// MeHandler handles GET /auth/me
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// LogoutHandler handles POST /auth/logout
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logout successful"})
}

// ListProductsHandler handles GET /products
func (s *Server) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("per_page"), 20)
	search := strings.ToLower(q.Get("search"))
	brand := q.Get("brand")

	s.mu.Lock()
	var list []models.Product
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		if brand != "" && p.Brand != brand {
			continue
		}
		list = append(list, p)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	items, pagination := paginate(list, page, perPage)
	writeJSON(w, http.StatusOK, models.ProductsResponse{Products: items, Pagination: pagination})
}

// GetProductHandler handles GET /products/{id}
func (s *Server) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	p, ok := s.products[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

// SearchProductsHandler handles GET /products/search
func (s *Server) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	found := s.match(query)
	writeJSON(w, http.StatusOK, models.SearchResponse{Products: found, Query: query, Count: len(found)})
}

// CategoriesHandler handles GET /products/categories
func (s *Server) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cats := append([]models.Category(nil), s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// RecommendationsHandler handles GET /products/recommendations
func (s *Server) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 8)
	s.mu.Lock()
	var list []models.Product
	for _, p := range s.products {
		list = append(list, p)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Rating > list[j].Rating })
	if len(list) > limit {
		list = list[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": list})
}

// ChatMessageHandler handles POST /chat/message
func (s *Server) ChatMessageHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	s.mu.Lock()
	s.lastChat = req
	sess := s.sessions[req.SessionToken]
	if sess == nil || !sess.session.IsActive || sess.session.UserID != user.ID {
		s.nextID++
		now := time.Now().UTC().Format(time.RFC3339)
		sess = &chatSession{session: models.ChatSession{
			ID:           s.nextID,
			UserID:       user.ID,
			SessionToken: uuid.NewString(),
			CreatedAt:    now,
			UpdatedAt:    now,
			IsActive:     true,
		}}
		s.sessions[sess.session.SessionToken] = sess
	}
	userMsg := s.appendMessage(sess, models.MessageTypeUser, req.Message, nil)
	s.mu.Unlock()

	reply, meta := s.reply(req.Message)

	s.mu.Lock()
	botMsg := s.appendMessage(sess, models.MessageTypeBot, reply, meta)
	token := sess.session.SessionToken
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.ChatResponse{SessionToken: token, UserMessage: userMsg, BotResponse: botMsg})
}

// appendMessage must be called with s.mu held.
func (s *Server) appendMessage(sess *chatSession, kind, content string, meta *models.MessageMetadata) models.ChatMessage {
	s.nextID++
	msg := models.ChatMessage{
		ID:          s.nextID,
		SessionID:   sess.session.ID,
		MessageType: kind,
		Content:     content,
		Metadata:    meta,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	sess.messages = append(sess.messages, msg)
	sess.session.UpdatedAt = msg.Timestamp
	return msg
}

// reply is the fake assistant: product keywords yield a product list.
func (s *Server) reply(text string) (string, *models.MessageMetadata) {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "hi") || strings.HasPrefix(lower, "hello") {
		return WelcomeReply, &models.MessageMetadata{Type: "greeting", QuickReplies: []string{"Show me laptops", "Headphones"}}
	}
	var found []models.Product
	for _, word := range strings.Fields(lower) {
		found = append(found, s.match(word)...)
	}
	if len(found) == 0 {
		return "I couldn't find products matching that. Could you describe it differently?", &models.MessageMetadata{Type: "no_results"}
	}
	return fmt.Sprintf("I found %d products for you.", len(found)), &models.MessageMetadata{
		Type:        "product_search",
		Products:    found,
		TotalCount:  len(found),
		SearchTerms: strings.Fields(lower),
	}
}

func (s *Server) match(term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < 3 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		hay := strings.ToLower(p.Name + " " + p.Category + " " + p.Brand)
		if strings.Contains(hay, strings.TrimSuffix(term, "s")) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChatHistoryHandler handles GET /chat/history
func (s *Server) ChatHistoryHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	token := r.URL.Query().Get("session_token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Session token is required")
		return
	}
	s.mu.Lock()
	sess := s.sessions[token]
	var resp models.ChatHistoryResponse
	if sess != nil && sess.session.UserID == user.ID {
		session := sess.session
		resp = models.ChatHistoryResponse{Session: &session, Messages: append([]models.ChatMessage{}, sess.messages...)}
	}
	s.mu.Unlock()
	if resp.Session == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ChatSessionsHandler handles GET /chat/sessions
func (s *Server) ChatSessionsHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	q := r.URL.Query()
	s.mu.Lock()
	var list []models.ChatSession
	for _, sess := range s.sessions {
		if sess.session.UserID == user.ID {
			list = append(list, sess.session)
		}
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt > list[j].UpdatedAt })
	items, pagination := paginate(list, atoiDefault(q.Get("page"), 1), atoiDefault(q.Get("per_page"), 20))
	writeJSON(w, http.StatusOK, models.ChatSessionsResponse{Sessions: items, Pagination: pagination})
}

// ChatResetHandler handles POST /chat/reset
func (s *Server) ChatResetHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	if sess := s.sessions[req.SessionToken]; sess != nil && sess.session.UserID == user.ID {
		sess.session.IsActive = false
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Chat session reset successfully"})
}

// CreateOrderHandler handles POST /orders
func (s *Server) CreateOrderHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Order items are required")
		return
	}
	if req.ShippingAddress.Street == "" {
		writeError(w, http.StatusBadRequest, "Shipping address is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	order := &models.Order{
		ID:            s.nextID,
		UserID:        user.ID,
		OrderNumber:   "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "card"
	}
	for _, line := range req.Items {
		p, ok := s.products[line.ProductID]
		if !ok || line.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid item data")
			return
		}
		if p.StockQuantity < line.Quantity {
			writeError(w, http.StatusBadRequest, "Insufficient stock for "+p.Name)
			return
		}
		s.nextID++
		total := p.Price * float64(line.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			ID:          s.nextID,
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   p.Price,
			TotalPrice:  total,
		})
		order.TotalAmount += total
	}
	for _, item := range order.Items {
		p := s.products[item.ProductID]
		p.StockQuantity -= item.Quantity
		s.products[item.ProductID] = p
	}
	shipping, _ := json.Marshal(req.ShippingAddress)
	order.ShippingAddress = shipping
	order.BillingAddress = shipping
	if req.BillingAddress != nil {
		order.BillingAddress, _ = json.Marshal(req.BillingAddress)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	order.CreatedAt, order.UpdatedAt = now, now
	s.orders[order.ID] = order

	writeJSON(w, http.StatusCreated, models.OrderResponse{Message: "Order created successfully", Order: *order})
}

// ListOrdersHandler handles GET /orders
func (s *Server) ListOrdersHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	q := r.URL.Query()
	status := q.Get("status")
	s.mu.Lock()
	var list []models.Order
	for _, o := range s.orders {
		if o.UserID == user.ID && (status == "" || o.Status == status) {
			list = append(list, *o)
		}
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	items, pagination := paginate(list, atoiDefault(q.Get("page"), 1), atoiDefault(q.Get("per_page"), 20))
	writeJSON(w, http.StatusOK, models.OrdersResponse{Orders: items, Pagination: pagination})
}

// GetOrderHandler handles GET /orders/{id}
func (s *Server) GetOrderHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	o := s.orders[id]
	var out models.Order
	if o != nil && o.UserID == user.ID {
		out = *o
	}
	s.mu.Unlock()
	if out.ID == 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": out})
}

// CancelOrderHandler handles POST /orders/{id}/cancel
func (s *Server) CancelOrderHandler(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	if o == nil || o.UserID != user.ID {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusConfirmed {
		writeError(w, http.StatusBadRequest, "Order cannot be cancelled")
		return
	}
	for _, item := range o.Items {
		p := s.products[item.ProductID]
		p.StockQuantity += item.Quantity
		s.products[item.ProductID] = p
	}
	o.Status = models.OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, models.OrderResponse{Message: "Order cancelled successfully", Order: *o})
}

func paginate[T any](list []T, page, perPage int) ([]T, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	total := len(list)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return list[start:end], models.Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
