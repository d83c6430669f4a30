// Package api is the single gateway to the storefront HTTP API. Every call
// shares one http.Client whose transport injects the bearer token and reports
// auth-rejected responses to the registered hooks.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/middleware"
	"github.com/SigNoz/storefront-client/internal/models"
	"github.com/rs/zerolog"
)

// DefaultTimeout applies uniformly to every request.
const DefaultTimeout = 10 * time.Second

// UnauthorizedHook runs when any authenticated request is answered with 401.
// token is the bearer that request carried.
type UnauthorizedHook func(ctx context.Context, token string)

// Client talks to the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token func() string
	hooks []UnauthorizedHook
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	metrics   *metrics.AppMetrics
	logger    *zerolog.Logger
}

// Option configures New.
type Option func(*options)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithTransport sets the innermost transport.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

// WithMetrics records request metrics on m.
func WithMetrics(m *metrics.AppMetrics) Option { return func(o *options) { o.metrics = m } }

// WithLogger sets the request logger.
func WithLogger(l *zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// New creates a client for baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, opts ...Option) *Client {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNoop()
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   func() string { return "" },
	}
	c.httpClient = &http.Client{
		Timeout: o.timeout,
		Transport: middleware.Chain(o.transport,
			middleware.RequestID(),
			middleware.Logging(o.logger),
			middleware.Metrics(o.metrics),
			middleware.Unauthorized(c.rejected),
			middleware.Auth(c.currentToken),
		),
	}
	return c
}

// SetTokenSource sets where the bearer token is read from on every request.
func (c *Client) SetTokenSource(token func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// OnUnauthorized registers a hook for auth-rejected responses.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	return token()
}

func (c *Client) rejected(r *http.Request, token string) {
	c.mu.RLock()
	hooks := append([]UnauthorizedHook(nil), c.hooks...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		hook(r.Context(), token)
	}
}

// Auth

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(middleware.WithPublic(ctx), http.MethodPost, "/auth/login", "/auth/login", req, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(middleware.WithPublic(ctx), http.MethodPost, "/auth/register", "/auth/register", req, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

// Me verifies the current token and returns its user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, &out); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("current user: empty response")
	}
	return out.User, nil
}

// Logout notifies the server that token is no longer in use. The token is
// passed explicitly because callers drop it locally before notifying.
func (c *Client) Logout(ctx context.Context, token string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := c.do(middleware.WithToken(ctx, token), http.MethodPost, "/auth/logout", "/auth/logout", nil, &out); err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}
	return &out, nil
}

// Products

func (c *Client) ListProducts(ctx context.Context, f models.ProductFilters) (*models.ProductsResponse, error) {
	path := "/products"
	if q := productQuery(f).Encode(); q != "" {
		path += "?" + q
	}
	var out models.ProductsResponse
	if err := c.do(ctx, http.MethodGet, "/products", path, nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var out struct {
		Product *models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/{id}", "/products/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if out.Product == nil {
		return nil, fmt.Errorf("get product %d: empty response", id)
	}
	return out.Product, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) (*models.SearchResponse, error) {
	var out models.SearchResponse
	path := "/products/search?" + url.Values{"q": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, "/products/search", path, nil, &out); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/categories", "/products/categories", nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out.Categories, nil
}

// Recommendations lists recommended products; limit <= 0 leaves the server default.
func (c *Client) Recommendations(ctx context.Context, limit int) ([]models.Product, error) {
	path := "/products/recommendations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Recommendations []models.Product `json:"recommendations"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/recommendations", path, nil, &out); err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return out.Recommendations, nil
}

// Chat

func (c *Client) SendChatMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var out models.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/message", "/chat/message", req, &out); err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}
	return &out, nil
}

func (c *Client) ChatHistory(ctx context.Context, sessionToken string) (*models.ChatHistoryResponse, error) {
	var out models.ChatHistoryResponse
	path := "/chat/history?" + url.Values{"session_token": {sessionToken}}.Encode()
	if err := c.do(ctx, http.MethodGet, "/chat/history", path, nil, &out); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return &out, nil
}

func (c *Client) ChatSessions(ctx context.Context, page, perPage int) (*models.ChatSessionsResponse, error) {
	path := "/chat/sessions"
	if q := pageQuery(page, perPage, "").Encode(); q != "" {
		path += "?" + q
	}
	var out models.ChatSessionsResponse
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", path, nil, &out); err != nil {
		return nil, fmt.Errorf("chat sessions: %w", err)
	}
	return &out, nil
}

// ResetChat ends the conversation identified by sessionToken; an empty token
// sends an empty body.
func (c *Client) ResetChat(ctx context.Context, sessionToken string) (*models.MessageResponse, error) {
	body := map[string]string{}
	if sessionToken != "" {
		body["session_token"] = sessionToken
	}
	var out models.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/chat/reset", "/chat/reset", body, &out); err != nil {
		return nil, fmt.Errorf("reset chat: %w", err)
	}
	return &out, nil
}

// Orders

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderResponse, error) {
	var out models.OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", "/orders", req, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, page, perPage int, status string) (*models.OrdersResponse, error) {
	path := "/orders"
	if q := pageQuery(page, perPage, status).Encode(); q != "" {
		path += "?" + q
	}
	var out models.OrdersResponse
	if err := c.do(ctx, http.MethodGet, "/orders", path, nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var out struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/{id}", "/orders/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if out.Order == nil {
		return nil, fmt.Errorf("get order %d: empty response", id)
	}
	return out.Order, nil
}

func (c *Client) CancelOrder(ctx context.Context, id int64) (*models.OrderResponse, error) {
	var out models.OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/{id}/cancel", "/orders/"+strconv.FormatInt(id, 10)+"/cancel", nil, &out); err != nil {
		return nil, fmt.Errorf("cancel order %d: %w", id, err)
	}
	return &out, nil
}

// do sends body as JSON (nil sends none) and decodes a 2xx answer into out.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(middleware.WithRoute(ctx, route), method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func productQuery(f models.ProductFilters) url.Values {
	q := url.Values{}
	if f.CategoryID != 0 {
		q.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	if f.MinPrice != 0 {
		q.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != 0 {
		q.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

func pageQuery(page, perPage int, status string) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	if status != "" {
		q.Set("status", status)
	}
	return q
}
