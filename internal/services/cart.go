package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrOutOfStock      = errors.New("product is out of stock")
)

// Cart holds the local shopping cart. Each product appears at most once and
// its quantity never exceeds the stock captured when it was added.
type Cart struct {
	metrics *metrics.AppMetrics
	logger  *zerolog.Logger

	mu    sync.Mutex
	items map[int64]*models.CartItem
}

// NewCart creates an empty cart
func NewCart(m *metrics.AppMetrics, logger *zerolog.Logger) *Cart {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Cart{
		metrics: m,
		logger:  logging.Component(logger, "cart"),
		items:   map[int64]*models.CartItem{},
	}
}

// AddItem adds qty units of product, clamped to its stock.
func (c *Cart) AddItem(ctx context.Context, product models.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if product.StockQuantity <= 0 {
		return ErrOutOfStock
	}

	c.mu.Lock()
	if item, ok := c.items[product.ID]; ok {
		item.Quantity = min(item.Quantity+qty, item.Product.StockQuantity)
	} else {
		c.items[product.ID] = &models.CartItem{Product: product, Quantity: min(qty, product.StockQuantity)}
	}
	c.mu.Unlock()

	c.record(ctx)
	return nil
}

// UpdateQuantity sets the quantity of a product already in the cart. A
// quantity of zero or less removes it. Unknown products are ignored.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, qty int) {
	if qty <= 0 {
		c.RemoveItem(ctx, productID)
		return
	}

	c.mu.Lock()
	item, ok := c.items[productID]
	if ok {
		item.Quantity = min(qty, item.Product.StockQuantity)
	}
	c.mu.Unlock()

	if ok {
		c.record(ctx)
	}
}

func (c *Cart) RemoveItem(ctx context.Context, productID int64) {
	c.mu.Lock()
	_, ok := c.items[productID]
	delete(c.items, productID)
	c.mu.Unlock()

	if ok {
		c.record(ctx)
	}
}

func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = map[int64]*models.CartItem{}
	c.mu.Unlock()

	c.record(ctx)
}

func (c *Cart) IsInCart(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[productID]
	return ok
}

// ItemQuantity returns 0 for products not in the cart.
func (c *Cart) ItemQuantity(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[productID]; ok {
		return item.Quantity
	}
	return 0
}

// Items returns a copy of the cart lines ordered by product id.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out
}

// ItemCount is the total number of units.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.totalsLocked()
	return n
}

// Total is the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, total := c.totalsLocked()
	return total
}

func (c *Cart) totalsLocked() (int, float64) {
	var (
		units int
		total float64
	)
	for _, item := range c.items {
		units += item.Quantity
		total += item.Product.Price * float64(item.Quantity)
	}
	return units, total
}

func (c *Cart) record(ctx context.Context) {
	c.mu.Lock()
	units, total := c.totalsLocked()
	lines := len(c.items)
	c.mu.Unlock()

	c.metrics.RecordCart(ctx, units, total)
	c.logger.Debug().Int("lines", lines).Int("units", units).Float64("total", total).Msg("cart updated")
}
