package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/models"
)

// ErrEmptyCart is returned by Checkout when there is nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

// CheckoutRequest carries what an order needs besides the cart lines.
type CheckoutRequest struct {
	ShippingAddress models.Address
	BillingAddress  *models.Address
	PaymentMethod   string
}

// OrderService handles order-related operations
type OrderService struct {
	client  *api.Client
	metrics *metrics.AppMetrics
	logger  *zerolog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(client *api.Client, m *metrics.AppMetrics, logger *zerolog.Logger) *OrderService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &OrderService{
		client:  client,
		metrics: m,
		logger:  logging.Component(logger, "orders"),
	}
}

// Checkout places an order for the cart contents. The cart is cleared only
// after the server accepted the order.
func (s *OrderService) Checkout(ctx context.Context, cart *Cart, req CheckoutRequest) (*models.Order, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]models.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderLine{ProductID: item.Product.ID, Quantity: item.Quantity})
	}

	resp, err := s.client.CreateOrder(ctx, models.CreateOrderRequest{
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	s.metrics.RecordOutcome(ctx, s.metrics.OrdersCreated, "checkout", err == nil)
	if err != nil {
		s.logger.Warn().Err(err).Int("lines", len(lines)).Msg("checkout failed")
		return nil, fmt.Errorf("checkout: %w", err)
	}

	order := resp.Order
	s.metrics.RevenueTotal.Add(ctx, order.TotalAmount, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("payment_method", order.PaymentMethod),
	})...))
	cart.Clear(ctx)

	s.logger.Info().Str("order_number", order.OrderNumber).Float64("total", order.TotalAmount).Msg("order placed")
	return &order, nil
}

// List returns the signed-in user's orders; status filters when non-empty.
func (s *OrderService) List(ctx context.Context, page, perPage int, status string) (*models.OrdersResponse, error) {
	return s.client.ListOrders(ctx, page, perPage, status)
}

func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.client.GetOrder(ctx, id)
}

// Cancel cancels a pending or confirmed order
func (s *OrderService) Cancel(ctx context.Context, id int64) (*models.Order, error) {
	resp, err := s.client.CancelOrder(ctx, id)
	s.metrics.RecordOutcome(ctx, s.metrics.OrdersCancelled, "cancel", err == nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("order_id", id).Msg("order cancelled")
	return &resp.Order, nil
}
