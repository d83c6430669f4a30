package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/models"
)

// ProductService handles catalog browsing
type ProductService struct {
	client  *api.Client
	metrics *metrics.AppMetrics
	logger  *zerolog.Logger
}

// NewProductService creates a new product service
func NewProductService(client *api.Client, m *metrics.AppMetrics, logger *zerolog.Logger) *ProductService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &ProductService{
		client:  client,
		metrics: m,
		logger:  logging.Component(logger, "products"),
	}
}

// List returns one page of products matching filters
func (s *ProductService) List(ctx context.Context, filters models.ProductFilters) (*models.ProductsResponse, error) {
	return s.client.ListProducts(ctx, filters)
}

// Get returns a single product and records the view
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.client.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("category", p.Category),
	})...))
	return p, nil
}

// Search runs a free-text product search. Blank queries return no products
// without a request.
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	resp, err := s.client.SearchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("query", query).Int("count", resp.Count).Msg("product search")
	return resp.Products, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.client.Categories(ctx)
}

func (s *ProductService) Recommendations(ctx context.Context, limit int) ([]models.Product, error) {
	return s.client.Recommendations(ctx, limit)
}
