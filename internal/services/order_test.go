package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/api/apitest"
	"github.com/SigNoz/storefront-client/internal/models"
)

var shipTo = models.Address{Name: "Alice", Street: "1 Rabbit Hole", City: "Oxford", PostalCode: "OX1", Country: "UK"}

func TestProductService(t *testing.T) {
	f := newFixture(t)
	products := NewProductService(f.client, f.rec.Metrics, f.logger)
	ctx := context.Background()

	p, err := products.Get(ctx, apitest.ProductHeadphones)
	if err != nil || p.Name != "Sony WH-1000XM5" {
		t.Fatalf("Get = %+v, %v", p, err)
	}
	if got := f.rec.Int64Sum(t, "products_viewed_total"); got != 1 {
		t.Errorf("products_viewed_total = %d", got)
	}
	if _, err := products.Get(ctx, 424242); err == nil {
		t.Error("Get of unknown product succeeded")
	}

	found, err := products.Search(ctx, "sony")
	if err != nil || len(found) != 1 {
		t.Fatalf("Search = %+v, %v", found, err)
	}
	if found, _ := products.Search(ctx, "   "); found != nil || f.srv.Hits("/products/search") != 1 {
		t.Errorf("blank search sent a request")
	}

	page, err := products.List(ctx, models.ProductFilters{Brand: "Dell", PerPage: 10})
	if err != nil || len(page.Products) != 1 || page.Pagination.Total != 1 {
		t.Fatalf("List = %+v, %v", page, err)
	}

	cats, err := products.Categories(ctx)
	if err != nil || len(cats) != 3 {
		t.Fatalf("Categories = %+v, %v", cats, err)
	}

	recs, err := products.Recommendations(ctx, 2)
	if err != nil || len(recs) != 2 || recs[0].ID != apitest.ProductBook {
		t.Fatalf("Recommendations = %+v, %v", recs, err)
	}
}

func TestCheckoutClearsCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	orders := NewOrderService(f.client, f.rec.Metrics, f.logger)
	cart := NewCart(f.rec.Metrics, f.logger)
	ctx := context.Background()

	_ = cart.AddItem(ctx, laptop, 2)
	_ = cart.AddItem(ctx, book, 1)

	order, err := orders.Checkout(ctx, cart, CheckoutRequest{ShippingAddress: shipTo, PaymentMethod: "paypal"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if want := 2*1249.99 + 9.99; !almostEqual(order.TotalAmount, want) {
		t.Errorf("TotalAmount = %v, want %v", order.TotalAmount, want)
	}
	if order.Status != models.OrderStatusPending || len(order.Items) != 2 {
		t.Errorf("order = %+v", order)
	}
	if cart.ItemCount() != 0 {
		t.Error("cart not cleared after checkout")
	}
	if got := f.rec.Int64Sum(t, "orders_created_total"); got != 1 {
		t.Errorf("orders_created_total = %d", got)
	}

	got, err := orders.Get(ctx, order.ID)
	if err != nil || got.OrderNumber != order.OrderNumber {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	list, err := orders.List(ctx, 1, 10, "")
	if err != nil || len(list.Orders) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}

	cancelled, err := orders.Cancel(ctx, order.ID)
	if err != nil || cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("Cancel = %+v, %v", cancelled, err)
	}
	_, err = orders.Cancel(ctx, order.ID)
	if msg := api.Message(err, ""); msg != "Order cannot be cancelled" {
		t.Errorf("second Cancel message = %q (%v)", msg, err)
	}

	if list, _ := orders.List(ctx, 1, 10, models.OrderStatusPending); len(list.Orders) != 0 {
		t.Errorf("pending orders = %+v", list.Orders)
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	orders := NewOrderService(f.client, f.rec.Metrics, f.logger)
	cart := NewCart(f.rec.Metrics, f.logger)
	ctx := context.Background()

	if _, err := orders.Checkout(ctx, cart, CheckoutRequest{ShippingAddress: shipTo}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty checkout err = %v", err)
	}

	_ = cart.AddItem(ctx, phone, 2)
	_, err := orders.Checkout(ctx, cart, CheckoutRequest{})
	if msg := api.Message(err, ""); msg != "Shipping address is required" {
		t.Fatalf("checkout without address: %v", err)
	}
	if cart.ItemQuantity(phone.ID) != 2 {
		t.Error("failed checkout touched the cart")
	}
}

func TestOrdersRequireSession(t *testing.T) {
	f := newFixture(t)
	orders := NewOrderService(f.client, f.rec.Metrics, f.logger)

	_, err := orders.List(context.Background(), 1, 10, "")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("List signed out: err = %v", err)
	}
}
