package sandbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/platform"
)

// Drives the sandbox through the storefront's own platform client, so both
// sides of the wire dialect are checked against each other.
func TestServer_PlatformClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, pool := testStore(ctx, t)
	defer pool.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := &Server{store: store, log: log, token: "test-token", checkoutBase: "http://sandbox.local"}
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	client := platform.New(ts.URL, "test-token", log)

	created, err := client.CreateProduct(ctx, domain.Product{Name: "Kettle", Price: 34.50, Stock: 5, Category: "Kitchen"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID == 0 || created.CategoryID == 0 {
		t.Fatalf("unexpected product %+v", created)
	}

	cart, err := client.CreateCart(ctx, []domain.NewLine{{ProductID: created.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}
	if cart.ItemCount() != 2 {
		t.Fatalf("item count = %d, want 2", cart.ItemCount())
	}
	if cart.BaseAmount != 69.0 {
		t.Fatalf("base amount = %v, want 69.0", cart.BaseAmount)
	}
	if cart.CartAmountIncTax <= cart.BaseAmount {
		t.Fatalf("inc-tax total %v should exceed base %v", cart.CartAmountIncTax, cart.BaseAmount)
	}
	if cart.CheckoutURL == "" {
		t.Fatal("checkout URL missing from redirect_urls")
	}

	updated, err := client.UpdateLineItem(ctx, cart.ID, cart.Items[0].ID, platform.UpdateLineItemInput{
		Quantity:  1,
		ProductID: created.ID,
	})
	if err != nil {
		t.Fatalf("UpdateLineItem: %v", err)
	}
	if updated.ItemCount() != 1 {
		t.Fatalf("item count after update = %d", updated.ItemCount())
	}

	// deleting the only line answers 204, surfaced as a nil cart
	gone, err := client.DeleteLineItem(ctx, cart.ID, cart.Items[0].ID)
	if err != nil {
		t.Fatalf("DeleteLineItem: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil cart, got %+v", gone)
	}
	if _, err := client.GetCart(ctx, cart.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetCart after delete: %v", err)
	}
}

func TestServer_RejectsBadToken(t *testing.T) {
	ctx := context.Background()
	store, pool := testStore(ctx, t)
	defer pool.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := &Server{store: store, log: log, token: "test-token"}
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	client := platform.New(ts.URL, "wrong-token", log)
	_, err := client.ListProducts(ctx, platform.ListProductsOptions{})
	var apiErr *platform.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}
