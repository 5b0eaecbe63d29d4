package cartstate

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cartapi"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

type stubAPI struct {
	getCart     *domain.Cart
	getErr      error
	getCalls    int
	addCart     *domain.Cart
	addErr      error
	addCalls    int
	lastAdd     cartapi.AddInput
	updateCart  *domain.Cart
	updateErr   error
	updateCalls int
	lastUpdate  cartapi.UpdateInput
	removeCart  *domain.Cart
	removeErr   error
	removeCalls int
	clearErr    error
	clearCalls  int
	checkoutURL string
	block       chan struct{}
}

func (s *stubAPI) Get(_ context.Context, _ string) (*domain.Cart, error) {
	s.getCalls++
	return s.getCart, s.getErr
}

func (s *stubAPI) Add(_ context.Context, in cartapi.AddInput) (*domain.Cart, error) {
	s.addCalls++
	s.lastAdd = in
	if s.block != nil {
		<-s.block
	}
	return s.addCart, s.addErr
}

func (s *stubAPI) Update(_ context.Context, in cartapi.UpdateInput) (*domain.Cart, error) {
	s.updateCalls++
	s.lastUpdate = in
	if s.block != nil {
		<-s.block
	}
	return s.updateCart, s.updateErr
}

func (s *stubAPI) Remove(_ context.Context, _, _ string) (*domain.Cart, error) {
	s.removeCalls++
	return s.removeCart, s.removeErr
}

func (s *stubAPI) Clear(_ context.Context, _ string) error {
	s.clearCalls++
	return s.clearErr
}

func (s *stubAPI) Checkout(_ context.Context, _ string) (string, error) {
	return s.checkoutURL, nil
}

func newManager(api *stubAPI) (*Manager, *kvstore.Memory) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	handles := kvstore.NewMemory()
	return New(api, handles, log), handles
}

func handleValue(t *testing.T, handles *kvstore.Memory) (string, bool) {
	t.Helper()
	v, err := handles.Get(context.Background(), handleKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func oneItemCart(cartID, itemID string, productID int64, qty int) *domain.Cart {
	return &domain.Cart{
		ID:       cartID,
		Currency: "USD",
		Items:    []domain.LineItem{{ID: itemID, ProductID: productID, Quantity: qty}},
	}
}

func TestInitialize_NoHandleIsEmptyNotExpired(t *testing.T) {
	mgr, _ := newManager(&stubAPI{})

	require.NoError(t, mgr.Initialize(context.Background()))
	assert.Equal(t, StatusEmpty, mgr.Status())
	assert.Nil(t, mgr.Cart())
}

func TestInitialize_StaleHandleExpiresAndClears(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{getErr: errors.Wrap(domain.ErrNotFound, "GET /api/cart")}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-9"))

	require.NoError(t, mgr.Initialize(ctx))
	assert.Equal(t, StatusExpired, mgr.Status())
	assert.Nil(t, mgr.Cart())
	if _, ok := handleValue(t, handles); ok {
		t.Fatal("stale handle must be discarded")
	}
	assert.Equal(t, 1, api.getCalls, "expiry must not be retried")
}

func TestInitialize_LiveHandleIsReady(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{getCart: oneItemCart("cart-1", "item-1", 42, 3)}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))

	require.NoError(t, mgr.Initialize(ctx))
	assert.Equal(t, StatusReady, mgr.Status())
	assert.Equal(t, 3, mgr.TotalItems())
}

func TestAddToCart_FirstAddCreatesAndPersistsHandle(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{addCart: oneItemCart("cart-1", "item-1", 42, 2)}
	mgr, handles := newManager(api)
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.AddToCart(ctx, 42, 2, 0))

	assert.Equal(t, StatusReady, mgr.Status())
	assert.Equal(t, 2, mgr.TotalItems())
	assert.Empty(t, api.lastAdd.CartID, "no prior handle should be sent")
	got, ok := handleValue(t, handles)
	require.True(t, ok)
	assert.Equal(t, "cart-1", got)
}

func TestAddToCart_ExpiredHandleStillSucceedsWithNewHandle(t *testing.T) {
	ctx := context.Background()
	// The storefront add endpoint replaces expired carts transparently, so
	// the manager only ever sees the replacement.
	api := &stubAPI{addCart: oneItemCart("cart-new", "item-1", 42, 1)}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-9"))

	require.NoError(t, mgr.AddToCart(ctx, 42, 1, 0))

	assert.Equal(t, StatusReady, mgr.Status())
	assert.Equal(t, "cart-9", api.lastAdd.CartID)
	got, ok := handleValue(t, handles)
	require.True(t, ok)
	assert.Equal(t, "cart-new", got, "returned id must overwrite the handle")
}

func TestAddToCart_RejectsInvalidInputLocally(t *testing.T) {
	api := &stubAPI{}
	mgr, _ := newManager(api)

	require.ErrorIs(t, mgr.AddToCart(context.Background(), 42, 0, 0), ErrInvalidQuantity)
	require.ErrorIs(t, mgr.AddToCart(context.Background(), 42, -1, 0), ErrInvalidQuantity)
	require.Error(t, mgr.AddToCart(context.Background(), 0, 1, 0))
	assert.Equal(t, 0, api.addCalls, "invalid input must not reach the network")
}

func TestUpdateQuantity_ZeroDelegatesToRemove(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{
		getCart:    oneItemCart("cart-1", "item-1", 42, 3),
		removeCart: nil, // platform deleted the now-empty cart
	}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.UpdateQuantity(ctx, "item-1", 0))

	assert.Equal(t, 0, api.updateCalls, "quantity 0 must never hit the update endpoint")
	assert.Equal(t, 1, api.removeCalls)
	assert.Equal(t, StatusEmpty, mgr.Status())
	assert.Equal(t, 0, mgr.TotalItems())
	if _, ok := handleValue(t, handles); ok {
		t.Fatal("handle must be cleared when the cart is deleted")
	}
}

func TestUpdateQuantity_RestatesProductFromSnapshot(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: "cart-1", Items: []domain.LineItem{{ID: "item-1", ProductID: 42, VariantID: 7, Quantity: 1}}}
	api := &stubAPI{getCart: cart, updateCart: cart}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.UpdateQuantity(ctx, "item-1", 4))

	assert.Equal(t, int64(42), api.lastUpdate.ProductID)
	assert.Equal(t, int64(7), api.lastUpdate.VariantID)
	assert.Equal(t, 4, api.lastUpdate.Quantity)
}

func TestUpdateQuantity_UnknownItemFailsFast(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{getCart: oneItemCart("cart-1", "item-1", 42, 1)}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.ErrorIs(t, mgr.UpdateQuantity(ctx, "item-unknown", 2), ErrItemNotFound)
	assert.Equal(t, 0, api.updateCalls)
	assert.Equal(t, StatusReady, mgr.Status(), "local rejection must not disturb state")
}

func TestUpdateQuantity_NegativeRejectedWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{getCart: oneItemCart("cart-1", "item-1", 42, 1)}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.ErrorIs(t, mgr.UpdateQuantity(ctx, "item-1", -1), ErrInvalidQuantity)
	assert.Equal(t, 0, api.updateCalls)
	assert.Equal(t, 0, api.removeCalls)
}

func TestUpdateQuantity_ExpiredUpstreamTransitionsWithoutRetry(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{
		getCart:   oneItemCart("cart-1", "item-1", 42, 1),
		updateErr: errors.Wrap(domain.ErrNotFound, "PUT /carts/cart-1/items/item-1"),
	}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	err := mgr.UpdateQuantity(ctx, "item-1", 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, StatusExpired, mgr.Status())
	assert.Nil(t, mgr.Cart())
	assert.Equal(t, 1, api.updateCalls, "no second network call after expiry")
	if _, ok := handleValue(t, handles); ok {
		t.Fatal("handle must be cleared on expiry")
	}
}

func TestRemoveItem_UpdatedCartStaysReady(t *testing.T) {
	ctx := context.Background()
	remaining := oneItemCart("cart-1", "item-2", 43, 1)
	api := &stubAPI{
		getCart: &domain.Cart{ID: "cart-1", Items: []domain.LineItem{
			{ID: "item-1", ProductID: 42, Quantity: 2},
			{ID: "item-2", ProductID: 43, Quantity: 1},
		}},
		removeCart: remaining,
	}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.RemoveItem(ctx, "item-1"))
	assert.Equal(t, StatusReady, mgr.Status())
	assert.Equal(t, 1, mgr.TotalItems())
}

func TestConcurrentMutationRejectedWithoutSnapshotChange(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	api := &stubAPI{
		getCart: oneItemCart("cart-1", "item-1", 42, 3),
		addCart: oneItemCart("cart-1", "item-1", 42, 4),
		block:   block,
	}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	done := make(chan error, 1)
	go func() {
		done <- mgr.AddToCart(ctx, 42, 1, 0)
	}()

	require.Eventually(t, mgr.Busy, time.Second, time.Millisecond)

	err := mgr.UpdateQuantity(ctx, "item-1", 5)
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 3, mgr.TotalItems(), "rejected call must not alter the snapshot")
	assert.Equal(t, 0, api.updateCalls)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 4, mgr.TotalItems())
}

func TestClear_BestEffortRemoteDeleteAlwaysEmpties(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{
		getCart:  oneItemCart("cart-1", "item-1", 42, 1),
		clearErr: errors.New("upstream unavailable"),
	}
	mgr, handles := newManager(api)
	require.NoError(t, handles.Set(ctx, handleKey, "cart-1"))
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.Clear(ctx), "remote delete failure is non-fatal")
	assert.Equal(t, 1, api.clearCalls)
	assert.Equal(t, StatusEmpty, mgr.Status())
	if _, ok := handleValue(t, handles); ok {
		t.Fatal("handle must be cleared")
	}
}

func TestSubtotal_PrefersTaxInclusiveTotal(t *testing.T) {
	mgr, _ := newManager(&stubAPI{})
	assert.Zero(t, mgr.Subtotal())

	mgr.transition(StatusReady, &domain.Cart{ID: "c", BaseAmount: 10}, nil)
	assert.Equal(t, 10.0, mgr.Subtotal())

	mgr.transition(StatusReady, &domain.Cart{ID: "c", BaseAmount: 10, CartAmountIncTax: 10.8}, nil)
	assert.Equal(t, 10.8, mgr.Subtotal())
}

func TestCheckoutURL_FromSnapshotThenAPI(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{checkoutURL: "https://store.example/checkout/cart-1"}
	mgr, _ := newManager(api)

	url, err := mgr.CheckoutURL(ctx)
	require.NoError(t, err)
	assert.Empty(t, url, "no cart means no checkout URL")

	mgr.transition(StatusReady, &domain.Cart{ID: "cart-1"}, nil)
	url, err = mgr.CheckoutURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/checkout/cart-1", url)

	mgr.transition(StatusReady, &domain.Cart{ID: "cart-1", CheckoutURL: "https://cached.example"}, nil)
	url, err = mgr.CheckoutURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://cached.example", url)
}
