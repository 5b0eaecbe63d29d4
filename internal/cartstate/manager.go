// Package cartstate owns the local notion of "current cart" and reconciles
// it against the platform's authoritative state. The persisted handle is
// advisory only: every operation is prepared for the referenced cart to be
// gone upstream.
package cartstate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/cartapi"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

// Status is the reconciliation lifecycle. Expired is distinct from empty on
// purpose: "you had a cart and it is gone" reads differently from "you never
// had one".
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusEmpty         Status = "empty"
	StatusExpired       Status = "expired"
	StatusErrored       Status = "errored"
)

// handleKey is the fixed name the cart identifier persists under. No expiry
// metadata lives beside it; staleness is discovered through 404s.
const handleKey = "cart_id"

var (
	// ErrBusy rejects a mutating call issued while another is in flight.
	// Calls are rejected, not queued.
	ErrBusy = errors.New("another cart operation is in flight")
	// ErrInvalidQuantity rejects out-of-range quantities before any
	// network call.
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	// ErrItemNotFound rejects updates against items absent from the held
	// snapshot, locally and without a network call.
	ErrItemNotFound = errors.New("item not in current cart")
)

// CartAPI is the slice of the storefront cart surface the manager drives.
type CartAPI interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Add(ctx context.Context, in cartapi.AddInput) (*domain.Cart, error)
	Update(ctx context.Context, in cartapi.UpdateInput) (*domain.Cart, error)
	Remove(ctx context.Context, cartID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
	Checkout(ctx context.Context, cartID string) (string, error)
}

// Manager is the reconciliation state machine. It is the only writer of the
// persisted handle and the in-memory snapshot; everything else reads.
type Manager struct {
	api     CartAPI
	handles kvstore.Store
	log     *logrus.Logger

	mu     sync.Mutex
	busy   bool
	status Status
	cart   *domain.Cart
	err    error
}

func New(api CartAPI, handles kvstore.Store, log *logrus.Logger) *Manager {
	return &Manager{
		api:     api,
		handles: handles,
		log:     log,
		status:  StatusUninitialized,
	}
}

// Initialize loads the persisted handle, if any, and reconciles it against
// the platform. No handle means empty; a handle the platform no longer
// recognizes means expired, and the stale handle is discarded rather than
// retried.
func (m *Manager) Initialize(ctx context.Context) error {
	handle, ok := m.loadHandle(ctx)
	if !ok {
		m.transition(StatusEmpty, nil, nil)
		return nil
	}

	m.transition(StatusLoading, nil, nil)
	cart, err := m.api.Get(ctx, handle)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.clearHandle(ctx)
		m.transition(StatusExpired, nil, nil)
		return nil
	case err != nil:
		m.transition(StatusErrored, nil, err)
		return err
	}

	m.transition(StatusReady, cart, nil)
	return nil
}

// AddToCart is allowed from any state. A handle that expired upstream is
// replaced transparently by the storefront, so success always lands in
// ready, and the returned cart's identifier always overwrites the persisted
// handle — the platform may rotate identifiers.
func (m *Manager) AddToCart(ctx context.Context, productID int64, quantity int, variantID int64) error {
	if productID <= 0 {
		return errors.New("product id required")
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := m.begin(); err != nil {
		return err
	}
	defer m.finish()

	handle, _ := m.loadHandle(ctx)
	cart, err := m.api.Add(ctx, cartapi.AddInput{
		ProductID: productID,
		Quantity:  quantity,
		VariantID: variantID,
		CartID:    handle,
	})
	if err != nil {
		m.transition(StatusErrored, nil, err)
		return err
	}

	m.persistHandle(ctx, cart.ID)
	m.transition(StatusReady, cart, nil)
	return nil
}

// UpdateQuantity changes one line's quantity. Zero delegates to RemoveItem.
// The item must be locatable in the held snapshot; otherwise the call fails
// fast without touching the network.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return m.RemoveItem(ctx, itemID)
	}

	cart := m.Cart()
	if cart == nil {
		return ErrItemNotFound
	}
	item := cart.FindItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}

	if err := m.begin(); err != nil {
		return err
	}
	defer m.finish()

	updated, err := m.api.Update(ctx, cartapi.UpdateInput{
		CartID:    cart.ID,
		ItemID:    itemID,
		Quantity:  quantity,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.expire(ctx, err)
		return err
	case err != nil:
		m.transition(StatusErrored, nil, err)
		return err
	}

	m.transition(StatusReady, updated, nil)
	return nil
}

// RemoveItem deletes one line. The storefront answers null when removing the
// last item deleted the cart itself; that lands in empty with the handle
// cleared.
func (m *Manager) RemoveItem(ctx context.Context, itemID string) error {
	cart := m.Cart()
	if cart == nil || cart.FindItem(itemID) == nil {
		return ErrItemNotFound
	}

	if err := m.begin(); err != nil {
		return err
	}
	defer m.finish()

	updated, err := m.api.Remove(ctx, cart.ID, itemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.expire(ctx, err)
		return err
	case err != nil:
		m.transition(StatusErrored, nil, err)
		return err
	}

	if updated == nil {
		m.clearHandle(ctx)
		m.transition(StatusEmpty, nil, nil)
		return nil
	}
	m.transition(StatusReady, updated, nil)
	return nil
}

// Clear deletes the remote cart best-effort and unconditionally resets to
// empty. A remote failure (the cart may already be gone) is logged, not
// surfaced.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.finish()

	if handle, ok := m.loadHandle(ctx); ok {
		if err := m.api.Clear(ctx, handle); err != nil {
			m.log.WithError(err).WithField("cartId", handle).Warn("remote cart delete failed; clearing locally anyway")
		}
	}
	m.clearHandle(ctx)
	m.transition(StatusEmpty, nil, nil)
	return nil
}

// Refresh re-fetches the held cart. Reads are not gated by the busy flag.
func (m *Manager) Refresh(ctx context.Context) error {
	handle, ok := m.loadHandle(ctx)
	if !ok {
		m.transition(StatusEmpty, nil, nil)
		return nil
	}
	cart, err := m.api.Get(ctx, handle)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.expire(ctx, err)
		return err
	case err != nil:
		m.transition(StatusErrored, nil, err)
		return err
	}
	m.transition(StatusReady, cart, nil)
	return nil
}

// CheckoutURL resolves the handoff URL for the held cart; empty when there
// is no cart or the platform did not include one.
func (m *Manager) CheckoutURL(ctx context.Context) (string, error) {
	cart := m.Cart()
	if cart == nil {
		return "", nil
	}
	if cart.CheckoutURL != "" {
		return cart.CheckoutURL, nil
	}
	return m.api.Checkout(ctx, cart.ID)
}

// Status reports the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Busy reports whether a mutating operation is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Err returns the error recorded by the last failed transition, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Cart returns the held snapshot; nil outside ready.
func (m *Manager) Cart() *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart
}

// TotalItems sums line quantities across the held snapshot.
func (m *Manager) TotalItems() int {
	cart := m.Cart()
	if cart == nil {
		return 0
	}
	return cart.ItemCount()
}

// Subtotal prefers the tax-inclusive total, falls back to the pre-tax base
// amount, and reports zero without a cart.
func (m *Manager) Subtotal() float64 {
	cart := m.Cart()
	if cart == nil {
		return 0
	}
	if cart.CartAmountIncTax > 0 {
		return cart.CartAmountIncTax
	}
	return cart.BaseAmount
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.busy = true
	return nil
}

func (m *Manager) finish() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

func (m *Manager) transition(status Status, cart *domain.Cart, err error) {
	m.mu.Lock()
	m.status = status
	m.cart = cart
	m.err = err
	m.mu.Unlock()
}

// expire handles a handle the platform reports gone mid-session: discard it,
// drop the snapshot, and mark the one-time expired state. No recreate here —
// only add recreates.
func (m *Manager) expire(ctx context.Context, err error) {
	m.clearHandle(ctx)
	m.transition(StatusExpired, nil, err)
}

func (m *Manager) loadHandle(ctx context.Context) (string, bool) {
	handle, err := m.handles.Get(ctx, handleKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.log.WithError(err).Warn("read cart handle failed")
		}
		return "", false
	}
	return handle, handle != ""
}

func (m *Manager) persistHandle(ctx context.Context, cartID string) {
	if err := m.handles.Set(ctx, handleKey, cartID); err != nil {
		m.log.WithError(err).WithField("cartId", cartID).Warn("persist cart handle failed")
	}
}

func (m *Manager) clearHandle(ctx context.Context) {
	if err := m.handles.Delete(ctx, handleKey); err != nil {
		m.log.WithError(err).Warn("clear cart handle failed")
	}
}
