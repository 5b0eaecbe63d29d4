package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"storefront/internal/domain"
)

const cartInclude = "line_items.physical_items.options,redirect_urls"

// CreateCart creates a brand-new cart seeded with the given lines.
func (c *Client) CreateCart(ctx context.Context, lines []domain.NewLine) (*domain.Cart, error) {
	if len(lines) == 0 {
		return nil, errors.New("at least one line item required")
	}
	q := url.Values{"include": {cartInclude}}
	var env cartEnvelope
	if _, err := c.do(ctx, http.MethodPost, "/carts", q, lineItemsBody{LineItems: toNewLines(lines)}, &env); err != nil {
		return nil, err
	}
	return toCart(env.Data), nil
}

// GetCart fetches a cart by id. A missing or expired cart surfaces as
// domain.ErrNotFound.
func (c *Client) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.Wrap(domain.ErrNotFound, "empty cart id")
	}
	q := url.Values{"include": {cartInclude}}
	var env cartEnvelope
	if _, err := c.do(ctx, http.MethodGet, "/carts/"+cartID, q, nil, &env); err != nil {
		return nil, err
	}
	return toCart(env.Data), nil
}

// AddLineItems appends lines to an existing cart.
func (c *Client) AddLineItems(ctx context.Context, cartID string, lines []domain.NewLine) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.New("cart id required")
	}
	q := url.Values{"include": {cartInclude}}
	var env cartEnvelope
	if _, err := c.do(ctx, http.MethodPost, "/carts/"+cartID+"/items", q, lineItemsBody{LineItems: toNewLines(lines)}, &env); err != nil {
		return nil, err
	}
	return toCart(env.Data), nil
}

// UpdateLineItemInput restates the product (and variant, when present) the
// line refers to; the platform's update endpoint rejects a bare quantity.
type UpdateLineItemInput struct {
	Quantity  int
	ProductID int64
	VariantID int64
}

func (c *Client) UpdateLineItem(ctx context.Context, cartID, itemID string, in UpdateLineItemInput) (*domain.Cart, error) {
	if cartID == "" || itemID == "" {
		return nil, errors.New("cart id and item id required")
	}
	body := updateItemBody{LineItem: wireNewLine{
		Quantity:  in.Quantity,
		ProductID: in.ProductID,
		VariantID: in.VariantID,
	}}
	q := url.Values{"include": {cartInclude}}
	var env cartEnvelope
	if _, err := c.do(ctx, http.MethodPut, "/carts/"+cartID+"/items/"+itemID, q, body, &env); err != nil {
		return nil, err
	}
	return toCart(env.Data), nil
}

// DeleteLineItem removes one line. When the platform deletes the now-empty
// cart it answers 204 with no body; that is reported as a nil cart with a
// nil error.
func (c *Client) DeleteLineItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	if cartID == "" || itemID == "" {
		return nil, errors.New("cart id and item id required")
	}
	q := url.Values{"include": {cartInclude}}
	var env cartEnvelope
	status, err := c.do(ctx, http.MethodDelete, "/carts/"+cartID+"/items/"+itemID, q, nil, &env)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return toCart(env.Data), nil
}

// DeleteCart removes the whole cart. A cart that is already gone counts as
// deleted.
func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodDelete, "/carts/"+cartID, nil, nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// CheckoutURL resolves the platform-issued checkout redirect for a cart.
// Empty when the platform did not include one.
func (c *Client) CheckoutURL(ctx context.Context, cartID string) (string, error) {
	cart, err := c.GetCart(ctx, cartID)
	if err != nil {
		return "", err
	}
	return cart.CheckoutURL, nil
}
