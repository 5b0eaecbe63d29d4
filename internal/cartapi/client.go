// Package cartapi is the client side of the storefront's cart endpoints.
// The reconciliation state and the operator CLI go through it rather than
// talking to the commerce platform directly.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/domain"
)

type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

type AddInput struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	VariantID int64  `json:"variantId,omitempty"`
	CartID    string `json:"cartId,omitempty"`
}

type UpdateInput struct {
	CartID    string `json:"cartId"`
	ItemID    string `json:"itemId"`
	Quantity  int    `json:"quantity"`
	ProductID int64  `json:"productId"`
	VariantID int64  `json:"variantId,omitempty"`
}

// Get refreshes a cart snapshot; domain.ErrNotFound means the handle
// expired.
func (c *Client) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	q := url.Values{"cartId": {cartID}}
	return c.cartCall(ctx, http.MethodGet, "/api/cart?"+q.Encode(), nil)
}

func (c *Client) Add(ctx context.Context, in AddInput) (*domain.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/add", in)
}

func (c *Client) Update(ctx context.Context, in UpdateInput) (*domain.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/update", in)
}

// Remove deletes one line; a JSON null response reports the cart itself was
// deleted and comes back as a nil cart.
func (c *Client) Remove(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/remove", map[string]string{
		"cartId": cartID,
		"itemId": itemID,
	})
}

func (c *Client) Clear(ctx context.Context, cartID string) error {
	_, err := c.call(ctx, http.MethodPost, "/api/cart/clear", map[string]string{"cartId": cartID})
	return err
}

func (c *Client) Checkout(ctx context.Context, cartID string) (string, error) {
	raw, err := c.call(ctx, http.MethodPost, "/api/cart/checkout", map[string]string{"cartId": cartID})
	if err != nil {
		return "", err
	}
	var body struct {
		CheckoutURL string `json:"checkoutUrl"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", errors.Wrap(err, "decode checkout response")
	}
	return body.CheckoutURL, nil
}

func (c *Client) cartCall(ctx context.Context, method, path string, body interface{}) (*domain.Cart, error) {
	raw, err := c.call(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, errors.Wrap(err, "decode cart response")
	}
	return &cart, nil
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(buf.Bytes(), &envelope)
		if resp.StatusCode == http.StatusNotFound {
			if envelope.Message != "" {
				return nil, errors.Wrap(domain.ErrNotFound, envelope.Message)
			}
			return nil, errors.Wrapf(domain.ErrNotFound, "%s %s", method, path)
		}
		if envelope.Message != "" {
			return nil, errors.Errorf("storefront responded %d: %s", resp.StatusCode, envelope.Message)
		}
		return nil, errors.Errorf("storefront responded %d", resp.StatusCode)
	}

	return buf.Bytes(), nil
}
