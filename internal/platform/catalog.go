package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"storefront/internal/domain"
)

// ListProductsOptions narrows a catalog listing. Zero value lists everything
// without image payloads.
type ListProductsOptions struct {
	CategoryID    int64
	IncludeImages bool
}

func (c *Client) ListProducts(ctx context.Context, opts ListProductsOptions) ([]domain.Product, error) {
	q := url.Values{}
	if opts.IncludeImages {
		q.Set("include", "images")
	}
	if opts.CategoryID > 0 {
		q.Set("categories:in", strconv.FormatInt(opts.CategoryID, 10))
	}
	var env productListEnvelope
	if _, err := c.do(ctx, http.MethodGet, "/catalog/products", q, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(env.Data))
	for _, w := range env.Data {
		out = append(out, toProduct(w))
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	q := url.Values{"include": {"images"}}
	var env productEnvelope
	if _, err := c.do(ctx, http.MethodGet, "/catalog/products/"+strconv.FormatInt(id, 10), q, nil, &env); err != nil {
		return nil, err
	}
	p := toProduct(env.Data)
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var env categoryListEnvelope
	if _, err := c.do(ctx, http.MethodGet, "/catalog/categories", nil, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(env.Data))
	for _, w := range env.Data {
		out = append(out, domain.Category{ID: w.ID, Name: w.Name})
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Name == "" {
		return nil, errors.New("product name required")
	}
	var env productEnvelope
	if _, err := c.do(ctx, http.MethodPost, "/catalog/products", nil, fromProduct(p), &env); err != nil {
		return nil, err
	}
	created := toProduct(env.Data)
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, p domain.Product) (*domain.Product, error) {
	if id <= 0 {
		return nil, errors.New("product id required")
	}
	var env productEnvelope
	if _, err := c.do(ctx, http.MethodPut, "/catalog/products/"+strconv.FormatInt(id, 10), nil, fromProduct(p), &env); err != nil {
		return nil, err
	}
	updated := toProduct(env.Data)
	return &updated, nil
}
