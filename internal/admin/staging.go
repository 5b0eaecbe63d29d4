// Package admin stages product create/update payloads for the admin
// surface. It validates required fields and non-negative numbers, nothing
// more; the catalog owns everything else.
package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/domain"
)

type CatalogGateway interface {
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, p domain.Product) (*domain.Product, error)
}

// Fields is the editable slice of a product.
type Fields struct {
	Name        string
	Category    string
	Description string
	Price       float64
	ImageURL    string
	Stock       int
}

// Staging holds one in-progress edit. Zero product id means the submit
// creates a new product; otherwise it updates the staged one.
type Staging struct {
	gw        CatalogGateway
	productID int64
	fields    Fields
}

func NewStaging(gw CatalogGateway) *Staging {
	return &Staging{gw: gw}
}

// Begin resets the staging area. Passing an existing product stages an edit
// of it; nil stages a fresh create.
func (s *Staging) Begin(p *domain.Product) {
	if p == nil {
		s.productID = 0
		s.fields = Fields{}
		return
	}
	s.productID = p.ID
	s.fields = Fields{
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
	}
}

func (s *Staging) Fields() Fields {
	return s.fields
}

// Apply replaces the staged fields wholesale.
func (s *Staging) Apply(f Fields) {
	s.fields = f
}

// SetField stages one field from its text-input representation. Price and
// stock parse from text the way the form edits them.
func (s *Staging) SetField(name, raw string) error {
	raw = strings.TrimSpace(raw)
	switch name {
	case "name":
		s.fields.Name = raw
	case "category":
		s.fields.Category = raw
	case "description":
		s.fields.Description = raw
	case "image_url":
		s.fields.ImageURL = raw
	case "price":
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.Errorf("price must be a number, got %q", raw)
		}
		s.fields.Price = v
	case "stock":
		v, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Errorf("stock must be an integer, got %q", raw)
		}
		s.fields.Stock = v
	default:
		return errors.Errorf("unknown field %q", name)
	}
	return nil
}

// Validate enforces the staging contract: required name and category,
// non-negative price and stock.
func (s *Staging) Validate() error {
	if strings.TrimSpace(s.fields.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(s.fields.Category) == "" {
		return errors.New("category is required")
	}
	if s.fields.Price < 0 {
		return errors.New("price must be non-negative")
	}
	if s.fields.Stock < 0 {
		return errors.New("stock must be non-negative")
	}
	return nil
}

// Submit validates and forwards the staged payload verbatim to the catalog.
func (s *Staging) Submit(ctx context.Context) (*domain.Product, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p := domain.Product{
		Name:        s.fields.Name,
		Category:    s.fields.Category,
		Description: s.fields.Description,
		Price:       s.fields.Price,
		ImageURL:    s.fields.ImageURL,
		Stock:       s.fields.Stock,
	}
	if s.productID == 0 {
		return s.gw.CreateProduct(ctx, p)
	}
	return s.gw.UpdateProduct(ctx, s.productID, p)
}
