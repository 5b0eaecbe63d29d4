package importer

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain"
)

type stubProductWriter struct {
	items []domain.Product
}

func (s *stubProductWriter) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `name,description,price,inventory,category,image_url
Prod One,Desc one,19.99,12,Apparel,https://example.com/img1.jpg
,,,,,
Prod Two,Desc two,7.50,0,Homeware,`

	writer := &stubProductWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}
	if len(writer.items) != 2 {
		t.Fatalf("expected 2 products saved, got %d", len(writer.items))
	}

	first := writer.items[0]
	if first.Name != "Prod One" || first.Price != 19.99 || first.Stock != 12 || first.Category != "Apparel" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if first.ImageURL != "https://example.com/img1.jpg" {
		t.Fatalf("unexpected image url: %s", first.ImageURL)
	}
	if writer.items[1].ImageURL != "" {
		t.Fatalf("expected empty image url, got %s", writer.items[1].ImageURL)
	}
}

func TestCSVImporter_RejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"missing name", "name,price\n,10.00"},
		{"bad price", "name,price\nProd,abc"},
		{"bad inventory", "name,inventory\nProd,lots"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writer := &stubProductWriter{}
			imp := NewCSVImporter(strings.NewReader(tc.csv), writer)
			if _, err := imp.Run(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if len(writer.items) != 0 {
				t.Fatalf("no products should be saved, got %d", len(writer.items))
			}
		})
	}
}
