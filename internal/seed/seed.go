package seed

import (
	"context"

	"github.com/pkg/errors"

	"storefront/internal/sandbox"
)

// Apply inserts a small demo catalog for manual testing. Products are keyed
// by name, so re-running against a seeded database is a no-op.
func Apply(ctx context.Context, store *sandbox.Store) (int, error) {
	products := []sandbox.Product{
		{
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			PriceCents:  1999,
			Inventory:   120,
			Category:    "Apparel",
			ImageURL:    "https://cdn.example.com/demo/tshirt.jpg",
		},
		{
			Name:        "Demo Hoodie",
			Description: "Heavyweight fleece hoodie",
			PriceCents:  5499,
			Inventory:   60,
			Category:    "Apparel",
			ImageURL:    "https://cdn.example.com/demo/hoodie.jpg",
		},
		{
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			PriceCents:  1299,
			Inventory:   200,
			Category:    "Homeware",
			ImageURL:    "https://cdn.example.com/demo/mug.jpg",
		},
		{
			Name:        "Demo Poster",
			Description: "A2 matte print",
			PriceCents:  899,
			Inventory:   45,
			Category:    "Homeware",
		},
	}

	existing, err := store.ListProducts(ctx, 0)
	if err != nil {
		return 0, errors.Wrap(err, "list existing products")
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	inserted := 0
	for _, p := range products {
		if seen[p.Name] {
			continue
		}
		if _, err := store.CreateProduct(ctx, p); err != nil {
			return inserted, errors.Wrapf(err, "seed product %q", p.Name)
		}
		inserted++
	}
	return inserted, nil
}
