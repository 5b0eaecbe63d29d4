package sandbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

const productColumns = `
p.id, p.name, COALESCE(p.description, ''), p.price_cents, p.inventory, COALESCE(p.image_url, ''), COALESCE(p.category_id, 0), COALESCE(c.name, '')`

// ListProducts returns the catalog, optionally narrowed to one category.
func (s *Store) ListProducts(ctx context.Context, categoryID int64) ([]Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
`
	args := []interface{}{}
	if categoryID > 0 {
		q += `WHERE p.category_id = $1
`
		args = append(args, categoryID)
	}
	q += `ORDER BY p.id ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.ImageURL, &p.CategoryID, &p.Category); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
SELECT `+productColumns+`
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.id = $1
`, id).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.ImageURL, &p.CategoryID, &p.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product, creating its category by name on demand.
func (s *Store) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.Wrap(ErrConflict, "product name required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	categoryID, err := s.resolveCategory(ctx, tx, p.Category, p.CategoryID)
	if err != nil {
		return nil, err
	}

	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO products (name, description, price_cents, inventory, image_url, category_id)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, 0))
RETURNING id
`, p.Name, p.Description, p.PriceCents, p.Inventory, p.ImageURL, categoryID).Scan(&id); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"productId": id, "name": p.Name}).Info("sandbox product created")
	return s.GetProduct(ctx, id)
}

// UpdateProduct replaces a product's fields; domain.ErrNotFound when absent.
func (s *Store) UpdateProduct(ctx context.Context, id int64, p Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.Wrap(ErrConflict, "product name required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	categoryID, err := s.resolveCategory(ctx, tx, p.Category, p.CategoryID)
	if err != nil {
		return nil, err
	}

	cmd, err := tx.Exec(ctx, `
UPDATE products
SET name = $1,
    description = NULLIF($2, ''),
    price_cents = $3,
    inventory = $4,
    image_url = NULLIF($5, ''),
    category_id = NULLIF($6, 0)
WHERE id = $7
`, p.Name, p.Description, p.PriceCents, p.Inventory, p.ImageURL, categoryID, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name
FROM categories
ORDER BY name ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCategory prefers an explicit category id and otherwise upserts the
// category by name, so admin-entered names become filterable categories.
func (s *Store) resolveCategory(ctx context.Context, tx pgx.Tx, name string, id int64) (int64, error) {
	if id > 0 {
		return id, nil
	}
	if name == "" {
		return 0, nil
	}
	var categoryID int64
	err := tx.QueryRow(ctx, `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, name).Scan(&categoryID)
	if err != nil {
		return 0, err
	}
	return categoryID, nil
}
