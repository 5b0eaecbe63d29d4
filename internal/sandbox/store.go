// Package sandbox is a self-contained stand-in for the hosted commerce
// platform, backed by Postgres. It speaks the same wire dialect the real
// platform does, so the storefront can be pointed at it for local
// development and end-to-end testing without store credentials.
package sandbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// Store persists sandbox carts and catalog rows. Money is held in cents and
// converted to the wire's float dollars at the edge.
type Store struct {
	pool    *pgxpool.Pool
	log     *logrus.Logger
	taxRate float64
}

func NewStore(pool *pgxpool.Pool, log *logrus.Logger, taxRate float64) *Store {
	return &Store{pool: pool, log: log, taxRate: taxRate}
}

type Cart struct {
	ID        string
	Currency  string
	BaseCents int64
	Lines     []Line
}

// IncTaxCents applies the sandbox tax rate to the cart total.
func (c *Cart) IncTaxCents(rate float64) int64 {
	return c.BaseCents + int64(float64(c.BaseCents)*rate)
}

type Line struct {
	ID             string
	ProductID      int64
	VariantID      int64
	Name           string
	ImageURL       string
	Quantity       int
	UnitPriceCents int64
}

type NewLine struct {
	ProductID int64
	VariantID int64
	Quantity  int
}

type Product struct {
	ID          int64
	Name        string
	Description string
	PriceCents  int64
	Inventory   int
	ImageURL    string
	CategoryID  int64
	Category    string
}

type Category struct {
	ID   int64
	Name string
}

// ErrConflict reports input the platform would answer 422 for, such as an
// unknown product on a cart line.
var ErrConflict = errors.New("unprocessable cart input")

// CreateCart opens a new cart seeded with the given lines. At least one line
// is required; the real platform refuses to create an empty cart.
func (s *Store) CreateCart(ctx context.Context, currency string, lines []NewLine) (*Cart, error) {
	if len(lines) == 0 {
		return nil, errors.Wrap(ErrConflict, "cart requires at least one line item")
	}
	if currency == "" {
		currency = "USD"
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var cartID string
	if err := tx.QueryRow(ctx, `
INSERT INTO carts (currency)
VALUES ($1)
RETURNING id::text
`, currency).Scan(&cartID); err != nil {
		return nil, err
	}

	if err := s.insertLines(ctx, tx, cartID, lines); err != nil {
		return nil, err
	}
	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"cartId": cartID, "lines": len(lines)}).Info("sandbox cart created")
	return s.GetCart(ctx, cartID)
}

// GetCart loads a cart with its lines; domain.ErrNotFound when absent.
func (s *Store) GetCart(ctx context.Context, cartID string) (*Cart, error) {
	var cart Cart
	err := s.pool.QueryRow(ctx, `
SELECT id::text, currency, base_amount_cents
FROM carts
WHERE id = $1
`, cartID).Scan(&cart.ID, &cart.Currency, &cart.BaseCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
SELECT l.id::text, l.product_id, l.variant_id, p.name, COALESCE(p.image_url, ''), l.quantity, l.unit_price_cents
FROM cart_lines l
JOIN products p ON p.id = l.product_id
WHERE l.cart_id = $1
ORDER BY l.created_at ASC
`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.ProductID, &line.VariantID, &line.Name, &line.ImageURL, &line.Quantity, &line.UnitPriceCents); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddLines appends lines to an existing cart, merging quantities into any
// line that already holds the same product and variant.
func (s *Store) AddLines(ctx context.Context, cartID string, lines []NewLine) (*Cart, error) {
	if len(lines) == 0 {
		return nil, errors.Wrap(ErrConflict, "no line items given")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cartID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if err := s.insertLines(ctx, tx, cartID, lines); err != nil {
		return nil, err
	}
	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, cartID)
}

// UpdateLine sets one line's quantity. The caller routes zero quantities to
// DeleteLine; only positive quantities reach here.
func (s *Store) UpdateLine(ctx context.Context, cartID, lineID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, errors.Wrap(ErrConflict, "quantity must be positive")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`, quantity, lineID, cartID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, cartID)
}

// DeleteLine removes one line. Deleting the last line deletes the cart
// itself, reported as a nil cart, matching the platform's 204 behavior.
func (s *Store) DeleteLine(ctx context.Context, cartID, lineID string) (*Cart, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE id = $1 AND cart_id = $2
`, lineID, cartID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	var remaining int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM cart_lines WHERE cart_id = $1`, cartID).Scan(&remaining); err != nil {
		return nil, err
	}
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		s.log.WithField("cartId", cartID).Info("sandbox cart emptied and deleted")
		return nil, nil
	}

	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, cartID)
}

// DeleteCart removes the whole cart; domain.ErrNotFound when already gone.
func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// insertLines resolves each product's current price and merges the quantity
// into any existing line for the same product and variant.
func (s *Store) insertLines(ctx context.Context, tx pgx.Tx, cartID string, lines []NewLine) error {
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return errors.Wrap(ErrConflict, "line items need a product id and a positive quantity")
		}
		var priceCents int64
		err := tx.QueryRow(ctx, `SELECT price_cents FROM products WHERE id = $1`, l.ProductID).Scan(&priceCents)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrapf(ErrConflict, "unknown product %d", l.ProductID)
			}
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, variant_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, product_id, variant_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
`, cartID, l.ProductID, l.VariantID, l.Quantity, priceCents); err != nil {
			return err
		}
	}
	return nil
}

func updateCartTotal(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET base_amount_cents = COALESCE((
	SELECT SUM(quantity * unit_price_cents)
	FROM cart_lines
	WHERE cart_id = $1
), 0)
WHERE id = $1
`, cartID)
	return err
}
