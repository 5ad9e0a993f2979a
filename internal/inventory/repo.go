package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvt/aquastore/internal/shop"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListByProduct(ctx context.Context, productID string, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, action, quantity, note, created_at
		FROM inventory_logs
		WHERE product_id = $1
		ORDER BY id DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Action, &l.Quantity, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Audit is the result of checking a product's counters against its log.
type Audit struct {
	ProductID string `json:"product_id"`
	Added     int    `json:"added"`     // sum of ADD quantities
	Counted   int    `json:"counted"`   // available + reserved + sold
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
	Sold      int    `json:"sold"`
}

// Balanced reports whether every unit ever added is still accounted
// for in exactly one bucket.
func (a Audit) Balanced() bool { return a.Added == a.Counted }

// CheckConservation recomputes the expected unit total from the audit
// trail and compares it with the live counters. Every non-ADD action
// moves units between buckets, so the counters must sum to the units
// ever added.
func (r *Repo) CheckConservation(ctx context.Context, productID string) (Audit, error) {
	a := Audit{ProductID: productID}
	err := r.DB.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(quantity) FROM inventory_logs WHERE product_id = p.id AND action = 'ADD'), 0),
			p.available, p.reserved, p.sold
		FROM products p
		WHERE p.id = $1`, productID).
		Scan(&a.Added, &a.Available, &a.Reserved, &a.Sold)
	if errors.Is(err, pgx.ErrNoRows) {
		return Audit{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, productID)
	}
	if err != nil {
		return Audit{}, err
	}
	a.Counted = a.Available + a.Reserved + a.Sold
	return a, nil
}
