package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/shop"
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, species, description, price_cents,
	available, reserved, sold, active, avg_rating, review_count,
	created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Species, &p.Description, &p.PriceCents,
		&p.Available, &p.Reserved, &p.Sold, &p.Active, &p.AvgRating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, id)
	}
	return p, err
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product; the opening stock is logged as an ADD so
// the audit trail accounts for every unit from day one.
func (r *Repo) Create(ctx context.Context, in NewProduct) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO products(id, name, species, description, price_cents, available)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, in.Name, in.Species, in.Description, in.PriceCents, in.Stock)
	if err != nil {
		return Product{}, err
	}
	if in.Stock > 0 {
		if err := inventory.Append(ctx, tx, id, inventory.ActionAdd, in.Stock, "initial stock"); err != nil {
			return Product{}, err
		}
	}
	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err != nil {
		return Product{}, err
	}
	return p, tx.Commit(ctx)
}

// Restock increases available stock and logs an ADD.
func (r *Repo) Restock(ctx context.Context, id string, qty int, note string) (Product, error) {
	if qty <= 0 {
		return Product{}, fmt.Errorf("%w: restock quantity must be positive", shop.ErrBadRequest)
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE products SET available = available + $2, updated_at = now()
		WHERE id = $1`, id, qty)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() != 1 {
		return Product{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, id)
	}
	if err := inventory.Append(ctx, tx, id, inventory.ActionAdd, qty, note); err != nil {
		return Product{}, err
	}
	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err != nil {
		return Product{}, err
	}
	return p, tx.Commit(ctx)
}

func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: product %s", shop.ErrNotFound, id)
	}
	return nil
}
