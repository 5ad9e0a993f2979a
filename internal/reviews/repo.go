// Package reviews gates product reviews on verified purchase and keeps
// the denormalized rating aggregates on the product row in sync.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/shop"
)

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// Create inserts one review per (user, product), allowed only after a
// DELIVERED order containing the product, then recomputes the product
// aggregates from scratch in the same transaction.
func (r *Repo) Create(ctx context.Context, userID, productID string, rating int, comment string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", shop.ErrBadRequest)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Review{}, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists)
	if err != nil {
		return Review{}, err
	}
	if !exists {
		return Review{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, productID)
	}

	var purchased bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)`, userID, productID, orders.StatusDelivered).Scan(&purchased)
	if err != nil {
		return Review{}, err
	}
	if !purchased {
		return Review{}, fmt.Errorf("%w: only delivered purchases can be reviewed", shop.ErrForbidden)
	}

	rev := Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews(id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rev.ID, rev.UserID, rev.ProductID, rev.Rating, rev.Comment).Scan(&rev.CreatedAt)
	if isUniqueViolation(err) {
		return Review{}, fmt.Errorf("%w: product already reviewed", shop.ErrConflict)
	}
	if err != nil {
		return Review{}, err
	}

	// full re-aggregation, not an incremental update
	if _, err := tx.Exec(ctx, `
		UPDATE products SET
			avg_rating   = (SELECT AVG(rating)::float8 FROM reviews WHERE product_id = $1),
			review_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1),
			updated_at   = now()
		WHERE id = $1`, productID); err != nil {
		return Review{}, err
	}

	return rev, tx.Commit(ctx)
}

func (r *Repo) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, product_id, rating, comment, created_at
		FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.ProductID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
