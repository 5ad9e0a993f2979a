package cart

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

// Repo keeps the product counters in lockstep with cart contents.
// Every mutation locks the product row (FOR UPDATE) and runs as one
// transaction, so concurrent requests against the same product
// serialize and either see the whole change or none of it.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := r.DB.QueryRow(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// carts are created lazily on first add
		return Cart{UserID: userID, Items: []Item{}}, nil
	}
	if err != nil {
		return Cart{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, ci.price_cents, ci.quantity, ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.PriceCents, &it.Quantity, &it.CreatedAt); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// AddItem reserves qty units: available -= qty, reserved += qty, the
// cart line is upserted (quantities sum) and a RESERVE row is logged.
func (r *Repo) AddItem(ctx context.Context, userID, productID string, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, fmt.Errorf("%w: quantity must be at least 1", shop.ErrBadRequest)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer tx.Rollback(ctx)

	// cart row first, product row second; the same order every other
	// mutation uses, so concurrent requests cannot deadlock
	cartID, err := getOrCreateCart(ctx, tx, userID)
	if err != nil {
		return Cart{}, err
	}

	var (
		priceCents int64
		available  int
		active     bool
	)
	err = tx.QueryRow(ctx, `SELECT price_cents, available, active FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&priceCents, &available, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, productID)
	}
	if err != nil {
		return Cart{}, err
	}
	if !active {
		return Cart{}, fmt.Errorf("%w: product %s", shop.ErrNotFound, productID)
	}
	if available < qty {
		return Cart{}, fmt.Errorf("%w: requested %d, available %d", shop.ErrInsufficientStock, qty, available)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET available = available - $2, reserved = reserved + $2, updated_at = now()
		WHERE id = $1`, productID, qty); err != nil {
		return Cart{}, err
	}

	// price is snapshotted on first add and untouched on conflict
	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, quantity, price_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.NewString(), cartID, productID, qty, priceCents); err != nil {
		return Cart{}, err
	}

	if err := inventory.Append(ctx, tx, productID, inventory.ActionReserve, qty, "added to cart"); err != nil {
		return Cart{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id=$1`, cartID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return r.Get(ctx, userID)
}

// UpdateItem sets a line to newQty. Growing the line reserves the
// difference, shrinking it releases; newQty 0 removes the line.
func (r *Repo) UpdateItem(ctx context.Context, userID, itemID string, newQty int) (Cart, error) {
	if newQty < 0 {
		return Cart{}, fmt.Errorf("%w: quantity must not be negative", shop.ErrBadRequest)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer tx.Rollback(ctx)

	cartID, err := lockCart(ctx, tx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}
	productID, oldQty, err := lockItem(ctx, tx, cartID, itemID)
	if err != nil {
		return Cart{}, err
	}

	var available int
	if err := tx.QueryRow(ctx, `SELECT available FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&available); err != nil {
		return Cart{}, err
	}

	if newQty == 0 {
		if err := releaseLine(ctx, tx, productID, itemID, oldQty); err != nil {
			return Cart{}, err
		}
	} else if sh, moved := reserveShift(oldQty, newQty); moved {
		if sh.Action == inventory.ActionReserve {
			if available < sh.Qty {
				return Cart{}, fmt.Errorf("%w: requested %d more, available %d", shop.ErrInsufficientStock, sh.Qty, available)
			}
			if _, err := tx.Exec(ctx, `
				UPDATE products SET available = available - $2, reserved = reserved + $2, updated_at = now()
				WHERE id = $1`, productID, sh.Qty); err != nil {
				return Cart{}, err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET available = available + $2, reserved = reserved - $2, updated_at = now()
				WHERE id = $1`, productID, sh.Qty); err != nil {
				return Cart{}, err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE cart_items SET quantity=$2 WHERE id=$1`, itemID, newQty); err != nil {
			return Cart{}, err
		}
		if err := inventory.Append(ctx, tx, productID, sh.Action, sh.Qty, "cart quantity changed"); err != nil {
			return Cart{}, err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id=$1`, cartID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return r.Get(ctx, userID)
}

// RemoveItem releases the line's full reservation and deletes it.
func (r *Repo) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer tx.Rollback(ctx)

	cartID, err := lockCart(ctx, tx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}
	productID, qty, err := lockItem(ctx, tx, cartID, itemID)
	if err != nil {
		return Cart{}, err
	}
	if err := releaseLine(ctx, tx, productID, itemID, qty); err != nil {
		return Cart{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id=$1`, cartID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return r.Get(ctx, userID)
}

// Clear releases every reservation and drains the cart. No-op when the
// cart does not exist or holds nothing.
func (r *Repo) Clear(ctx context.Context, userID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID string
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1 FOR UPDATE`, userID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	// lock products in a stable order to avoid deadlocks between clears
	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM cart_items
		WHERE cart_id = $1 ORDER BY product_id`, cartID)
	if err != nil {
		return err
	}
	type line struct {
		pid string
		qty int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.pid, &l.qty); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET available = available + $2, reserved = reserved - $2, updated_at = now()
			WHERE id = $1`, l.pid, l.qty); err != nil {
			return err
		}
		if err := inventory.Append(ctx, tx, l.pid, inventory.ActionRelease, l.qty, "cart cleared"); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id=$1`, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func getOrCreateCart(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		id = uuid.NewString()
		_, err = tx.Exec(ctx, `INSERT INTO carts(id, user_id) VALUES ($1, $2)`, id, userID)
		return id, err
	}
	return id, err
}

// lockCart locks the user's cart row. Every mutation takes this lock
// before any product lock (cart first, products second), so two
// requests for the same user serialize instead of deadlocking.
func lockCart(ctx context.Context, tx pgx.Tx, userID, itemID string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: cart item %s", shop.ErrNotFound, itemID)
	}
	return id, err
}

// lockItem resolves an item within the already-locked cart.
func lockItem(ctx context.Context, tx pgx.Tx, cartID, itemID string) (productID string, qty int, err error) {
	err = tx.QueryRow(ctx, `
		SELECT product_id, quantity FROM cart_items
		WHERE id = $1 AND cart_id = $2
		FOR UPDATE`, itemID, cartID).Scan(&productID, &qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, fmt.Errorf("%w: cart item %s", shop.ErrNotFound, itemID)
	}
	return productID, qty, err
}

// releaseLine shifts the full reserved quantity back and deletes the row.
func releaseLine(ctx context.Context, tx pgx.Tx, productID, itemID string, qty int) error {
	if _, err := tx.Exec(ctx, `
		UPDATE products SET available = available + $2, reserved = reserved - $2, updated_at = now()
		WHERE id = $1`, productID, qty); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, itemID); err != nil {
		return err
	}
	return inventory.Append(ctx, tx, productID, inventory.ActionRelease, qty, "removed from cart")
}
