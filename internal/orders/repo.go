package orders

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

type Repo struct {
	DB      *pgxpool.Pool
	Pricing Pricing
}

const orderCols = `id, user_id, status, subtotal_cents, shipping_fee_cents,
	total_cents, shipping_address, shipping_city, shipping_phone,
	payment_method, note, created_at, updated_at`

// CreateFromCart settles the user's reservations into a durable order:
// subtotal from the snapshotted cart prices, reserved -> sold per item,
// a SELL audit row each, and the cart drained, all in one transaction.
func (r *Repo) CreateFromCart(ctx context.Context, userID string, in CheckoutInput) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	var cartID string
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1 FOR UPDATE`, userID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shop.ErrEmptyCart
	}
	if err != nil {
		return Order{}, err
	}

	// lock product rows alongside the read; stable order avoids deadlocks
	rows, err := tx.Query(ctx, `
		SELECT ci.product_id, p.name, ci.price_cents, ci.quantity, p.active
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p`, cartID)
	if err != nil {
		return Order{}, err
	}
	type line struct {
		productID string
		name      string
		price     int64
		qty       int
		active    bool
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.name, &l.price, &l.qty, &l.active); err != nil {
			rows.Close()
			return Order{}, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	if len(lines) == 0 {
		return Order{}, shop.ErrEmptyCart
	}

	var subtotal int64
	for _, l := range lines {
		if !l.active {
			return Order{}, fmt.Errorf("%w: %s", shop.ErrInactiveProduct, l.name)
		}
		subtotal += l.price * int64(l.qty)
	}
	fee, total := r.Pricing.Totals(subtotal)

	orderID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, subtotal_cents, shipping_fee_cents, total_cents,
			shipping_address, shipping_city, shipping_phone, payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		orderID, userID, StatusPending, subtotal, fee, total,
		in.ShippingAddress, in.ShippingCity, in.ShippingPhone, in.PaymentMethod, in.Note)
	if err != nil {
		return Order{}, err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, product_name, price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), orderID, l.productID, l.name, l.price, l.qty); err != nil {
			return Order{}, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET reserved = reserved - $2, sold = sold + $2, updated_at = now()
			WHERE id = $1`, l.productID, l.qty); err != nil {
			return Order{}, err
		}
		if err := inventory.Append(ctx, tx, l.productID, inventory.ActionSell, l.qty, "order "+orderID); err != nil {
			return Order{}, err
		}
	}

	// drain the cart; the cart row itself stays for reuse
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return r.Get(ctx, orderID)
}

// Cancel reverses settlement: sold -> available per item with RETURN
// audit rows, then marks the order CANCELLED. Only the owner may
// cancel, and only while the order is PENDING or CONFIRMED.
func (r *Repo) Cancel(ctx context.Context, orderID, requesterID string) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	var (
		ownerID string
		status  Status
	)
	err = tx.QueryRow(ctx, `SELECT user_id, status FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&ownerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order %s", shop.ErrNotFound, orderID)
	}
	if err != nil {
		return Order{}, err
	}
	if ownerID != requesterID {
		return Order{}, fmt.Errorf("%w: order %s belongs to another user", shop.ErrForbidden, orderID)
	}
	if !status.Cancellable() {
		return Order{}, fmt.Errorf("%w: cannot cancel order in status %s", shop.ErrInvalidStatus, status)
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_items
		WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return Order{}, err
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
			return Order{}, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET available = available + $2, sold = sold - $2, updated_at = now()
			WHERE id = $1`, l.pid, l.qty); err != nil {
			return Order{}, err
		}
		if err := inventory.Append(ctx, tx, l.pid, inventory.ActionReturn, l.qty, "order "+orderID+" cancelled"); err != nil {
			return Order{}, err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, StatusCancelled); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return r.Get(ctx, orderID)
}

// UpdateStatus overwrites the status unconditionally. The value must
// be a known status, but no transition check is applied: this is an
// administrative override.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, st Status) (Order, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, st)
	if err != nil {
		return Order{}, err
	}
	if ct.RowsAffected() != 1 {
		return Order{}, fmt.Errorf("%w: order %s", shop.ErrNotFound, orderID)
	}
	return r.Get(ctx, orderID)
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order %s", shop.ErrNotFound, orderID)
	}
	if err != nil {
		return Order{}, err
	}
	o.Items, err = r.items(ctx, orderID)
	return o, err
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, price_cents, quantity
		FROM order_items WHERE order_id=$1 ORDER BY product_name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.PriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.SubtotalCents, &o.ShippingFeeCents,
		&o.TotalCents, &o.ShippingAddress, &o.ShippingCity, &o.ShippingPhone,
		&o.PaymentMethod, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
