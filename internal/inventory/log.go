// Package inventory records every stock movement in an append-only
// audit trail and can cross-check the product counters against it.
package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Actions recorded in the audit trail. ADD is the only action that
// introduces new units; the rest shift units between buckets.
const (
	ActionAdd     = "ADD"
	ActionReserve = "RESERVE"
	ActionRelease = "RELEASE"
	ActionSell    = "SELL"
	ActionReturn  = "RETURN"
)

type Log struct {
	ID        int64     `json:"id"`
	ProductID string    `json:"product_id"`
	Action    string    `json:"action"`
	Quantity  int       `json:"quantity"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Append inserts one audit row inside the caller's transaction, so the
// log commits or rolls back together with the counter change it records.
func Append(ctx context.Context, tx pgx.Tx, productID, action string, qty int, note string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_logs(product_id, action, quantity, note)
		VALUES ($1, $2, $3, $4)`,
		productID, action, qty, note)
	return err
}
