package cart

import "github.com/minhvt/aquastore/internal/inventory"

// Shift is the counter movement a quantity change requires: RESERVE
// moves units from available to reserved, RELEASE the other way.
type Shift struct {
	Action string
	Qty    int
}

// reserveShift computes the movement for going from oldQty to newQty.
// ok is false when the quantities are equal and nothing moves.
func reserveShift(oldQty, newQty int) (Shift, bool) {
	switch {
	case newQty > oldQty:
		return Shift{Action: inventory.ActionReserve, Qty: newQty - oldQty}, true
	case newQty < oldQty:
		return Shift{Action: inventory.ActionRelease, Qty: oldQty - newQty}, true
	default:
		return Shift{}, false
	}
}
