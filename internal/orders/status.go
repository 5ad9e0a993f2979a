package orders

import (
	"fmt"
	"strings"

	"github.com/minhvt/aquastore/internal/shop"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPreparing Status = "PREPARING"
	StatusShipping  Status = "SHIPPING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

var statuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusShipping:  true,
	StatusDelivered: true,
	StatusCancelled: true,
	StatusRefunded:  true,
}

// ParseStatus validates that s names a known status. Administrative
// status updates check the value only, not transition legality: any
// known status may overwrite any other.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !statuses[st] {
		return "", fmt.Errorf("%w: %q", shop.ErrInvalidStatus, s)
	}
	return st, nil
}

// Cancellable reports whether a customer may still cancel: only before
// the order enters preparation.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentEWallet      PaymentMethod = "E_WALLET"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case PaymentCOD, PaymentBankTransfer, PaymentEWallet:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", shop.ErrBadRequest, s)
}
