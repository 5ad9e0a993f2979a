// Package shop holds the business-rule error taxonomy shared by the
// domain repositories. Handlers map these onto HTTP status codes; any
// error not wrapping one of them is an internal failure.
package shop

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInactiveProduct   = errors.New("product is not available")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrBadRequest        = errors.New("bad request")
)

// BadRequest reports whether err belongs to the 400 family.
func BadRequest(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInactiveProduct) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrBadRequest)
}
