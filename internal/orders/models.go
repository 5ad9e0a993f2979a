package orders

import "time"

type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Status           Status        `json:"status"`
	SubtotalCents    int64         `json:"subtotal_cents"`
	ShippingFeeCents int64         `json:"shipping_fee_cents"`
	TotalCents       int64         `json:"total_cents"`
	ShippingAddress  string        `json:"shipping_address"`
	ShippingCity     string        `json:"shipping_city"`
	ShippingPhone    string        `json:"shipping_phone"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	Note             string        `json:"note"`
	Items            []Item        `json:"items"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Item is an immutable snapshot; product renames or price changes
// after checkout never alter it.
type Item struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int    `json:"quantity"`
}

type CheckoutInput struct {
	ShippingAddress string
	ShippingCity    string
	ShippingPhone   string
	PaymentMethod   PaymentMethod
	Note            string
}
