package httpx

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/minhvt/aquastore/internal/cart"
	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/reviews"
	"github.com/minhvt/aquastore/internal/users"
)

// Handlers depend on these small interfaces so tests can substitute
// mocks; the repos satisfy them directly.

type CartStore interface {
	Get(ctx context.Context, userID string) (cart.Cart, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (cart.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, qty int) (cart.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type OrderStore interface {
	CreateFromCart(ctx context.Context, userID string, in orders.CheckoutInput) (orders.Order, error)
	Cancel(ctx context.Context, orderID, requesterID string) (orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, st orders.Status) (orders.Order, error)
	Get(ctx context.Context, orderID string) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
}

type ProductStore interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context) ([]catalog.Product, error)
	Create(ctx context.Context, in catalog.NewProduct) (catalog.Product, error)
	Restock(ctx context.Context, id string, qty int, note string) (catalog.Product, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type ReviewStore interface {
	Create(ctx context.Context, userID, productID string, rating int, comment string) (reviews.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]reviews.Review, error)
}

type UserStore interface {
	Create(ctx context.Context, email, name, password string) (users.User, error)
	Authenticate(ctx context.Context, email, password string) (users.User, error)
}

type AuditStore interface {
	CheckConservation(ctx context.Context, productID string) (inventory.Audit, error)
	ListByProduct(ctx context.Context, productID string, limit int) ([]inventory.Log, error)
}

// Publisher is the producer surface handlers use; nil disables
// publishing (events are fire-and-forget, the database is the truth).
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}
