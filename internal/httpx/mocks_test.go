package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/minhvt/aquastore/internal/auth"
	"github.com/minhvt/aquastore/internal/cart"
	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/reviews"
)

// --- mocks ---

type cartStoreMock struct {
	cart cart.Cart
	err  error
}

func (m *cartStoreMock) Get(ctx context.Context, userID string) (cart.Cart, error) {
	return m.cart, m.err
}
func (m *cartStoreMock) AddItem(ctx context.Context, userID, productID string, qty int) (cart.Cart, error) {
	return m.cart, m.err
}
func (m *cartStoreMock) UpdateItem(ctx context.Context, userID, itemID string, qty int) (cart.Cart, error) {
	return m.cart, m.err
}
func (m *cartStoreMock) RemoveItem(ctx context.Context, userID, itemID string) (cart.Cart, error) {
	return m.cart, m.err
}
func (m *cartStoreMock) Clear(ctx context.Context, userID string) error {
	return m.err
}

type orderStoreMock struct {
	order  orders.Order
	orders []orders.Order
	err    error
}

func (m *orderStoreMock) CreateFromCart(ctx context.Context, userID string, in orders.CheckoutInput) (orders.Order, error) {
	return m.order, m.err
}
func (m *orderStoreMock) Cancel(ctx context.Context, orderID, requesterID string) (orders.Order, error) {
	return m.order, m.err
}
func (m *orderStoreMock) UpdateStatus(ctx context.Context, orderID string, st orders.Status) (orders.Order, error) {
	if m.err != nil {
		return orders.Order{}, m.err
	}
	o := m.order
	o.Status = st
	return o, nil
}
func (m *orderStoreMock) Get(ctx context.Context, orderID string) (orders.Order, error) {
	return m.order, m.err
}
func (m *orderStoreMock) ListByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	return m.orders, m.err
}

type reviewStoreMock struct {
	review reviews.Review
	list   []reviews.Review
	err    error
}

func (m *reviewStoreMock) Create(ctx context.Context, userID, productID string, rating int, comment string) (reviews.Review, error) {
	return m.review, m.err
}
func (m *reviewStoreMock) ListByProduct(ctx context.Context, productID string) ([]reviews.Review, error) {
	return m.list, m.err
}

type productStoreMock struct {
	product catalog.Product
	list    []catalog.Product
	err     error
}

func (m *productStoreMock) Get(ctx context.Context, id string) (catalog.Product, error) {
	return m.product, m.err
}
func (m *productStoreMock) List(ctx context.Context) ([]catalog.Product, error) {
	return m.list, m.err
}
func (m *productStoreMock) Create(ctx context.Context, in catalog.NewProduct) (catalog.Product, error) {
	return m.product, m.err
}
func (m *productStoreMock) Restock(ctx context.Context, id string, qty int, note string) (catalog.Product, error) {
	return m.product, m.err
}
func (m *productStoreMock) SetActive(ctx context.Context, id string, active bool) error {
	return m.err
}

type auditStoreMock struct {
	audit inventory.Audit
	logs  []inventory.Log
	err   error
}

func (m *auditStoreMock) CheckConservation(ctx context.Context, productID string) (inventory.Audit, error) {
	return m.audit, m.err
}
func (m *auditStoreMock) ListByProduct(ctx context.Context, productID string, limit int) ([]inventory.Log, error) {
	return m.logs, m.err
}

// publisherMock records every envelope handed to Publish.
type publisherMock struct {
	envelopes [][]byte
}

func (p *publisherMock) Publish(key, value []byte, headers ...kafkago.Header) {
	p.envelopes = append(p.envelopes, value)
}

func (p *publisherMock) eventTypes(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, len(p.envelopes))
	for _, raw := range p.envelopes {
		var env orders.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		out = append(out, env.EventType)
	}
	return out
}

// --- helpers ---

func withUser(r *http.Request, userID string, admin bool) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), auth.Claims{UserID: userID, Admin: admin}))
}

func withParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func do(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}
