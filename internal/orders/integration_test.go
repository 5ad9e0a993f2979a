package orders_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvt/aquastore/internal/cart"
	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/postgres"
	"github.com/minhvt/aquastore/internal/reviews"
	"github.com/minhvt/aquastore/internal/shop"
	"github.com/minhvt/aquastore/internal/users"
)

// These tests run against a real database; set TEST_POSTGRES_DSN to
// enable them. Every test seeds its own rows, so reruns are safe.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pool, err := postgres.Connect(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(pool))
	t.Cleanup(pool.Close)
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) users.User {
	t.Helper()
	u, err := (&users.Repo{DB: pool}).Create(context.Background(),
		uuid.NewString()+"@example.com", "Test Customer", "hunter22")
	require.NoError(t, err)
	return u
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, stock int) catalog.Product {
	t.Helper()
	p, err := (&catalog.Repo{DB: pool}).Create(context.Background(), catalog.NewProduct{
		Name:       "Neon tetra " + uuid.NewString()[:8],
		Species:    "Paracheirodon innesi",
		PriceCents: 12000,
		Stock:      stock,
	})
	require.NoError(t, err)
	return p
}

func productState(t *testing.T, pool *pgxpool.Pool, id string) catalog.Product {
	t.Helper()
	p, err := (&catalog.Repo{DB: pool}).Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func requireBalanced(t *testing.T, pool *pgxpool.Pool, productID string) {
	t.Helper()
	a, err := (&inventory.Repo{DB: pool}).CheckConservation(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, a.Balanced(), "added %d but counted %d", a.Added, a.Counted)
}

func checkoutInput() orders.CheckoutInput {
	return orders.CheckoutInput{
		ShippingAddress: "12 Reef St",
		ShippingCity:    "Da Nang",
		ShippingPhone:   "0905123456",
		PaymentMethod:   orders.PaymentCOD,
	}
}

// Walks a unit batch through reserve, sell and return, checking the
// counters and the audit trail after every step.
func TestOrderLifecycle_CountersStayBalanced(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	u := seedUser(t, pool)
	prod := seedProduct(t, pool, 10)
	carts := &cart.Repo{DB: pool}
	repo := &orders.Repo{DB: pool, Pricing: orders.Pricing{FreeShippingThresholdCents: 500000, ShippingFeeCents: 30000}}

	c, err := carts.AddItem(ctx, u.ID, prod.ID, 3)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	p := productState(t, pool, prod.ID)
	assert.Equal(t, 7, p.Available)
	assert.Equal(t, 3, p.Reserved)
	assert.Equal(t, 0, p.Sold)
	requireBalanced(t, pool, prod.ID)

	o, err := repo.CreateFromCart(ctx, u.ID, checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, int64(36000), o.SubtotalCents)
	assert.Equal(t, o.SubtotalCents+o.ShippingFeeCents, o.TotalCents)

	p = productState(t, pool, prod.ID)
	assert.Equal(t, 7, p.Available)
	assert.Equal(t, 0, p.Reserved)
	assert.Equal(t, 3, p.Sold)
	requireBalanced(t, pool, prod.ID)

	c, err = carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	o, err = repo.Cancel(ctx, o.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, o.Status)

	p = productState(t, pool, prod.ID)
	assert.Equal(t, 10, p.Available)
	assert.Equal(t, 0, p.Reserved)
	assert.Equal(t, 0, p.Sold)
	requireBalanced(t, pool, prod.ID)

	logs, err := (&inventory.Repo{DB: pool}).ListByProduct(ctx, prod.ID, 100)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	// newest first
	assert.Equal(t, []string{
		inventory.ActionReturn, inventory.ActionSell,
		inventory.ActionReserve, inventory.ActionAdd,
	}, actions)
}

func TestAddThenRemove_ReleasesReservation(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	u := seedUser(t, pool)
	prod := seedProduct(t, pool, 10)
	carts := &cart.Repo{DB: pool}

	c, err := carts.AddItem(ctx, u.ID, prod.ID, 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	c, err = carts.RemoveItem(ctx, u.ID, c.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	p := productState(t, pool, prod.ID)
	assert.Equal(t, 10, p.Available)
	assert.Equal(t, 0, p.Reserved)
	requireBalanced(t, pool, prod.ID)
}

func TestAddItem_InsufficientStockLeavesStateUntouched(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	u := seedUser(t, pool)
	prod := seedProduct(t, pool, 4)
	carts := &cart.Repo{DB: pool}

	_, err := carts.AddItem(ctx, u.ID, prod.ID, 5)
	require.ErrorIs(t, err, shop.ErrInsufficientStock)

	p := productState(t, pool, prod.ID)
	assert.Equal(t, 4, p.Available)
	assert.Equal(t, 0, p.Reserved)

	c, err := carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	requireBalanced(t, pool, prod.ID)
}

// Ten buyers race for five units; the row lock must admit exactly five
// and the counters must still add up afterwards.
func TestConcurrentAdds_NeverOversell(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	prod := seedProduct(t, pool, 5)
	carts := &cart.Repo{DB: pool}

	buyers := make([]users.User, 10)
	for i := range buyers {
		buyers[i] = seedUser(t, pool)
	}

	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, u := range buyers {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = carts.AddItem(ctx, userID, prod.ID, 1)
		}(i, u.ID)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, shop.ErrInsufficientStock):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, won)
	assert.Equal(t, 5, lost)

	p := productState(t, pool, prod.ID)
	assert.Equal(t, 0, p.Available)
	assert.Equal(t, 5, p.Reserved)
	requireBalanced(t, pool, prod.ID)
}

func TestReview_RequiresDeliveredPurchase(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	buyer := seedUser(t, pool)
	stranger := seedUser(t, pool)
	prod := seedProduct(t, pool, 10)
	carts := &cart.Repo{DB: pool}
	repo := &orders.Repo{DB: pool, Pricing: orders.Pricing{FreeShippingThresholdCents: 500000, ShippingFeeCents: 30000}}
	revs := &reviews.Repo{DB: pool}

	_, err := carts.AddItem(ctx, buyer.ID, prod.ID, 1)
	require.NoError(t, err)
	o, err := repo.CreateFromCart(ctx, buyer.ID, checkoutInput())
	require.NoError(t, err)

	// not delivered yet
	_, err = revs.Create(ctx, buyer.ID, prod.ID, 5, "gorgeous colors")
	require.ErrorIs(t, err, shop.ErrForbidden)

	_, err = repo.UpdateStatus(ctx, o.ID, orders.StatusDelivered)
	require.NoError(t, err)

	rev, err := revs.Create(ctx, buyer.ID, prod.ID, 4, "gorgeous colors")
	require.NoError(t, err)
	assert.Equal(t, 4, rev.Rating)

	p := productState(t, pool, prod.ID)
	assert.Equal(t, 1, p.ReviewCount)
	assert.InDelta(t, 4.0, p.AvgRating, 0.001)

	_, err = revs.Create(ctx, buyer.ID, prod.ID, 5, "second take")
	require.ErrorIs(t, err, shop.ErrConflict)

	_, err = revs.Create(ctx, stranger.ID, prod.ID, 5, fmt.Sprintf("never bought %s", prod.Name))
	require.ErrorIs(t, err, shop.ErrForbidden)
}
