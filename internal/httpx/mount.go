package httpx

import (
	"github.com/go-chi/chi/v5"

	"github.com/minhvt/aquastore/internal/auth"
)

// Handlers bundles the API surface; Mount wires it onto a router with
// the auth middleware applied per group.
type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Orders    *OrdersHandler
	Reviews   *ReviewsHandler
	JWTSecret []byte
}

func (h Handlers) Mount(r *chi.Mux) {
	// public
	r.Post("/auth/register", h.Auth.register)
	r.Post("/auth/login", h.Auth.login)
	r.Get("/products", h.Catalog.list)
	r.Get("/products/{productID}", h.Catalog.get)
	r.Get("/products/{productID}/reviews", h.Reviews.listByProduct)

	// signed-in customers
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret))

		r.Get("/cart", h.Cart.get)
		r.Post("/cart/items", h.Cart.addItem)
		r.Patch("/cart/items/{itemID}", h.Cart.updateItem)
		r.Delete("/cart/items/{itemID}", h.Cart.removeItem)
		r.Delete("/cart", h.Cart.clear)

		r.Post("/orders", h.Orders.create)
		r.Get("/orders", h.Orders.list)
		r.Get("/orders/{orderID}", h.Orders.get)
		r.Get("/orders/{orderID}/status", h.Orders.getStatus)
		r.Post("/orders/{orderID}/cancel", h.Orders.cancel)

		r.Post("/products/{productID}/reviews", h.Reviews.create)
	})

	// admin
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret), auth.RequireAdmin)

		r.Post("/admin/products", h.Catalog.create)
		r.Post("/admin/products/{productID}/restock", h.Catalog.restock)
		r.Patch("/admin/products/{productID}/active", h.Catalog.setActive)
		r.Get("/admin/products/{productID}/audit", h.Catalog.audit)
		r.Get("/admin/products/{productID}/logs", h.Catalog.logs)
		r.Patch("/admin/orders/{orderID}/status", h.Orders.updateStatus)
	})
}
