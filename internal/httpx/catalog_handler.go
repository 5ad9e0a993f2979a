package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/orders"
)

type CatalogHandler struct {
	Products          ProductStore
	Audit             AuditStore
	InventoryProducer Publisher // shop.inventory.changed
	Service           string
}

type restockReq struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type setActiveReq struct {
	Active bool `json:"active"`
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.PriceCents < 0 || req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if p.Available > 0 {
		publishEvent(h.InventoryProducer, h.Service, r.Header.Get("X-Request-Id"),
			orders.EventInventoryChanged, p.ID,
			orders.InventoryChangedPayload{ProductID: p.ID, Action: inventory.ActionAdd, Quantity: p.Available})
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Restock(ctx, chi.URLParam(r, "productID"), req.Quantity, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	publishEvent(h.InventoryProducer, h.Service, r.Header.Get("X-Request-Id"),
		orders.EventInventoryChanged, p.ID,
		orders.InventoryChangedPayload{ProductID: p.ID, Action: inventory.ActionAdd, Quantity: req.Quantity})
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "productID")
	if err := h.Products.SetActive(ctx, id, req.Active); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Products.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) audit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Audit.CheckConservation(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": a, "balanced": a.Balanced()})
}

func (h *CatalogHandler) logs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ls, err := h.Audit.ListByProduct(ctx, chi.URLParam(r, "productID"), 100)
	if err != nil {
		writeError(w, err)
		return
	}
	if ls == nil {
		ls = []inventory.Log{}
	}
	writeJSON(w, http.StatusOK, ls)
}
