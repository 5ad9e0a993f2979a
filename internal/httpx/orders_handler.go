package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/redisx"
)

type OrdersHandler struct {
	Store             OrderStore
	PlacedProducer    Publisher // shop.order.placed
	CancelledProducer Publisher // shop.order.cancelled
	StatusProducer    Publisher // shop.order.status
	Redis             *redis.Client
	Service           string
}

type createOrderReq struct {
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingPhone   string `json:"shipping_phone"`
	PaymentMethod   string `json:"payment_method"`
	Note            string `json:"note"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ShippingAddress == "" || req.ShippingCity == "" || req.ShippingPhone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing shipping fields"})
		return
	}
	method, err := orders.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.CreateFromCart(ctx, uid, orders.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPhone:   req.ShippingPhone,
		PaymentMethod:   method,
		Note:            req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o)

	trace := r.Header.Get("X-Request-Id")
	publishEvent(h.PlacedProducer, h.Service, trace, orders.EventOrderPlaced, o.ID,
		orders.OrderPlacedPayload{OrderID: o.ID, UserID: o.UserID, Items: itemQtys(o), TotalCents: o.TotalCents})
	publishEvent(h.StatusProducer, h.Service, trace, orders.EventOrderStatus, o.ID,
		orders.OrderStatusPayload{OrderID: o.ID, UserID: o.UserID, Status: o.Status})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.Cancel(ctx, chi.URLParam(r, "orderID"), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)

	trace := r.Header.Get("X-Request-Id")
	publishEvent(h.CancelledProducer, h.Service, trace, orders.EventOrderCancelled, o.ID,
		orders.OrderCancelledPayload{OrderID: o.ID, UserID: o.UserID, Items: itemQtys(o)})
	publishEvent(h.StatusProducer, h.Service, trace, orders.EventOrderStatus, o.ID,
		orders.OrderStatusPayload{OrderID: o.ID, UserID: o.UserID, Status: o.Status})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	st, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.UpdateStatus(ctx, chi.URLParam(r, "orderID"), st)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	publishEvent(h.StatusProducer, h.Service, r.Header.Get("X-Request-Id"),
		orders.EventOrderStatus, o.ID, orders.OrderStatusPayload{OrderID: o.ID, UserID: o.UserID, Status: o.Status})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	claims, _ := userClaims(r)
	if o.UserID != uid && !claims.Admin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.ListByUser(ctx, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

// getStatus serves the status from Redis when warm, falling back to
// the database and repopulating the cache. The cached body carries the
// owner so the access check also holds on cache hits; entries without
// an owner fall through to the database.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	claims, _ := userClaims(r)
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var cached statusBody
			if json.Unmarshal([]byte(s), &cached) == nil && cached.UserID != "" {
				if cached.UserID != uid && !claims.Admin {
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": cached.Status})
				return
			}
		}
	}

	o, err := h.Store.Get(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if o.UserID != uid && !claims.Admin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Status)})
}

type statusBody struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body, _ := json.Marshal(statusBody{Status: string(o.Status), UserID: o.UserID})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func itemQtys(o orders.Order) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, orders.ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return out
}
