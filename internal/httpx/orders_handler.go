package httpx

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/redisx"
)

type OrdersHandler struct {
	Service *market.Service
	Redis   *redis.Client // optional status cache
	Log     *slog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/my-orders", h.myOrders)
		r.Get("/seller-orders", h.sellerOrders)
		r.Get("/{id}", h.get)
		r.Get("/{id}/status", h.status)
		r.Put("/{id}/status", h.updateStatus)
		r.Post("/{id}/payment", h.payment)
	})
	// The seller dashboard uses its own prefix for the same operations.
	r.Route("/seller/orders", func(r chi.Router) {
		r.Get("/", h.sellerOrders)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in market.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.Service.Checkout(r.Context(), actorFrom(r), in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(r, o)
	ok(w, http.StatusCreated, o, fmt.Sprintf("Order placed successfully! Order ID: #%s", o.OrderRef))
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.MyOrders(r.Context(), actorFrom(r))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, orders, "")
}

func (h *OrdersHandler) sellerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.SellerOrders(r.Context(), actorFrom(r))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	n := len(orders)
	writeJSON(w, http.StatusOK, response{Success: true, Data: orders, Count: &n})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetOrder(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, o, "")
}

// status serves the lightweight status lookup. The caller's entitlement to
// the order is checked first; only then may the cached value short-circuit
// the answer. Cache state must never widen who can read an order.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	o, err := h.Service.GetOrder(r.Context(), actorFrom(r), orderID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	target, err := market.ParseStatus(body.Status)
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.Service.UpdateOrderStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), market.StatusChange{
		Target:         target,
		TrackingNumber: body.TrackingNumber,
	})
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(r, o)
	msg := "Order status updated successfully"
	if o.Status == market.StatusConfirmed {
		msg = "Order confirmed! Stock updated."
	}
	ok(w, http.StatusOK, o, msg)
}

func (h *OrdersHandler) payment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentResult market.PaymentResult `json:"payment_result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.Service.SubmitPayment(r.Context(), actorFrom(r), chi.URLParam(r, "id"), body.PaymentResult)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(r, o)
	ok(w, http.StatusOK, o, "")
}

func (h *OrdersHandler) cacheStatus(r *http.Request, o *market.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	val := fmt.Sprintf(`{"status":%q}`, o.Status)
	_ = h.Redis.Set(r.Context(), key, val, redisx.TTLStatusCache).Err()
}
