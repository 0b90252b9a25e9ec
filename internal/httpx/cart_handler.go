package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empowher/marketplace/internal/market"
)

type CartHandler struct {
	Service *market.Service
	Log     *slog.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Post("/", h.add)
		r.Get("/my", h.list)
		r.Put("/{id}", h.setQuantity)
		r.Delete("/{id}", h.remove)
	})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" || body.Quantity < 1 {
		fail(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	it, err := h.Service.AddToCart(r.Context(), actorFrom(r), body.ProductID, body.Quantity)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusCreated, it, "")
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Cart(r.Context(), actorFrom(r))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, items, "")
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	it, err := h.Service.SetCartQuantity(r.Context(), actorFrom(r), chi.URLParam(r, "id"), body.Quantity)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, it, "")
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveCartItem(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, nil, "")
}
