package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empowher/marketplace/internal/market"
)

type ProductsHandler struct {
	Service *market.Service
	Log     *slog.Logger
}

// RegisterPublic mounts the unauthenticated catalog reads.
func (h *ProductsHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/featured", h.featured)
	r.Get("/products/{id}", h.get)
	r.Get("/products/{id}/reviews", h.reviews)
}

// Register mounts the seller-facing catalog management and the
// authenticated review write.
func (h *ProductsHandler) Register(r chi.Router) {
	r.Post("/products/{id}/reviews", h.review)
	r.Route("/seller/products", func(r chi.Router) {
		r.Get("/", h.sellerList)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	n := len(products)
	writeJSON(w, http.StatusOK, response{Success: true, Data: products, Count: &n})
}

func (h *ProductsHandler) featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.FeaturedProducts(r.Context())
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, products, "")
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, p, "")
}

func (h *ProductsHandler) sellerList(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.SellerProducts(r.Context(), actorFrom(r))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	n := len(products)
	writeJSON(w, http.StatusOK, response{Success: true, Data: products, Count: &n})
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in market.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), actorFrom(r), in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusCreated, p, "Product created successfully")
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var in market.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, p, "Product updated successfully")
}

func (h *ProductsHandler) review(w http.ResponseWriter, r *http.Request) {
	var in market.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Service.AddReview(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusCreated, p, "Review added")
}

func (h *ProductsHandler) reviews(w http.ResponseWriter, r *http.Request) {
	rvs, err := h.Service.ProductReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	n := len(rvs)
	writeJSON(w, http.StatusOK, response{Success: true, Data: rvs, Count: &n})
}

func (h *ProductsHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	ok(w, http.StatusOK, nil, "Product deleted successfully")
}
