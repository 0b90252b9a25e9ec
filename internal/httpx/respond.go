package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/empowher/marketplace/internal/market"
)

// response is the envelope every endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, code int, data any, msg string) {
	writeJSON(w, code, response{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, response{Success: false, Message: msg})
}

// writeErr maps domain errors to status codes. Unexpected errors become an
// opaque 500; the detail only goes to the log.
func writeErr(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		vErr *market.ValidationError
		uErr *market.ProductUnavailableError
		sErr *market.InsufficientStockError
		tErr *market.InvalidTransitionError
	)
	switch {
	case errors.Is(err, market.ErrNotFound):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrForbidden):
		fail(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, market.ErrEmptyOrder):
		fail(w, http.StatusBadRequest, "No order items")
	case errors.Is(err, market.ErrAlreadyReviewed):
		fail(w, http.StatusBadRequest, "Product already reviewed")
	case errors.As(err, &vErr), errors.As(err, &uErr), errors.As(err, &sErr):
		fail(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tErr):
		fail(w, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", "err", err)
		fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
