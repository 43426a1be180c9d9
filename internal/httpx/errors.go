package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/food-rescue-orders/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps workflow errors to status codes. Anything unrecognised is a
// 500 and is logged; its text is not echoed to the client.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var stock *orders.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        err.Error(),
			"food_item_id": stock.FoodItemID,
			"requested":    stock.Requested,
			"available":    stock.Available,
		})
	case errors.Is(err, orders.ErrInvalidInput), errors.Is(err, orders.ErrBadSignature):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrInvalidState), errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
