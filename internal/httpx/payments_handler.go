package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/food-rescue-orders/internal/orders"
)

type initiatePaymentReq struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id is required"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	redirect, err := h.Orders.InitiatePayment(ctx, principalFrom(ctx), req.OrderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payment_url": redirect.PaymentURL,
		"payment_id":  redirect.PaymentID,
		"order_id":    req.OrderID,
	})
}

// paymentCallback is the processor's result URL. The fields arrive either as
// a form body or as a query string.
func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"pg_status": "error", "pg_description": "malformed callback"})
		return
	}
	fields := r.PostForm
	if len(fields) == 0 {
		fields = r.URL.Query()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Orders.HandlePaymentCallback(ctx, fields); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.dropStatus(ctx, fields.Get("pg_order_id"))
	writeJSON(w, http.StatusOK, map[string]string{
		"pg_status":      "ok",
		"pg_description": "Payment processed successfully",
	})
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pay, err := h.Orders.GetPayment(ctx, principalFrom(ctx), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

var _ OrderService = (*orders.Service)(nil)
