package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/food-rescue-orders/internal/orders"
	"github.com/ariefcatur/food-rescue-orders/internal/redisx"
)

// OrderService is the settlement workflow as seen by the HTTP layer.
type OrderService interface {
	CreateOrder(ctx context.Context, p orders.Principal, in orders.CreateOrderInput) (*orders.Order, error)
	GetOrder(ctx context.Context, p orders.Principal, orderID string) (*orders.Order, error)
	ListOrders(ctx context.Context, p orders.Principal) ([]orders.Order, error)
	PickupInfo(ctx context.Context, p orders.Principal, orderID string) (*orders.PickupInfo, error)
	UpdateOrderStatus(ctx context.Context, p orders.Principal, orderID string, to orders.Status) (*orders.Order, error)
	VerifyPickup(ctx context.Context, p orders.Principal, code string) (*orders.Order, error)
	CompleteOrder(ctx context.Context, p orders.Principal, orderID string) (*orders.Order, error)

	InitiatePayment(ctx context.Context, p orders.Principal, orderID string) (*orders.PaymentRedirect, error)
	HandlePaymentCallback(ctx context.Context, fields url.Values) error
	GetPayment(ctx context.Context, p orders.Principal, orderID string) (*orders.Payment, error)

	ListFoodItems(ctx context.Context) ([]orders.FoodAvailability, error)
	GetFoodItem(ctx context.Context, id string) (*orders.FoodAvailability, error)
}

// Handler serves the order, payment and catalog routes. Redis is optional;
// without it idempotency keys and the status cache are skipped.
type Handler struct {
	Orders OrderService
	Redis  *redis.Client
	Log    *zap.Logger
}

const HeaderIdempotencyKey = "Idempotency-Key"

type statusReq struct {
	Status orders.Status `json:"status"`
}

type verifyPickupReq struct {
	PickupCode string `json:"pickup_code"`
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/foods", h.listFoods)
	r.Get("/foods/{id}", h.getFood)
	r.Post("/payments/callback", h.paymentCallback)
	r.Get("/payments/callback", h.paymentCallback)

	r.Group(func(r chi.Router) {
		r.Use(RequirePrincipal)

		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Post("/orders/pickup/verify", h.verifyPickup)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getOrderStatus)
		r.Get("/orders/{id}/pickup", h.getPickup)
		r.Put("/orders/{id}/status", h.updateStatus)
		r.Put("/orders/{id}/complete", h.completeOrder)

		r.Post("/payments/initiate", h.initiatePayment)
		r.Get("/payments/{orderID}", h.getPayment)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p := principalFrom(ctx)

	// replay of a create already answered under the same key
	idemKey := r.Header.Get(HeaderIdempotencyKey)
	if idemKey != "" && h.Redis != nil {
		if id, found, err := redisx.IdempotentOrder(ctx, h.Redis, p.ID, idemKey); err != nil {
			h.Log.Warn("idempotency lookup", zap.Error(err))
		} else if found {
			o, err := h.Orders.GetOrder(ctx, p, id)
			if err != nil {
				writeError(w, h.Log, err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Orders.CreateOrder(ctx, p, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if idemKey != "" && h.Redis != nil {
		if err := redisx.RememberOrder(ctx, h.Redis, p.ID, idemKey, o.ID); err != nil {
			h.Log.Warn("idempotency store", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListOrders(ctx, principalFrom(ctx))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, principalFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getOrderStatus is the polling endpoint: served from Redis when cached.
func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	p := principalFrom(ctx)

	if h.Redis != nil {
		if cs, err := redisx.GetStatus(ctx, h.Redis, orderID); err == nil && cs != nil {
			if err := orders.Authorize(p, orders.ActionViewOrder, cachedOwners(orderID, cs)); err != nil {
				writeError(w, h.Log, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": cs.Status, "updated_at": cs.UpdatedAt})
			return
		}
	}

	o, err := h.Orders.GetOrder(ctx, p, orderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]any{"order_id": o.ID, "status": o.Status, "updated_at": o.UpdatedAt})
}

func (h *Handler) getPickup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	info, err := h.Orders.PickupInfo(ctx, principalFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateOrderStatus(ctx, principalFrom(ctx), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.dropStatus(ctx, o.ID)
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.CompleteOrder(ctx, principalFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.dropStatus(ctx, o.ID)
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) verifyPickup(w http.ResponseWriter, r *http.Request) {
	var req verifyPickupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.VerifyPickup(ctx, principalFrom(ctx), req.PickupCode)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.dropStatus(ctx, o.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Order verified and completed",
		"order_id":   o.ID,
		"status":     o.Status,
		"meal_count": o.MealCount(),
	})
}

func (h *Handler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	cs := redisx.CachedStatus{Status: string(o.Status), UpdatedAt: o.UpdatedAt, BuyerID: o.BuyerID, RestaurantIDs: o.RestaurantIDs()}
	if err := redisx.SetStatus(ctx, h.Redis, o.ID, cs); err != nil {
		h.Log.Warn("status cache set", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// cachedOwners rebuilds just enough of an order to authorize a cache hit.
func cachedOwners(orderID string, cs *redisx.CachedStatus) *orders.Order {
	o := &orders.Order{ID: orderID, BuyerID: cs.BuyerID}
	for _, rid := range cs.RestaurantIDs {
		o.Lines = append(o.Lines, orders.OrderLine{RestaurantID: rid})
	}
	return o
}

func (h *Handler) dropStatus(ctx context.Context, orderID string) {
	if h.Redis == nil || orderID == "" {
		return
	}
	if err := redisx.DropStatus(ctx, h.Redis, orderID); err != nil {
		h.Log.Warn("status cache drop", zap.String("order_id", orderID), zap.Error(err))
	}
}
