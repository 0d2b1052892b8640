package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/coffee-inventory/internal/inventory"
	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/ariefcatur/coffee-inventory/internal/redisx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderRepo interface {
	Create(ctx context.Context, in orders.CreateInput) (orders.Order, error)
	Get(ctx context.Context, id int64) (orders.Order, error)
	GetStatus(ctx context.Context, id int64) (orders.Status, error)
	UpdateStatus(ctx context.Context, id int64, status orders.Status, updatedBy string) (orders.Order, error)
}

type StatusCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// OrdersHandler exposes the order endpoints the inventory flow depends on.
// Cache may be nil.
type OrdersHandler struct {
	Repo  OrderRepo
	Cache StatusCache
	Log   *zap.Logger
}

type CreateOrderReq struct {
	CustomerName string `json:"customer_name" validate:"required"`
	Status       string `json:"status"`
	CreatedBy    string `json:"createdBy" validate:"required"`
}

type UpdateStatusReq struct {
	Status    string `json:"status" validate:"required"`
	UpdatedBy string `json:"updatedBy" validate:"required"`
}

type statusResp struct {
	OrderID int64         `json:"order_id"`
	Status  orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid order id", inventory.ErrValidation)
	}
	return id, nil
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	status := orders.StatusPending
	if req.Status != "" {
		st, ok := orders.ParseStatus(req.Status)
		if !ok {
			writeError(w, r, h.Log, fmt.Errorf("%w: status is invalid", inventory.ErrValidation))
			return
		}
		status = st
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.Create(ctx, orders.CreateInput{CustomerName: req.CustomerName, Status: status, CreatedBy: req.CreatedBy})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.Get(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if h.Cache != nil {
		var cached statusResp
		if ok, _ := h.Cache.GetJSON(ctx, key, &cached); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	// 2) fallback DB
	status, err := h.Repo.GetStatus(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	resp := statusResp{OrderID: id, Status: status}
	if h.Cache != nil {
		if err := h.Cache.SetJSON(ctx, key, resp, redisx.TTLStatusCache); err != nil {
			h.Log.Warn("order status cache write failed", zap.Int64("order_id", id), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req UpdateStatusReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	status, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeError(w, r, h.Log, fmt.Errorf("%w: status is required", inventory.ErrValidation))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.UpdateStatus(ctx, id, status, req.UpdatedBy)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if h.Cache != nil {
		if err := h.Cache.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)); err != nil {
			h.Log.Warn("order status cache invalidation failed", zap.Int64("order_id", id), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, o)
}
