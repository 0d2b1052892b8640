package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/coffee-inventory/internal/inventory"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InventoryService interface {
	Reserve(ctx context.Context, in inventory.ReserveInput) (inventory.Batch, error)
	Exit(ctx context.Context, in inventory.ExitInput) (inventory.Batch, error)
	Batch(ctx context.Context, kind inventory.Kind, batchNumber string) (inventory.Batch, error)
	ListBatches(ctx context.Context, kind inventory.Kind, status inventory.Status) ([]inventory.Batch, error)
	Movements(ctx context.Context, kind inventory.Kind, batchNumber string) ([]inventory.Movement, error)
}

type InventoryHandler struct {
	Service InventoryService
	Log     *zap.Logger
	Timeout time.Duration
}

// ReserveReq is shared by cherries and green beans. Quantity and price accept
// JSON numbers or numeric strings.
type ReserveReq struct {
	OrderID     int64            `json:"order_id" validate:"required,gt=0"`
	BatchNumber string           `json:"batchNumber" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	CreatedBy   string           `json:"createdBy" validate:"required"`
	UpdatedBy   string           `json:"updatedBy" validate:"required"`
}

// ExitReq covers the cherry "exit" and green bean "ship" calls. The transport
// fields are optional.
type ExitReq struct {
	OrderID       int64            `json:"order_id" validate:"required,gt=0"`
	BatchNumber   string           `json:"batchNumber" validate:"required"`
	CreatedBy     string           `json:"createdBy" validate:"required"`
	UpdatedBy     string           `json:"updatedBy" validate:"required"`
	Desa          string           `json:"desa"`
	Kecamatan     string           `json:"kecamatan"`
	Kabupaten     string           `json:"kabupaten"`
	Cost          *decimal.Decimal `json:"cost"`
	PaidTo        string           `json:"paidTo"`
	FarmerID      string           `json:"farmerID"`
	PaymentMethod string           `json:"paymentMethod"`
	BankAccount   string           `json:"bankAccount"`
	BankName      string           `json:"bankName"`
}

type batchResp struct {
	Message string          `json:"message"`
	Batch   inventory.Batch `json:"batch"`
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Route("/inventory/{kind}", func(r chi.Router) {
		r.Get("/", h.listBatches)
		r.Post("/reserve", h.reserve)
		r.Post("/exit", h.exit)
		r.Post("/ship", h.exit)
		r.Get("/{batchNumber}", h.getBatch)
		r.Get("/{batchNumber}/movements", h.listMovements)
	})
}

func (h *InventoryHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	kind, err := inventory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req ReserveReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	in := inventory.ReserveInput{
		Kind:        kind,
		OrderID:     req.OrderID,
		BatchNumber: req.BatchNumber,
		Quantity:    req.Quantity,
		CreatedBy:   req.CreatedBy,
		UpdatedBy:   req.UpdatedBy,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	b, err := h.Service.Reserve(ctx, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResp{Message: kind.ProductLabel() + " batch reserved successfully", Batch: b})
}

func (h *InventoryHandler) exit(w http.ResponseWriter, r *http.Request) {
	kind, err := inventory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req ExitReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	b, err := h.Service.Exit(ctx, inventory.ExitInput{
		Kind:        kind,
		OrderID:     req.OrderID,
		BatchNumber: req.BatchNumber,
		CreatedBy:   req.CreatedBy,
		UpdatedBy:   req.UpdatedBy,
		Transport: &inventory.TransportInput{
			Desa:          req.Desa,
			Kecamatan:     req.Kecamatan,
			Kabupaten:     req.Kabupaten,
			Cost:          req.Cost,
			PaidTo:        req.PaidTo,
			FarmerID:      req.FarmerID,
			PaymentMethod: req.PaymentMethod,
			BankAccount:   req.BankAccount,
			BankName:      req.BankName,
		},
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	verb := "exited"
	if kind == inventory.KindGreenBeans {
		verb = "shipped"
	}
	writeJSON(w, http.StatusOK, batchResp{Message: kind.ProductLabel() + " batch " + verb + " successfully", Batch: b})
}

func (h *InventoryHandler) listBatches(w http.ResponseWriter, r *http.Request) {
	kind, err := inventory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	bs, err := h.Service.ListBatches(ctx, kind, inventory.Status(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if bs == nil {
		bs = []inventory.Batch{}
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *InventoryHandler) getBatch(w http.ResponseWriter, r *http.Request) {
	kind, err := inventory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	b, err := h.Service.Batch(ctx, kind, chi.URLParam(r, "batchNumber"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *InventoryHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	kind, err := inventory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	ms, err := h.Service.Movements(ctx, kind, chi.URLParam(r, "batchNumber"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if ms == nil {
		ms = []inventory.Movement{}
	}
	writeJSON(w, http.StatusOK, ms)
}
