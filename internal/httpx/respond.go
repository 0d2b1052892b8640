package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/coffee-inventory/internal/inventory"
	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Error codes returned to clients. This set is closed.
const (
	CodeValidation          = "validation_failed"
	CodeOrderNotFound       = "order_not_found"
	CodeBatchNotFound       = "batch_not_found"
	CodeAlreadyReserved     = "already_reserved"
	CodeNotReservedForOrder = "not_reserved_for_order"
	CodeOrderNotInTransit   = "order_not_in_transit"
	CodeInternal            = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound, CodeOrderNotFound
	case errors.Is(err, inventory.ErrBatchNotFound):
		return http.StatusNotFound, CodeBatchNotFound
	case errors.Is(err, inventory.ErrAlreadyReserved):
		return http.StatusBadRequest, CodeAlreadyReserved
	case errors.Is(err, inventory.ErrNotReservedForOrder):
		return http.StatusBadRequest, CodeNotReservedForOrder
	case errors.Is(err, inventory.ErrOrderNotInTransit):
		return http.StatusBadRequest, CodeOrderNotInTransit
	}
	return http.StatusInternalServerError, CodeInternal
}

// writeError maps err onto the closed code set. Internal errors are logged in
// full and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
