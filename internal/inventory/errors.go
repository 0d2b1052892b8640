package inventory

import (
	"errors"

	"github.com/ariefcatur/coffee-inventory/internal/orders"
)

// Sentinel errors returned by Service. Messages are safe to show to API clients;
// anything not wrapping one of these is an internal fault.
var (
	ErrValidation          = errors.New("invalid request")
	ErrOrderNotFound       = orders.ErrNotFound
	ErrBatchNotFound       = errors.New("batch not found")
	ErrAlreadyReserved     = errors.New("batch already reserved or picked")
	ErrNotReservedForOrder = errors.New("batch is not reserved for this order")
	ErrOrderNotInTransit   = errors.New("order is not in transit")
)

// errStaleBatch reports a guarded status update that matched no row.
var errStaleBatch = errors.New("batch changed concurrently")
