package inventory

import (
	"context"

	"github.com/ariefcatur/coffee-inventory/internal/orders"
)

// Store is the persistence port used by Service.
type Store interface {
	// WithinTx runs fn in a single transaction, committing only if fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// GetBatch returns the live row for batchNumber, or the latest exited one.
	GetBatch(ctx context.Context, kind Kind, batchNumber string) (Batch, error)
	// ListBatches lists live rows, or every row in status when it is set.
	ListBatches(ctx context.Context, kind Kind, status Status) ([]Batch, error)
	Movements(ctx context.Context, kind Kind, batchNumber string) ([]Movement, error)
}

// Tx is the unit of work handed to WithinTx callbacks.
type Tx interface {
	OrderStatus(ctx context.Context, orderID int64) (orders.Status, error)
	// LockBatch loads the live row, or the latest exited one, and holds a row
	// lock until the transaction ends.
	LockBatch(ctx context.Context, kind Kind, batchNumber string) (Batch, error)
	// SetStatus applies t only if the row is still live and in t.From.
	SetStatus(ctx context.Context, t Transition) error
	AppendMovement(ctx context.Context, m Movement) error
	UpsertOrderItem(ctx context.Context, it orders.Item) error
	InsertTransport(ctx context.Context, t Transport) error
}
