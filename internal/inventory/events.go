package inventory

import "time"

const (
	TopicInventoryMoved = "inventory.moved"
	EventInventoryMoved = "InventoryMoved"
)

// InventoryMovedPayload is published once per committed status transition.
type InventoryMovedPayload struct {
	Kind         Kind         `json:"kind"`
	BatchNumber  string       `json:"batch_number"`
	MovementType MovementType `json:"movement_type"`
	OrderID      int64        `json:"order_id"`
	Status       Status       `json:"status"`
	MovedAt      time.Time    `json:"moved_at"`
	CreatedBy    string       `json:"created_by"`
	UpdatedBy    string       `json:"updated_by"`
}

// Snapshot rebuilds the batch row as it stood right after the movement.
func (p InventoryMovedPayload) Snapshot() Batch {
	orderID := p.OrderID
	b := Batch{
		Kind:        p.Kind,
		BatchNumber: p.BatchNumber,
		Status:      p.Status,
		OrderID:     &orderID,
		UpdatedBy:   p.UpdatedBy,
		UpdatedAt:   p.MovedAt,
	}
	if p.Status == StatusPicked {
		at := p.MovedAt
		b.ExitedAt = &at
	}
	return b
}

// PartitionKey keeps every event of one batch on the same partition.
func PartitionKey(kind Kind, batchNumber string) []byte {
	return []byte(string(kind) + ":" + batchNumber)
}
