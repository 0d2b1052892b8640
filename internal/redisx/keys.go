package redisx

import "time"

const (
	// Cached batch snapshot: batch_status:{kind}:{batch_number} -> JSON inventory.Batch
	KeyBatchStatus = "batch_status:%s:%s"

	// Cached order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLBatchStatus = 10 * time.Minute
	// read-through fills from the DB; kept short so a racing commit is not masked
	TTLBatchReadThrough = 30 * time.Second
	TTLStatusCache      = 5 * time.Minute
	TTLDedup            = 48 * time.Hour
)
