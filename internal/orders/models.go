package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Status       Status    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	UpdatedBy    string    `json:"updated_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Items        []Item    `json:"items,omitempty"`
}

// Item is one batch attached to an order, keyed by (OrderID, BatchNumber).
type Item struct {
	OrderID     int64           `json:"order_id"`
	BatchNumber string          `json:"batch_number"`
	Product     string          `json:"product"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductType string          `json:"product_type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateInput struct {
	CustomerName string
	Status       Status
	CreatedBy    string
}
