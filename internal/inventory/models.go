package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is one physical lot as tracked by its status row.
type Batch struct {
	Kind        Kind       `json:"kind"`
	BatchNumber string     `json:"batch_number"`
	Status      Status     `json:"status"`
	OrderID     *int64     `json:"order_id,omitempty"`
	ExitedAt    *time.Time `json:"exited_at,omitempty"`
	UpdatedBy   string     `json:"updated_by"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Movement struct {
	ID           int64        `json:"id"`
	Kind         Kind         `json:"kind"`
	BatchNumber  string       `json:"batch_number"`
	MovementType MovementType `json:"movement_type"`
	OrderID      int64        `json:"order_id"`
	MovedAt      time.Time    `json:"moved_at"`
	CreatedBy    string       `json:"created_by"`
}

// Transition is a guarded status change applied by Tx.SetStatus.
type Transition struct {
	Kind        Kind
	BatchNumber string
	From, To    Status
	OrderID     int64
	UpdatedBy   string
	At          time.Time
}

type Transport struct {
	Kind          Kind
	BatchNumber   string
	OrderID       int64
	Desa          string
	Kecamatan     string
	Kabupaten     string
	Cost          decimal.Decimal
	PaidTo        string
	FarmerID      string
	PaymentMethod string
	BankAccount   string
	BankName      string
	CreatedBy     string
	CreatedAt     time.Time
}

type ReserveInput struct {
	Kind        Kind
	OrderID     int64
	BatchNumber string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	CreatedBy   string
	UpdatedBy   string
}

func (in ReserveInput) validate() error {
	if err := validateCommon(in.Kind, in.OrderID, in.BatchNumber, in.CreatedBy, in.UpdatedBy); err != nil {
		return err
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// TransportInput carries the optional transport cost fields of an exit.
// A record is only written when every required field is present.
type TransportInput struct {
	Desa          string
	Kecamatan     string
	Kabupaten     string
	Cost          *decimal.Decimal
	PaidTo        string
	FarmerID      string
	PaymentMethod string
	BankAccount   string
	BankName      string
}

func (t *TransportInput) complete() bool {
	if t == nil || t.Cost == nil {
		return false
	}
	for _, s := range []string{t.Desa, t.Kecamatan, t.Kabupaten, t.PaidTo, t.PaymentMethod} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

type ExitInput struct {
	Kind        Kind
	OrderID     int64
	BatchNumber string
	CreatedBy   string
	UpdatedBy   string
	Transport   *TransportInput
}

func (in ExitInput) validate() error {
	if err := validateCommon(in.Kind, in.OrderID, in.BatchNumber, in.CreatedBy, in.UpdatedBy); err != nil {
		return err
	}
	if in.Transport.complete() && in.Transport.Cost.IsNegative() {
		return fmt.Errorf("%w: transport cost must not be negative", ErrValidation)
	}
	return nil
}

func validateCommon(kind Kind, orderID int64, batchNumber, createdBy, updatedBy string) error {
	switch {
	case !kind.Valid():
		return fmt.Errorf("%w: unknown inventory kind %q", ErrValidation, kind)
	case orderID <= 0:
		return fmt.Errorf("%w: order_id is required", ErrValidation)
	case strings.TrimSpace(batchNumber) == "":
		return fmt.Errorf("%w: batchNumber is required", ErrValidation)
	case strings.TrimSpace(createdBy) == "":
		return fmt.Errorf("%w: createdBy is required", ErrValidation)
	case strings.TrimSpace(updatedBy) == "":
		return fmt.Errorf("%w: updatedBy is required", ErrValidation)
	}
	return nil
}
