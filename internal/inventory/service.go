package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/coffee-inventory/internal/kafka"
	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/ariefcatur/coffee-inventory/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service owns the batch state machine. Publisher and Cache are optional.
type Service struct {
	Store       Store
	Publisher   Publisher
	Cache       Cache
	Log         *zap.Logger
	ServiceName string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func BatchCacheKey(kind Kind, batchNumber string) string {
	return fmt.Sprintf(redisx.KeyBatchStatus, kind, batchNumber)
}

// Reserve moves an Available batch to Reserved for an order, logs the
// movement and upserts the order line, all in one transaction.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (Batch, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if err := in.validate(); err != nil {
		return Batch{}, err
	}
	at := s.now()

	var out Batch
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.OrderStatus(ctx, in.OrderID); err != nil {
			return err
		}
		b, err := tx.LockBatch(ctx, in.Kind, in.BatchNumber)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, StatusReserved) {
			return fmt.Errorf("%w: %s is %s", ErrAlreadyReserved, in.BatchNumber, b.Status)
		}

		err = tx.SetStatus(ctx, Transition{
			Kind: in.Kind, BatchNumber: in.BatchNumber,
			From: StatusAvailable, To: StatusReserved,
			OrderID: in.OrderID, UpdatedBy: in.UpdatedBy, At: at,
		})
		if errors.Is(err, errStaleBatch) {
			return fmt.Errorf("%w: %s", ErrAlreadyReserved, in.BatchNumber)
		}
		if err != nil {
			return err
		}

		if err := tx.AppendMovement(ctx, Movement{
			Kind: in.Kind, BatchNumber: in.BatchNumber, MovementType: MovementReservation,
			OrderID: in.OrderID, MovedAt: at, CreatedBy: in.CreatedBy,
		}); err != nil {
			return err
		}

		if err := tx.UpsertOrderItem(ctx, orders.Item{
			OrderID:     in.OrderID,
			BatchNumber: in.BatchNumber,
			Product:     in.Kind.ProductLabel(),
			Quantity:    in.Quantity,
			Price:       in.Price,
			ProductType: string(in.Kind),
			CreatedAt:   at,
			UpdatedAt:   at,
		}); err != nil {
			return err
		}

		orderID := in.OrderID
		b.Status, b.OrderID, b.UpdatedBy, b.UpdatedAt = StatusReserved, &orderID, in.UpdatedBy, at
		out = b
		return nil
	})
	if err != nil {
		return Batch{}, err
	}

	s.afterCommit(ctx, out, MovementReservation, in.CreatedBy)
	return out, nil
}

// Exit picks a batch reserved for an order that is in transit. Green beans
// call this "ship". Transport cost is recorded when all of its fields are set.
func (s *Service) Exit(ctx context.Context, in ExitInput) (Batch, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if err := in.validate(); err != nil {
		return Batch{}, err
	}
	at := s.now()

	var out Batch
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		status, err := tx.OrderStatus(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if status != orders.StatusInTransit {
			return fmt.Errorf("%w: order %d is %q", ErrOrderNotInTransit, in.OrderID, status)
		}

		b, err := tx.LockBatch(ctx, in.Kind, in.BatchNumber)
		if err != nil {
			return err
		}
		if b.ExitedAt != nil {
			return fmt.Errorf("%w: %s already exited", ErrBatchNotFound, in.BatchNumber)
		}
		if b.Status != StatusReserved || b.OrderID == nil || *b.OrderID != in.OrderID {
			return fmt.Errorf("%w: %s", ErrNotReservedForOrder, in.BatchNumber)
		}

		err = tx.SetStatus(ctx, Transition{
			Kind: in.Kind, BatchNumber: in.BatchNumber,
			From: StatusReserved, To: StatusPicked,
			OrderID: in.OrderID, UpdatedBy: in.UpdatedBy, At: at,
		})
		if errors.Is(err, errStaleBatch) {
			return fmt.Errorf("%w: %s", ErrNotReservedForOrder, in.BatchNumber)
		}
		if err != nil {
			return err
		}

		if err := tx.AppendMovement(ctx, Movement{
			Kind: in.Kind, BatchNumber: in.BatchNumber, MovementType: MovementExit,
			OrderID: in.OrderID, MovedAt: at, CreatedBy: in.CreatedBy,
		}); err != nil {
			return err
		}

		if t := in.Transport; t.complete() {
			if err := tx.InsertTransport(ctx, Transport{
				Kind: in.Kind, BatchNumber: in.BatchNumber, OrderID: in.OrderID,
				Desa: t.Desa, Kecamatan: t.Kecamatan, Kabupaten: t.Kabupaten,
				Cost: *t.Cost, PaidTo: t.PaidTo, FarmerID: t.FarmerID,
				PaymentMethod: t.PaymentMethod, BankAccount: t.BankAccount, BankName: t.BankName,
				CreatedBy: in.CreatedBy, CreatedAt: at,
			}); err != nil {
				return err
			}
		}

		exited := at
		b.Status, b.ExitedAt, b.UpdatedBy, b.UpdatedAt = StatusPicked, &exited, in.UpdatedBy, at
		out = b
		return nil
	})
	if err != nil {
		return Batch{}, err
	}

	s.afterCommit(ctx, out, MovementExit, in.CreatedBy)
	return out, nil
}

// afterCommit drops the cached snapshot and announces the movement. Both are
// best effort: the transaction is already durable.
func (s *Service) afterCommit(ctx context.Context, b Batch, mt MovementType, createdBy string) {
	if s.Cache != nil {
		if err := s.Cache.Del(ctx, BatchCacheKey(b.Kind, b.BatchNumber)); err != nil {
			s.log().Warn("batch cache invalidation failed", zap.String("batch", b.BatchNumber), zap.Error(err))
		}
	}
	if s.Publisher == nil {
		return
	}
	payload := InventoryMovedPayload{
		Kind:         b.Kind,
		BatchNumber:  b.BatchNumber,
		MovementType: mt,
		OrderID:      *b.OrderID,
		Status:       b.Status,
		MovedAt:      b.UpdatedAt,
		CreatedBy:    createdBy,
		UpdatedBy:    b.UpdatedBy,
	}
	env := kafkax.NewEnvelope(EventInventoryMoved, s.ServiceName, middleware.GetReqID(ctx),
		fmt.Sprint(payload.OrderID), payload)
	s.Publisher.Publish(PartitionKey(b.Kind, b.BatchNumber), kafkax.MustMarshal(env), env.Headers()...)
}

// Batch reads through the cache to the store.
func (s *Service) Batch(ctx context.Context, kind Kind, batchNumber string) (Batch, error) {
	if !kind.Valid() {
		return Batch{}, fmt.Errorf("%w: unknown inventory kind %q", ErrValidation, kind)
	}
	key := BatchCacheKey(kind, batchNumber)
	if s.Cache != nil {
		var b Batch
		ok, err := s.Cache.GetJSON(ctx, key, &b)
		if err != nil {
			s.log().Warn("batch cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return b, nil
		}
	}

	b, err := s.Store.GetBatch(ctx, kind, batchNumber)
	if err != nil {
		return Batch{}, err
	}
	// short TTL: this read may predate a commit whose invalidation already ran
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, key, b, redisx.TTLBatchReadThrough); err != nil {
			s.log().Warn("batch cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return b, nil
}

func (s *Service) ListBatches(ctx context.Context, kind Kind, status Status) ([]Batch, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown inventory kind %q", ErrValidation, kind)
	}
	if status != "" {
		if _, ok := ParseStatus(string(status)); !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}
	return s.Store.ListBatches(ctx, kind, status)
}

func (s *Service) Movements(ctx context.Context, kind Kind, batchNumber string) ([]Movement, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown inventory kind %q", ErrValidation, kind)
	}
	return s.Store.Movements(ctx, kind, batchNumber)
}
