package inventory

import (
	"context"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/coffee-inventory/internal/kafka"
	"github.com/ariefcatur/coffee-inventory/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type ProjectorCache interface {
	Cache
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Projector keeps the batch status cache warm from InventoryMoved events.
type Projector struct {
	Cache       ProjectorCache
	Log         *zap.Logger
	ServiceName string
}

// HandleMessage is installed as the kafka consumer handler. Undecodable
// messages are logged and acknowledged so they do not block the partition.
func (p *Projector) HandleMessage(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		p.Log.Warn("dropping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != EventInventoryMoved {
		return nil
	}
	payload, err := kafkax.UnwrapPayload[InventoryMovedPayload](env.Payload)
	if err != nil || !payload.Kind.Valid() {
		p.Log.Warn("dropping bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, p.ServiceName, env.EventID)
	first, err := p.Cache.MarkOnce(ctx, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	if err := p.project(ctx, payload); err != nil {
		// release the claim so the redelivery is not deduped away
		_ = p.Cache.Del(ctx, dkey)
		return err
	}
	return nil
}

func (p *Projector) project(ctx context.Context, payload InventoryMovedPayload) error {
	key := BatchCacheKey(payload.Kind, payload.BatchNumber)

	var current Batch
	ok, err := p.Cache.GetJSON(ctx, key, &current)
	if err != nil {
		return err
	}
	// Redelivered older movements must not roll a newer snapshot back.
	if ok && current.UpdatedAt.After(payload.MovedAt) {
		return nil
	}
	if err := p.Cache.SetJSON(ctx, key, payload.Snapshot(), redisx.TTLBatchStatus); err != nil {
		return err
	}
	p.Log.Debug("batch projected",
		zap.String("kind", string(payload.Kind)),
		zap.String("batch", payload.BatchNumber),
		zap.String("status", string(payload.Status)),
	)
	return nil
}
