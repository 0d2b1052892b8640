package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestConsumer_processRetriesSameMessage(t *testing.T) {
	c := &Consumer{workers: 2, backoff: time.Millisecond, log: zap.NewNop()}
	var seen []int64
	h := func(ctx context.Context, m kafka.Message) error {
		seen = append(seen, m.Offset)
		if len(seen) < 3 {
			return errors.New("redis: connection refused")
		}
		return nil
	}

	ok := c.process(context.Background(), h, kafka.Message{Partition: 1, Offset: 10})

	assert.True(t, ok)
	assert.Equal(t, []int64{10, 10, 10}, seen)
}

func TestConsumer_processStopsOnCancel(t *testing.T) {
	c := &Consumer{workers: 1, backoff: time.Millisecond, log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := func(ctx context.Context, m kafka.Message) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("still failing")
	}

	assert.False(t, c.process(ctx, h, kafka.Message{Offset: 4}))
	assert.Equal(t, 2, calls)
}

func TestConsumer_routeKeepsPartitionOnOneWorker(t *testing.T) {
	c := &Consumer{workers: 3}
	for p := 0; p < 9; p++ {
		w := c.route(kafka.Message{Partition: p, Offset: 1})
		assert.Equal(t, w, c.route(kafka.Message{Partition: p, Offset: 99}))
		assert.Equal(t, p%3, w)
	}
}
