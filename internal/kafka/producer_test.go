package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProducer_publishDropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProducer([]string{"localhost:9092"}, "inventory.moved", 1, zap.New(core))

	p.Publish([]byte("cherry:C-1"), []byte(`{}`))
	p.Publish([]byte("cherry:C-2"), []byte(`{}`))

	assert.Len(t, p.inbox, 1)
	assert.Equal(t, 1, logs.FilterMessage("kafka inbox full, message dropped").Len())
}

func TestProducer_publishAfterStopDoesNotPanic(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProducer([]string{"localhost:9092"}, "inventory.moved", 4, zap.New(core))

	p.stop()
	p.stop()
	assert.NotPanics(t, func() { p.Publish([]byte("k"), []byte("v")) })
	assert.Equal(t, 1, logs.FilterMessage("publish after close dropped").Len())
}
