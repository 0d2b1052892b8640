package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/coffee-inventory/internal/config"
	"github.com/ariefcatur/coffee-inventory/internal/inventory"
	kafkax "github.com/ariefcatur/coffee-inventory/internal/kafka"
	"github.com/ariefcatur/coffee-inventory/internal/logx"
	"github.com/ariefcatur/coffee-inventory/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// projector consumes InventoryMoved events and keeps the batch status cache
// in redis current for other readers.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logx.New(cfg.IsDev())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis ping", zap.Error(err))
	}

	p := &inventory.Projector{
		Cache:       redisx.NewCache(rdb),
		Log:         logger,
		ServiceName: cfg.ServiceName + "-projector",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, inventory.TopicInventoryMoved, cfg.ProjectorWorkers, logger)
	logger.Info("projector started",
		zap.String("group", cfg.ProjectorGroup),
		zap.String("topic", inventory.TopicInventoryMoved),
		zap.Int("workers", cfg.ProjectorWorkers),
	)
	if err := cons.Start(ctx, p.HandleMessage); err != nil {
		logger.Error("consumer exit", zap.Error(err))
		return
	}
	logger.Info("projector stopped")
}
