package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/coffee-inventory/internal/config"
	"github.com/ariefcatur/coffee-inventory/internal/httpx"
	"github.com/ariefcatur/coffee-inventory/internal/inventory"
	kafkax "github.com/ariefcatur/coffee-inventory/internal/kafka"
	"github.com/ariefcatur/coffee-inventory/internal/logx"
	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/ariefcatur/coffee-inventory/internal/postgres"
	"github.com/ariefcatur/coffee-inventory/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logx.New(cfg.IsDev())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := redisx.NewCache(rdb)

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicInventoryMoved, 1024, logger)
	prod.Start()

	svc := &inventory.Service{
		Store:       &inventory.PgStore{DB: db},
		Publisher:   prod,
		Cache:       cache,
		Log:         logger,
		ServiceName: cfg.ServiceName,
	}

	router, err := httpx.NewRouter(httpx.RouterConfig{
		Log:       logger,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("router", zap.Error(err))
	}
	(&httpx.InventoryHandler{Service: svc, Log: logger, Timeout: cfg.RequestTimeout}).Register(router)
	(&httpx.OrdersHandler{Repo: &orders.Repo{DB: db}, Cache: cache, Log: logger}).Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// tutup inbox setelah handler terakhir selesai, lalu flush writer
	prod.Close()
}
