package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/coffee-inventory/internal/logx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Log       *zap.Logger
	RateLimit string // e.g. "300-M"; empty disables limiting
	Timeout   time.Duration
}

func NewRouter(cfg RouterConfig) (*chi.Mux, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logx.RequestLogger(cfg.Log), middleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout + time.Second))
	}
	if cfg.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		r.Use(stdlib.NewMiddleware(limiter.New(memory.NewStore(), rate)).Handler)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r, nil
}
