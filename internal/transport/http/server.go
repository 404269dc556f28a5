package http

import (
	"context"
	"net/http"
	"time"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/metrics"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/service"
)

type Server struct {
	srv     *http.Server
	limiter *RateLimiter
}

// NewServer builds the public API server. Requests pass through identity
// extraction, per-caller rate limiting and Prometheus instrumentation.
func NewServer(addr string, svc service.EconomyService, limiter *RateLimiter) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(svc, limiter),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		limiter: limiter,
	}
}

// NewRouter returns the fully wrapped API handler. limiter may be nil.
func NewRouter(svc service.EconomyService, limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = mux
	if limiter != nil {
		h = limiter.Handler(h)
	}
	return withUserID(metrics.InstrumentHandler(h))
}

func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.RunCleanup(ctx, 10*time.Minute)
	}
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
