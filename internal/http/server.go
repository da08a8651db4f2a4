package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
)

// Ledger is the controller surface the handlers drive.
type Ledger interface {
	AddTransaction(ctx context.Context, d core.Draft) (core.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) bool
	Retry(ctx context.Context, id string) error
	RequestSort() (ledger.SortDirection, error)
	Snapshot() ledger.View
	Wait()
}

type Server struct {
	http.Server
	ledger      Ledger
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, l Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	ips := security.NewIPExtractor()
	s := &Server{
		ledger:      l,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:      trace.NewMiddleware(logger, ips.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/chart.png", s.handleChart)
	mux.HandleFunc("POST /api/transactions", s.handleAdd)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleRemove)
	mux.HandleFunc("POST /api/transactions/{id}/retry", s.handleRetry)
	mux.HandleFunc("POST /api/sort", s.handleSort)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(ips.ClientIP)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests, then waits for in-flight sync with the
// expenses resource so no confirmation is lost.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)

		done := make(chan struct{})
		go func() {
			s.ledger.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("Shutdown deadline reached with remote calls in flight")
		}

		m := s.tracer.GetMetrics()
		s.logger.Info("HTTP server stopped",
			"total_requests", m.TotalRequests,
			"server_errors", m.ServerErrors,
			"rate_limited", s.rateLimiter.GetMetrics().TotalHits)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
