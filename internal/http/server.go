package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/services"
)

// Server exposes the ledger and dashboard as a JSON API. Requests are scoped
// to the user named by the X-User-ID header, which an upstream proxy is
// trusted to authenticate.
type Server struct {
	http.Server
	ledger      *services.LedgerService
	metrics     *services.MetricsService
	rateLimiter *rateLimiter

	// Dashboard caches keyed user+year+month, invalidated on every
	// transaction mutation.
	metricsCache    *cache.LRUCache[core.MonthlyMetrics]
	comparisonCache *cache.LRUCache[core.MonthlyComparison]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// Options tunes the server; zero values fall back to defaults.
type Options struct {
	CacheTTL     time.Duration
	CacheMaxSize int
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, metrics *services.MetricsService, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheMaxSize <= 0 {
		opts.CacheMaxSize = 1000
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:          ledger,
		metrics:         metrics,
		rateLimiter:     newRateLimiter(),
		metricsCache:    cache.NewLRUCache[core.MonthlyMetrics](opts.CacheMaxSize, opts.CacheTTL),
		comparisonCache: cache.NewLRUCache[core.MonthlyComparison](opts.CacheMaxSize, opts.CacheTTL),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.metricsCache)
	s.cacheManager.Register(s.comparisonCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.withMiddleware(s.handleGetAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withMiddleware(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/dashboard/metrics", s.withMiddleware(s.handleMonthlyMetrics))
	mux.HandleFunc("GET /api/dashboard/comparison", s.withMiddleware(s.handleMonthlyComparison))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only while the database answers, so a wedged
// instance drops out of rotation.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
