// Package http serves the ledger as a JSON API. Every response body is the
// {success, message, data} envelope.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options configures a Server. Zero values get defaults.
type Options struct {
	Addr              string
	RequestsPerMinute int
	Logger            *log.Logger

	// Ready reports whether the store can serve requests.
	Ready backend.ReadyFunc

	// CacheStats feeds /metrics with the dashboard cache counters.
	CacheStats func() cache.Stats
}

type Server struct {
	http.Server

	ledger     *services.Ledger
	ready      backend.ReadyFunc
	cacheStats func() cache.Stats
	logger     *log.Logger
	started    time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around the ledger.
func NewServer(ledger *services.Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		ledger:     ledger,
		ready:      opts.Ready,
		cacheStats: opts.CacheStats,
		logger:     logger,
		started:    time.Now(),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("POST /api/auth/logout", s.requireUser(s.handleLogout))
	mux.Handle("GET /api/auth/me", s.requireUser(s.handleMe))

	mux.Handle("GET /api/transactions", s.requireUser(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.requireUser(s.handleAddTransaction))

	mux.Handle("GET /api/budgets", s.requireUser(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.requireUser(s.handleAddBudget))
	mux.Handle("PATCH /api/budgets/{id}", s.requireUser(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.requireUser(s.handleDeleteBudget))

	mux.Handle("GET /api/dashboard", s.requireUser(s.handleDashboard))
	mux.Handle("GET /api/activity", s.requireUser(s.handleActivity))

	mux.HandleFunc("/", s.handleNotFound)

	// Outermost first: trace, detection, headers, rate limit.
	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, rateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
