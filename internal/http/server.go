// Package http exposes the ledger over a small JSON API and serves the CSV
// export.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

// mutationsPerMinute is the per client limit applied to POST and DELETE.
const mutationsPerMinute = 60

type Server struct {
	http.Server
	ledger      *ledger.Ledger
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *rateLimiter
	security    *securityMetrics
	now         func() time.Time
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, l *ledger.Ledger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:      l,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(mutationsPerMinute, time.Minute),
		security:    &securityMetrics{},
		now:         time.Now,
		startedAt:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/{id}", s.handleExpenseByID)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/currencies", s.handleCurrencies)
	mux.HandleFunc("/api/export.csv", s.handleExport)

	var handler http.Handler = s.withSecurityHeaders(mux)
	handler = log.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to every response.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)
		structured := log.NewStructuredLogger(log.FromContext(ctx))

		structured.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.security) {
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP, s.security) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutation(method string) bool {
	return method == http.MethodPost || method == http.MethodDelete
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
