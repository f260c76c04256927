// Package http exposes the ledger and planning services as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/ledger"
	"kakeibo/internal/plan"
)

type Server struct {
	http.Server
	ledgerSvc   *ledger.Service
	planSvc     *plan.Service
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledgerSvc *ledger.Service, planSvc *plan.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledgerSvc:   ledgerSvc,
		planSvc:     planSvc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Ledger
	mux.HandleFunc("GET /api/incomes", s.withObservability(s.handleListIncomes))
	mux.HandleFunc("POST /api/incomes", s.withObservability(s.handleCreateIncome))
	mux.HandleFunc("PUT /api/incomes/{id}", s.withObservability(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withObservability(s.handleDeleteIncome))
	mux.HandleFunc("GET /api/outcomes", s.withObservability(s.handleListOutcomes))
	mux.HandleFunc("POST /api/outcomes", s.withObservability(s.handleCreateOutcome))
	mux.HandleFunc("PUT /api/outcomes/{id}", s.withObservability(s.handleUpdateOutcome))
	mux.HandleFunc("DELETE /api/outcomes/{id}", s.withObservability(s.handleDeleteOutcome))
	mux.HandleFunc("GET /api/saving", s.withObservability(s.handleGetSaving))
	mux.HandleFunc("PUT /api/saving", s.withObservability(s.handleAdjustSaving))

	// Planning
	mux.HandleFunc("GET /api/jobs", s.withObservability(s.handleListJobs))
	mux.HandleFunc("POST /api/jobs", s.withObservability(s.handleCreateJob))
	mux.HandleFunc("PUT /api/jobs/{id}/wage", s.withObservability(s.handleSetWage))
	mux.HandleFunc("GET /api/job-incomes", s.withObservability(s.handleListJobIncomes))
	mux.HandleFunc("PUT /api/job-incomes/{id}", s.withObservability(s.handleUpdateJobIncome))
	mux.HandleFunc("GET /api/monthly-templates", s.withObservability(s.handleListMonthlyTemplates))
	mux.HandleFunc("POST /api/monthly-templates", s.withObservability(s.handleCreateMonthlyTemplate))
	mux.HandleFunc("GET /api/monthly-outcomes", s.withObservability(s.handleListMonthlyOutcomes))
	mux.HandleFunc("PUT /api/monthly-outcomes/{id}", s.withObservability(s.handleUpdateMonthlyOutcome))
	mux.HandleFunc("GET /api/temporary-outcomes", s.withObservability(s.handleListTemporaryOutcomes))
	mux.HandleFunc("POST /api/temporary-outcomes", s.withObservability(s.handleCreateTemporaryOutcome))
	mux.HandleFunc("POST /api/temporary-incomes", s.withObservability(s.handleCreateTemporaryIncome))
	mux.HandleFunc("GET /api/inspect", s.withObservability(s.handleInspect))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withObservability adds rate limiting and request logging to handlers
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate-limit mutating requests
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
