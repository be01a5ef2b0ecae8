// Package httpapi exposes the reconciliation state over JSON endpoints,
// plus CSV and table exports of exactly the rows the views return.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kmrecon/internal/cache"
	"kmrecon/internal/core"
	kmlog "kmrecon/internal/log"
	"kmrecon/internal/recon"
	"kmrecon/internal/session"
)

// ReloadPublisher announces completed reloads to interested consumers.
// Satisfied by the AMQP client; nil disables announcements.
type ReloadPublisher interface {
	PublishDataRefreshed(ctx context.Context, generation uint64, tabs []string) error
}

type Server struct {
	http.Server
	loader      *session.Loader
	registry    core.Registry
	th          core.Thresholds
	publisher   ReloadPublisher
	rateLimiter *rateLimiter

	// comparison responses cached per (generation, vehicles, range)
	comparisonCache *cache.LRUCache[recon.Comparison]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
// publisher may be nil.
func NewServer(addr string, loader *session.Loader, registry core.Registry, th core.Thresholds, publisher ReloadPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		loader:          loader,
		registry:        registry,
		th:              th,
		publisher:       publisher,
		rateLimiter:     newRateLimiter(),
		comparisonCache: cache.NewLRUCache[recon.Comparison](200, 5*time.Minute),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.comparisonCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/totals", s.withSecurityHeaders(s.handleTotals))
	mux.HandleFunc("GET /api/vehicles/stats", s.withSecurityHeaders(s.handleVehicleStats))
	mux.HandleFunc("GET /api/comparison", s.withSecurityHeaders(s.handleComparison))
	mux.HandleFunc("GET /api/tabs/{name}/rows", s.withSecurityHeaders(s.handleTabRows))
	mux.HandleFunc("GET /api/export/comparison", s.withSecurityHeaders(s.handleExportComparison))
	mux.HandleFunc("GET /api/export/tabs/{name}", s.withSecurityHeaders(s.handleExportTab))
	mux.HandleFunc("POST /api/reload", s.withSecurityHeaders(s.handleReload))

	return s
}

// Shutdown stops the cleanup routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

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

		logger := kmlog.FromContext(ctx).WithComponent(kmlog.ComponentHTTP)

		startFields := kmlog.NewFields().
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))
		logger.InfoContext(ctx, "Request started", startFields.ToSlice()...)

		// Reloads are expensive; everything else is a cheap read.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		endFields := kmlog.NewFields().
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400)
		logger.InfoContext(ctx, "Request completed", endFields.ToSlice()...)
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

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only once a first snapshot has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.loader.Current(); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no snapshot loaded yet"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
