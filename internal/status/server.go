// Package status serves live scan observability over HTTP: a health probe,
// the current progress snapshot as JSON or a websocket stream, and the
// Prometheus metrics endpoint. It runs beside a scan and never outlives it.
package status

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/metrics"
	"github.com/veriscan/veriscan/internal/scanning"
)

const (
	readTimeout     = 10 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second

	// pushInterval is how often the current snapshot goes out to stream
	// subscribers.
	pushInterval = time.Second
)

// ProgressFunc supplies the latest scan snapshot on demand.
type ProgressFunc func() scanning.Snapshot

// Server is the HTTP status endpoint that runs alongside a scan.
type Server struct {
	addr       string
	router     *mux.Router
	httpServer *http.Server
	logger     *logging.Logger
	metrics    *metrics.PrometheusMetrics
	progress   ProgressFunc
	hub        *Hub
}

// New creates a status server listening on addr. progress is polled for
// every snapshot request and stream push.
func New(addr string, progress ProgressFunc) *Server {
	logger := logging.Default().WithComponent("status")

	server := &Server{
		addr:     addr,
		router:   mux.NewRouter(),
		logger:   logger,
		metrics:  metrics.GetGlobalMetrics(),
		progress: progress,
		hub:      newHub(logger),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:        addr,
		Handler:     server.router,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	return server
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.healthzHandler).Methods("GET")
	s.router.HandleFunc("/progress", s.progressHandler).Methods("GET")
	s.router.HandleFunc("/progress/stream", s.hub.StreamHandler).Methods("GET")
	s.router.Handle("/metrics",
		promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
	))
}

// Start serves until ctx is canceled or the listener fails. On cancellation
// it shuts down gracefully and returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.logger.InfoStatus("status server starting", "address", s.addr)

	go s.pushLoop(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- errors.WrapScanError(errors.CodeStatusServer, "Status server failed", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the server and disconnects stream subscribers.
func (s *Server) Stop() error {
	s.logger.InfoStatus("status server stopping")

	s.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.WrapScanError(errors.CodeStatusServer, "Status server shutdown failed", err)
	}
	return nil
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// pushLoop ships the current snapshot to stream subscribers once a second.
func (s *Server) pushLoop(ctx context.Context) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(s.progress())
			if err != nil {
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    s.metrics.GetUptime().String(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.progress())
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"path", r.URL.Path)
	}
}

// Middleware functions.

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in status handler",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", duration,
			"remote_addr", r.RemoteAddr)

		s.metrics.IncrementHTTPRequests(r.Method, r.URL.Path, fmt.Sprintf("%d", wrapped.statusCode))
		s.metrics.RecordHTTPDuration(r.Method, r.URL.Path, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade reach the underlying connection through
// the logging wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
