package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidharon/gemini-transcriptioner/internal/metrics"
	"github.com/tidharon/gemini-transcriptioner/internal/pipeline"
	"github.com/tidharon/gemini-transcriptioner/internal/quota"
)

// HTTPServer provides HTTP endpoints for monitoring a transcription run
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	events  *pipeline.EventBus
	ledger  *quota.Ledger
	metrics *metrics.Metrics

	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration
type HTTPServerConfig struct {
	Address string
	Port    int
}

// NewHTTPServer creates the monitoring HTTP server. metrics may be nil.
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger,
	events *pipeline.EventBus, ledger *quota.Ledger, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		events:    events,
		ledger:    ledger,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/progress", h.withMetrics("/progress", h.handleProgress))
	mux.HandleFunc("/quota", h.withMetrics("/quota", h.handleQuota))

	// Prometheus metrics endpoint (not itself measured)
	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with request metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		if h.metrics != nil {
			h.metrics.RecordHTTPRequest(r.Method, endpoint,
				strconv.Itoa(ww.statusCode), time.Since(startTime).Seconds())
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server in the background
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "gemini-transcriptioner",
			"version": "1.0.0",
		},
	}

	if last, ok := h.events.Last(); ok {
		health["run"] = map[string]interface{}{
			"stage":   last.Stage,
			"percent": last.Percent,
			"message": last.Message,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleProgress implements the /progress endpoint. The optional ?since=N
// query returns only events with a sequence number greater than N, so
// pollers can read incrementally.
func (h *HTTPServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid 'since' parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	events := h.events.Since(since)
	response := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"count":     len(events),
		"events":    events,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleQuota implements the /quota endpoint
func (h *HTTPServer) handleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summaries := h.ledger.Summary()
	response := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"accounts":  summaries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
