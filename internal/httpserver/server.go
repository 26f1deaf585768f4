package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waypost/waypost/internal/config"
	"github.com/waypost/waypost/internal/feed"
	"github.com/waypost/waypost/internal/metrics"
)

// FeedProvider is the feed operation the server exposes.
type FeedProvider interface {
	GetPersonalizedFeed(ctx context.Context, viewerID string, page, pageSize int) (*feed.Page, error)
}

// Server is the HTTP server exposing the personalized feed endpoint.
type Server struct {
	feedService FeedProvider
	logger      *slog.Logger
	validate    *validator.Validate
	httpServer  *http.Server
}

// feedRequest is the parsed query of a feed page request.
type feedRequest struct {
	ViewerID string `validate:"required"`
	Page     int
	PageSize int
}

// NewServer creates a new HTTP server with the given feed service.
func NewServer(cfg *config.Config, feedService FeedProvider, logger *slog.Logger) *Server {
	s := &Server{
		feedService: feedService,
		logger:      logger,
		validate:    validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/feed", s.handleGetFeed)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	req := parseFeedRequest(r)
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("invalid feed request", "error", err)
		metrics.FeedRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "InvalidRequest", "viewerId parameter is required")
		return
	}

	page, err := s.feedService.GetPersonalizedFeed(r.Context(), req.ViewerID, req.Page, req.PageSize)
	if err != nil {
		s.logger.Error("failed to build feed page",
			"viewer_id", req.ViewerID,
			"page", req.Page,
			"page_size", req.PageSize,
			"error", err,
		)
		metrics.FeedRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to build feed")
		return
	}

	metrics.FeedRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, page)
}

// parseFeedRequest reads the feed query parameters. Unparseable page and
// pageSize values fall back to the assembler defaults rather than erroring;
// defaulting and clamping are the assembler's concern.
func parseFeedRequest(r *http.Request) feedRequest {
	req := feedRequest{
		ViewerID: r.URL.Query().Get("viewerId"),
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil {
		req.PageSize = v
	}
	return req
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
