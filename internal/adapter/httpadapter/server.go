package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-balance-report/internal/observability"
	"github.com/couchcryptid/water-balance-report/internal/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reports is the read side of the report service.
type Reports interface {
	sharedobs.ReadinessChecker
	Current() (*report.State, error)
}

// Server exposes health, readiness, metrics, and the report JSON API.
type Server struct {
	httpServer *http.Server
	reports    Reports
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 report routes.
func NewServer(addr string, reports Reports, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(reports))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.route(mux, "/api/v1/dates", s.handleDates)
	s.route(mux, "/api/v1/snapshot", s.handleSnapshot)
	s.route(mux, "/api/v1/categories", s.handleCategories)
	s.route(mux, "/api/v1/alerts", s.handleAlerts)
	s.route(mux, "/api/v1/series", s.handleSeries)
	s.route(mux, "/api/v1/records", s.handleRecords)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// route registers an API handler and counts its responses by status code.
func (s *Server) route(mux *http.ServeMux, path string, h http.HandlerFunc) {
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
