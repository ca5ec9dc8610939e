// Package api exposes the scanner over HTTP: scan and analyze endpoints,
// the batch runner and the statistics surface, all under /api/v2.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"httpobs/internal/database"
	"httpobs/internal/output"
	"httpobs/internal/scanner"
	"httpobs/internal/site"
)

// ScanService is the part of the scanner the API calls.
type ScanService interface {
	ScanCached(ctx context.Context, target site.Site, maxAge time.Duration) (*output.ScanReport, error)
	ScanCachedFullDetails(ctx context.Context, target site.Site, maxAge time.Duration) (*output.ScanReport, map[string]output.TestResult, error)
	ScanBatch(ctx context.Context, hostnames []string, maxAge time.Duration) ([]scanner.BatchEntry, error)
}

// StatsStore is the part of the database the API reads directly.
type StatsStore interface {
	History(ctx context.Context, siteKey string, limit int) ([]database.ScanRow, error)
	GradeDistribution(ctx context.Context) (map[string]int, error)
	TotalScans(ctx context.Context) (int64, error)
}

// Server holds the API dependencies.
type Server struct {
	scans    ScanService
	stats    StatsStore
	baseURL  string
	cooldown time.Duration
	logger   *slog.Logger
}

// New assembles the API server. baseURL is used to build details_url links
// and may be empty; stats may be nil when no database is attached.
func New(scans ScanService, stats StatsStore, baseURL string, cooldown time.Duration, logger *slog.Logger) *Server {
	if cooldown <= 0 {
		cooldown = scanner.DefaultCooldown
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		scans:    scans,
		stats:    stats,
		baseURL:  baseURL,
		cooldown: cooldown,
		logger:   logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/scanFullDetails", s.handleScanFullDetails)
		r.Get("/analyze", s.handleAnalyzeGet)
		r.Post("/analyze", s.handleAnalyzePost)
		r.Post("/scanBatchFullDetails", s.handleScanBatch)
		r.Get("/getGradeDistribution", s.handleGradeDistribution)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
