// Package scanner orchestrates one scan end to end: resolve the target,
// run the probes, evaluate the battery, grade the outcome and assemble the
// report. It owns the cooldown cache and the concurrent batch runner.
package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/guregu/null.v3"

	"httpobs/internal/cdn"
	"httpobs/internal/checks"
	"httpobs/internal/grade"
	"httpobs/internal/output"
	"httpobs/internal/retriever"
	"httpobs/internal/site"
	"httpobs/internal/tech"
)

// Store is the persistence surface the scanner needs. The database package
// implements it; the CLI runs with a nil Store and persists nothing.
type Store interface {
	// SaveScan records a finished scan.
	SaveScan(ctx context.Context, siteKey string, report *output.ScanReport) error

	// RecentScan returns the newest stored scan for the site no older than
	// maxAge, or nil when there is none.
	RecentScan(ctx context.Context, siteKey string, maxAge time.Duration) (*output.ScanReport, error)

	// Expectations returns the per-site expectation overrides, keyed by
	// test name.
	Expectations(ctx context.Context, siteKey string) (map[string]string, error)
}

// Scanner runs scans. Safe for concurrent use.
type Scanner struct {
	retriever   *retriever.Retriever
	resolver    *site.Resolver
	store       Store
	detector    *tech.Detector
	logger      *slog.Logger
	group       singleflight.Group
	detailGroup singleflight.Group
}

// New assembles a Scanner. store and detector may be nil; a nil logger
// disables logging.
func New(r *retriever.Retriever, resolver *site.Resolver, store Store, detector *tech.Detector, logger *slog.Logger) *Scanner {
	if resolver == nil {
		resolver = &site.Resolver{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{
		retriever: r,
		resolver:  resolver,
		store:     store,
		detector:  detector,
		logger:    logger,
	}
}

// Report timestamps are RFC 3339 in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Scan performs a fresh scan and persists the result. A retrieval failure
// yields a report with a null grade and score, an error code and no test
// results; a cancelled scan is returned but never persisted.
func (s *Scanner) Scan(ctx context.Context, target site.Site) *output.ScanReport {
	return s.scan(ctx, target, true)
}

// scan is Scan with persistence optional; the full-details cache path runs
// scans purely in memory.
func (s *Scanner) scan(ctx context.Context, target site.Site, persist bool) *output.ScanReport {
	start := time.Now()
	report := &output.ScanReport{
		AlgorithmVersion: grade.AlgorithmVersion,
		StartTime:        formatTime(start),
		Tests:            map[string]output.TestResult{},
	}

	if err := s.resolver.Resolve(ctx, target); err != nil {
		return s.finishError(ctx, target, report, errorCode(err), persist)
	}

	req, err := s.retriever.Retrieve(ctx, target)
	if err != nil {
		s.logger.Warn("retrieval failed", "site", target.Key(), "error", err)
		return s.finishError(ctx, target, report, errorCode(err), persist)
	}

	overrides := s.expectations(ctx, target.Key())
	tests := checks.Run(req, overrides)
	graded := grade.Score(tests)

	report.Grade = null.StringFrom(graded.Grade)
	report.Score = null.IntFrom(int64(graded.Score))
	report.StatusCode = req.StatusCode
	report.TestsPassed = graded.TestsPassed
	report.TestsFailed = graded.TestsFailed
	report.TestsQuantity = graded.TestsQuantity
	report.ResponseHeaders = req.LowercaseHeaders()
	report.Fingerprint = &req.Fingerprint
	report.Technologies = s.detector.Detect(req.Headers, req.Body)
	report.CDN = cdn.Detect(req.Headers)
	report.Tests = tests
	report.EndTime = formatTime(time.Now())

	if persist {
		s.persist(ctx, target, report)
	}
	s.logger.Info("scan complete",
		"site", target.Key(),
		"grade", graded.Grade,
		"score", graded.Score,
		"duration", time.Since(start),
	)
	return report
}

func (s *Scanner) finishError(ctx context.Context, target site.Site, report *output.ScanReport, code string, persist bool) *output.ScanReport {
	report.Error = code
	report.EndTime = formatTime(time.Now())
	if persist && code != retriever.ErrScanCancelled {
		s.persist(ctx, target, report)
	}
	return report
}

func (s *Scanner) persist(ctx context.Context, target site.Site, report *output.ScanReport) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveScan(ctx, target.Key(), report); err != nil {
		s.logger.Error("persisting scan failed", "site", target.Key(), "error", err)
	}
}

func (s *Scanner) expectations(ctx context.Context, siteKey string) map[string]string {
	if s.store == nil {
		return nil
	}
	overrides, err := s.store.Expectations(ctx, siteKey)
	if err != nil {
		s.logger.Warn("loading expectations failed", "site", siteKey, "error", err)
		return nil
	}
	return overrides
}

// errorCode reduces a scan failure to the stable code stored and emitted.
func errorCode(err error) string {
	var scanErr *retriever.ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Code
	}
	switch {
	case errors.Is(err, site.ErrInvalidHostname):
		return "invalid-hostname"
	case errors.Is(err, site.ErrInvalidPort):
		return "invalid-port"
	case errors.Is(err, site.ErrInvalidHostnameLookup):
		return "invalid-hostname-lookup"
	case errors.Is(err, context.Canceled):
		return retriever.ErrScanCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return retriever.ErrScanTimeout
	}
	return retriever.ErrConnection
}
