package scanner

import (
	"context"
	"time"

	"httpobs/internal/output"
	"httpobs/internal/site"
)

// Cache windows. A scan request inside the window is answered from the
// stored result instead of hitting the target again.
const (
	// DefaultCooldown applies to explicit scan requests.
	DefaultCooldown = time.Minute

	// AnalyzeMaxAge applies to read-mostly analyze lookups.
	AnalyzeMaxAge = 24 * time.Hour
)

// ScanCached returns a stored scan no older than maxAge when one exists,
// and otherwise performs a fresh scan. Concurrent requests for the same
// canonical site key share a single in-flight scan.
func (s *Scanner) ScanCached(ctx context.Context, target site.Site, maxAge time.Duration) (*output.ScanReport, error) {
	key := target.Key()

	if s.store != nil && maxAge > 0 {
		recent, err := s.store.RecentScan(ctx, key, maxAge)
		if err != nil {
			s.logger.Warn("cooldown lookup failed", "site", key, "error", err)
		} else if recent != nil {
			s.logger.Debug("serving cached scan", "site", key, "max_age", maxAge)
			return recent.Clone(), nil
		}
	}

	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.scan(ctx, target, true), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("coalesced concurrent scan", "site", key)
	}
	// Coalesced callers all see the same report; hand each its own copy so
	// none observes another's mutations.
	return result.(*output.ScanReport).Clone(), nil
}

// ScanCachedFullDetails is ScanCached plus the per-test results. Stored
// scans are summaries without test output, so a cache hit triggers a fresh
// scan, never persisted, whose results fill the tests map while the stored
// summary remains the scan object.
func (s *Scanner) ScanCachedFullDetails(ctx context.Context, target site.Site, maxAge time.Duration) (*output.ScanReport, map[string]output.TestResult, error) {
	report, err := s.ScanCached(ctx, target, maxAge)
	if err != nil {
		return nil, nil, err
	}
	if len(report.Tests) > 0 || report.Error != "" {
		return report, report.Tests, nil
	}

	result, err, _ := s.detailGroup.Do(target.Key(), func() (interface{}, error) {
		return s.scan(ctx, target, false), nil
	})
	if err != nil {
		return nil, nil, err
	}
	detail := result.(*output.ScanReport).Clone()
	if detail.Error != "" {
		return report, report.Tests, nil
	}
	return report, detail.Tests, nil
}
