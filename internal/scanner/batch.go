package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"httpobs/internal/output"
	"httpobs/internal/site"
)

const (
	// MaxBatchSize caps one batch request.
	MaxBatchSize = 10

	// batchConcurrency bounds simultaneous scans inside a batch.
	batchConcurrency = 5
)

// ErrBatchTooLarge rejects oversized batch requests.
var ErrBatchTooLarge = errors.New("batch-too-large")

// BatchEntry is the per-hostname result of a batch scan. A failed entry
// carries an error code and message instead of a report; it never aborts
// the rest of the batch.
type BatchEntry struct {
	Hostname string                       `json:"hostname"`
	Success  bool                         `json:"success"`
	Error    string                       `json:"error,omitempty"`
	Message  string                       `json:"message,omitempty"`
	Report   *output.ScanReport           `json:"scan,omitempty"`
	Tests    map[string]output.TestResult `json:"tests,omitempty"`
}

// ScanBatch scans up to MaxBatchSize hostnames. Entries come back in input
// order; hostnames canonicalizing to the same site key are scanned once
// and share the result.
func (s *Scanner) ScanBatch(ctx context.Context, hostnames []string, maxAge time.Duration) ([]BatchEntry, error) {
	if len(hostnames) == 0 {
		return nil, nil
	}
	if len(hostnames) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d hostnames, limit %d", ErrBatchTooLarge, len(hostnames), MaxBatchSize)
	}

	entries := make([]BatchEntry, len(hostnames))
	targets := make(map[string]site.Site)       // canonical key -> target
	indexes := make(map[string][]int)           // canonical key -> entry positions
	for i, hostname := range hostnames {
		entries[i].Hostname = hostname
		target, err := site.Parse(hostname)
		if err != nil {
			entries[i].Error = errorCode(err)
			entries[i].Message = err.Error()
			continue
		}
		key := target.Key()
		targets[key] = target
		indexes[key] = append(indexes[key], i)
	}

	sem := make(chan struct{}, batchConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for key, target := range targets {
		wg.Add(1)
		go func(key string, target site.Site) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report, tests, err := s.ScanCachedFullDetails(ctx, target, maxAge)

			mu.Lock()
			defer mu.Unlock()
			for _, i := range indexes[key] {
				switch {
				case err != nil:
					entries[i].Error = errorCode(err)
					entries[i].Message = err.Error()
				case report.Error != "":
					entries[i].Error = report.Error
					entries[i].Message = "scan failed"
					entries[i].Report = report
				default:
					entries[i].Success = true
					entries[i].Report = report
					entries[i].Tests = tests
				}
			}
		}(key, target)
	}
	wg.Wait()

	return entries, nil
}
