// Package output defines the wire shapes shared by the CLI and the API:
// per-test results and the assembled scan report.
package output

import (
	"gopkg.in/guregu/null.v3"

	"httpobs/internal/hash"
)

// TestResult is the outcome of one battery test. Result is drawn from the
// test's enumerated set; Pass reflects the expectation in force for the
// scanned site. ScoreModifier is filled in by the grader from the frozen
// modifier table.
type TestResult struct {
	Name             string      `json:"name"`
	Expectation      string      `json:"expectation"`
	Result           string      `json:"result"`
	Pass             bool        `json:"pass"`
	ScoreModifier    int         `json:"score_modifier"`
	ScoreDescription string      `json:"score_description,omitempty"`
	Output           interface{} `json:"output,omitempty"`
}

// ScanReport is the complete result of one scan. Grade and Score are null
// when retrieval failed; the tests map is empty in that case.
type ScanReport struct {
	AlgorithmVersion int               `json:"algorithm_version"`
	Grade            null.String       `json:"grade"`
	Score            null.Int          `json:"score"`
	Error            string            `json:"error,omitempty"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	StatusCode       int               `json:"status_code,omitempty"`
	TestsPassed      int               `json:"tests_passed"`
	TestsFailed      int               `json:"tests_failed"`
	TestsQuantity    int               `json:"tests_quantity"`
	ResponseHeaders  map[string]string `json:"response_headers,omitempty"`
	Fingerprint      *hash.Fingerprint `json:"fingerprint,omitempty"`
	Technologies     []string          `json:"technologies,omitempty"`
	CDN              string            `json:"cdn,omitempty"`

	// Tests is keyed by test name. Omitted from summary emissions; the
	// CLI and detail endpoints attach it explicitly.
	Tests map[string]TestResult `json:"-"`
}

// Clone returns a deep copy of the report. Callers that mutate a report
// (the API strips score descriptions in place) must never share one with
// concurrent readers.
func (r *ScanReport) Clone() *ScanReport {
	c := *r
	if r.Fingerprint != nil {
		fp := *r.Fingerprint
		c.Fingerprint = &fp
	}
	if r.ResponseHeaders != nil {
		c.ResponseHeaders = make(map[string]string, len(r.ResponseHeaders))
		for k, v := range r.ResponseHeaders {
			c.ResponseHeaders[k] = v
		}
	}
	if r.Technologies != nil {
		c.Technologies = append([]string(nil), r.Technologies...)
	}
	if r.Tests != nil {
		c.Tests = make(map[string]TestResult, len(r.Tests))
		for k, v := range r.Tests {
			c.Tests[k] = v
		}
	}
	return &c
}

// StripScoreDescriptions removes the human-readable descriptions before
// public API emission.
func StripScoreDescriptions(tests map[string]TestResult) {
	for name, tr := range tests {
		tr.ScoreDescription = ""
		tests[name] = tr
	}
}

// StripScoreDescriptions removes the descriptions from the report's own
// test map.
func (r *ScanReport) StripScoreDescriptions() {
	StripScoreDescriptions(r.Tests)
}
