package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"httpobs/internal/database"
	"httpobs/internal/output"
	"httpobs/internal/scanner"
	"httpobs/internal/site"
)

// scanResponse is the summary emitted by /scan and /analyze.
type scanResponse struct {
	Scan       *output.ScanReport `json:"scan"`
	DetailsURL string             `json:"details_url,omitempty"`
	History    []database.ScanRow `json:"history,omitempty"`
}

// fullDetailsResponse adds the per-test results.
type fullDetailsResponse struct {
	scanResponse
	Tests map[string]output.TestResult `json:"tests"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, apiError{Error: code, Message: message})
}

// siteFromRequest canonicalizes the host query parameter. Invalid input is
// a 422, matching the error codes the site package produces.
func (s *Server) siteFromRequest(w http.ResponseWriter, r *http.Request) (site.Site, bool) {
	host := r.URL.Query().Get("host")
	if host == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-hostname", "host parameter is required")
		return site.Site{}, false
	}
	target, err := site.Parse(host)
	if err != nil {
		code := "invalid-hostname"
		if errors.Is(err, site.ErrInvalidPort) {
			code = "invalid-port"
		}
		s.writeError(w, http.StatusUnprocessableEntity, code, err.Error())
		return site.Site{}, false
	}
	return target, true
}

func (s *Server) detailsURL(target site.Site) string {
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + "/api/v2/analyze?host=" + url.QueryEscape(target.Key())
}

func (s *Server) history(r *http.Request, target site.Site) []database.ScanRow {
	if s.stats == nil {
		return nil
	}
	rows, err := s.stats.History(r.Context(), target.Key(), 10)
	if err != nil {
		s.logger.Warn("history lookup failed", "site", target.Key(), "error", err)
		return nil
	}
	return rows
}

// handleScan runs (or serves from cooldown) a scan and returns the summary.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	target, ok := s.siteFromRequest(w, r)
	if !ok {
		return
	}

	report, err := s.scans.ScanCached(r.Context(), target, s.cooldown)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", err.Error())
		return
	}
	report.StripScoreDescriptions()

	s.writeJSON(w, http.StatusOK, scanResponse{
		Scan:       report,
		DetailsURL: s.detailsURL(target),
	})
}

// handleScanFullDetails is handleScan plus the per-test results. A scan
// served from the cooldown cache is a summary, so the scanner refreshes
// the tests in memory.
func (s *Server) handleScanFullDetails(w http.ResponseWriter, r *http.Request) {
	target, ok := s.siteFromRequest(w, r)
	if !ok {
		return
	}

	report, tests, err := s.scans.ScanCachedFullDetails(r.Context(), target, s.cooldown)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", err.Error())
		return
	}
	report.StripScoreDescriptions()
	output.StripScoreDescriptions(tests)

	s.writeJSON(w, http.StatusOK, fullDetailsResponse{
		scanResponse: scanResponse{Scan: report, DetailsURL: s.detailsURL(target)},
		Tests:        tests,
	})
}

// handleAnalyzeGet serves the read-mostly analyze view: a stored scan up to
// a day old, or a fresh one, with scan history attached.
func (s *Server) handleAnalyzeGet(w http.ResponseWriter, r *http.Request) {
	target, ok := s.siteFromRequest(w, r)
	if !ok {
		return
	}

	report, err := s.scans.ScanCached(r.Context(), target, scanner.AnalyzeMaxAge)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", err.Error())
		return
	}
	report.StripScoreDescriptions()

	s.writeJSON(w, http.StatusOK, scanResponse{
		Scan:       report,
		DetailsURL: s.detailsURL(target),
		History:    s.history(r, target),
	})
}

// handleAnalyzePost forces a rescan (inside the cooldown window) and
// returns full details with history.
func (s *Server) handleAnalyzePost(w http.ResponseWriter, r *http.Request) {
	target, ok := s.siteFromRequest(w, r)
	if !ok {
		return
	}

	report, tests, err := s.scans.ScanCachedFullDetails(r.Context(), target, s.cooldown)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", err.Error())
		return
	}
	report.StripScoreDescriptions()
	output.StripScoreDescriptions(tests)

	s.writeJSON(w, http.StatusOK, fullDetailsResponse{
		scanResponse: scanResponse{
			Scan:       report,
			DetailsURL: s.detailsURL(target),
			History:    s.history(r, target),
		},
		Tests: tests,
	})
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Results []scanner.BatchEntry `json:"results"`
}

// handleScanBatch scans up to the batch limit of hostnames concurrently.
// Per-entry failures are reported inline and never fail the request.
func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-request", "request body must be JSON with a urls array")
		return
	}
	if len(req.URLs) == 0 {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-request", "urls array is empty")
		return
	}

	entries, err := s.scans.ScanBatch(r.Context(), req.URLs, s.cooldown)
	if err != nil {
		if errors.Is(err, scanner.ErrBatchTooLarge) {
			s.writeError(w, http.StatusUnprocessableEntity, "batch-too-large", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "scan-failed", err.Error())
		return
	}

	for i := range entries {
		if entries[i].Report != nil {
			entries[i].Report.StripScoreDescriptions()
		}
		output.StripScoreDescriptions(entries[i].Tests)
	}
	s.writeJSON(w, http.StatusOK, batchResponse{Results: entries})
}

type gradeDistributionResponse struct {
	Distribution map[string]int `json:"distribution"`
	TotalScans   int64          `json:"total_scans"`
}

func (s *Server) handleGradeDistribution(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no-database", "statistics require a database")
		return
	}

	distribution, err := s.stats.GradeDistribution(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database-error", err.Error())
		return
	}
	total, err := s.stats.TotalScans(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database-error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, gradeDistributionResponse{
		Distribution: distribution,
		TotalScans:   total,
	})
}
