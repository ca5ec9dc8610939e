// Package tech identifies the server-side stack of a scanned site from its
// response headers and body. Detection is best effort and purely
// informational; it never affects the score.
package tech

import (
	"net/http"
	"sort"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

// Detector wraps the wappalyzer fingerprint database.
type Detector struct {
	wappalyze *wappalyzer.Wappalyze
}

// NewDetector loads the embedded fingerprint database.
func NewDetector() (*Detector, error) {
	wappalyze, err := wappalyzer.New()
	if err != nil {
		return nil, err
	}
	return &Detector{wappalyze: wappalyze}, nil
}

// Detect returns the technologies matched against the final response,
// sorted for stable report output. A nil Detector detects nothing.
func (d *Detector) Detect(headers http.Header, body []byte) []string {
	if d == nil || d.wappalyze == nil {
		return nil
	}

	fingerprints := d.wappalyze.Fingerprint(headers, body)
	if len(fingerprints) == 0 {
		return nil
	}

	techs := make([]string, 0, len(fingerprints))
	for tech := range fingerprints {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs
}
