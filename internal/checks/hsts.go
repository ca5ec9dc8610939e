package checks

import (
	"strconv"
	"strings"

	"httpobs/internal/retriever"
)

// Minimum max-age for a passing HSTS policy: six months in seconds.
const hstsMinimumAge = 15552000

type hstsFacts struct {
	Header            string `json:"data,omitempty"`
	MaxAge            int64  `json:"max_age,omitempty"`
	IncludeSubDomains bool   `json:"include_sub_domains"`
	Preload           bool   `json:"preload"`
	Preloaded         bool   `json:"preloaded"`
}

// evalStrictTransportSecurity parses the Strict-Transport-Security header
// on the final HTTPS response and cross-checks the preload list. A
// preloaded registrable domain passes even without the header, since
// browsers enforce HSTS for it regardless.
func evalStrictTransportSecurity(req *retriever.Requests) Outcome {
	facts := hstsFacts{Preloaded: req.Preload.Preloaded}

	httpsFinal := req.FinalURL != nil && req.FinalURL.Scheme == "https"
	header := ""
	if httpsFinal {
		header = req.Headers.Get("Strict-Transport-Security")
	}
	facts.Header = header

	if header == "" {
		if facts.Preloaded {
			return Outcome{
				Result:      "hsts-preloaded",
				Pass:        true,
				Output:      facts,
				Description: "Preloaded via the HTTP Strict Transport Security preload list",
			}
		}
		return Outcome{
			Result:      "hsts-not-implemented",
			Output:      facts,
			Description: "HTTP Strict Transport Security (HSTS) header not implemented",
		}
	}

	maxAgeSeen := false
	for _, directive := range strings.Split(header, ";") {
		name, value, _ := strings.Cut(strings.TrimSpace(directive), "=")
		switch strings.ToLower(name) {
		case "max-age":
			age, err := strconv.ParseInt(strings.Trim(value, `"`), 10, 64)
			if err != nil {
				return Outcome{
					Result:      "hsts-header-invalid",
					Output:      facts,
					Description: "HSTS header cannot be parsed",
				}
			}
			facts.MaxAge = age
			maxAgeSeen = true
		case "includesubdomains":
			facts.IncludeSubDomains = true
		case "preload":
			facts.Preload = true
		}
	}

	switch {
	case !maxAgeSeen:
		return Outcome{
			Result:      "hsts-header-invalid",
			Output:      facts,
			Description: "HSTS header present but missing max-age",
		}
	case facts.MaxAge >= hstsMinimumAge:
		return Outcome{
			Result:      "hsts-implemented-max-age-at-least-six-months",
			Pass:        true,
			Output:      facts,
			Description: "HSTS header set to at least six months",
		}
	default:
		return Outcome{
			Result:      "hsts-implemented-max-age-less-than-six-months",
			Output:      facts,
			Description: "HSTS header set to less than six months",
		}
	}
}
