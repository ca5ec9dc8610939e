package checks

import (
	"strings"

	"httpobs/internal/retriever"
)

var referrerPrivate = map[string]bool{
	"no-referrer":                     true,
	"same-origin":                     true,
	"strict-origin":                   true,
	"strict-origin-when-cross-origin": true,
	// Historic default; keeps the referrer off plain-text downgrades.
	"no-referrer-when-downgrade": true,
}

var referrerUnsafe = map[string]bool{
	"origin":                   true,
	"origin-when-cross-origin": true,
	"unsafe-url":               true,
}

// evalReferrerPolicy reads the Referrer-Policy header and any
// <meta name="referrer"> tag. Both accept a comma-separated fallback list;
// the last recognized token wins, with meta considered after headers.
func evalReferrerPolicy(req *retriever.Requests) Outcome {
	var tokens []string
	for _, value := range req.Headers.Values("Referrer-Policy") {
		for _, token := range strings.Split(value, ",") {
			tokens = append(tokens, strings.ToLower(strings.TrimSpace(token)))
		}
	}
	if req.IsHTML() {
		for _, value := range parseHTML(req.Body).metaReferrer {
			tokens = append(tokens, strings.ToLower(strings.TrimSpace(value)))
		}
	}

	if len(tokens) == 0 {
		return Outcome{
			Result:      "referrer-policy-not-implemented",
			Pass:        true,
			Description: "Referrer-Policy header not implemented",
		}
	}

	policy := ""
	for _, token := range tokens {
		if referrerPrivate[token] || referrerUnsafe[token] {
			policy = token
		}
	}

	data := map[string]interface{}{"tokens": tokens, "policy": policy}
	switch {
	case policy == "":
		return Outcome{
			Result:      "referrer-policy-header-invalid",
			Output:      data,
			Description: "Referrer-Policy header cannot be recognized",
		}
	case referrerPrivate[policy]:
		return Outcome{
			Result:      "referrer-policy-private",
			Pass:        true,
			Output:      data,
			Description: "Referrer-Policy header set to a privacy-preserving value",
		}
	default:
		return Outcome{
			Result:      "referrer-policy-unsafe",
			Output:      data,
			Description: "Referrer-Policy header set unsafely, leaks origin or full URL cross-origin",
		}
	}
}
