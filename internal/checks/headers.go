package checks

import (
	"strings"

	"httpobs/internal/retriever"
)

func evalXContentTypeOptions(req *retriever.Requests) Outcome {
	value := req.Headers.Get("X-Content-Type-Options")
	data := map[string]string{"data": value}

	switch {
	case value == "":
		return Outcome{
			Result:      "x-content-type-options-not-implemented",
			Output:      data,
			Description: "X-Content-Type-Options header not implemented",
		}
	// Some servers append parameters; only the first token counts.
	case strings.EqualFold(strings.TrimSpace(strings.Split(value, ",")[0]), "nosniff"):
		return Outcome{
			Result:      "x-content-type-options-nosniff",
			Pass:        true,
			Output:      data,
			Description: "X-Content-Type-Options header set to nosniff",
		}
	default:
		return Outcome{
			Result:      "x-content-type-options-header-invalid",
			Output:      data,
			Description: "X-Content-Type-Options header cannot be recognized",
		}
	}
}

func evalXFrameOptions(req *retriever.Requests) Outcome {
	// A frame-ancestors directive in CSP supersedes X-Frame-Options in
	// every browser that understands it.
	var metaValues []string
	if req.IsHTML() {
		metaValues = parseHTML(req.Body).metaCSP
	}
	if policy, ok := mergeCSP(req.Headers.Values("Content-Security-Policy"), metaValues); ok {
		if _, found := policy.Directives["frame-ancestors"]; found {
			return Outcome{
				Result:      "x-frame-options-implemented-via-csp",
				Pass:        true,
				Output:      map[string]interface{}{"frame-ancestors": policy.Directives["frame-ancestors"]},
				Description: "X-Frame-Options implemented via the CSP frame-ancestors directive",
			}
		}
	}

	value := req.Headers.Get("X-Frame-Options")
	data := map[string]string{"data": value}
	normalized := strings.ToUpper(strings.TrimSpace(value))

	switch {
	case value == "":
		return Outcome{
			Result:      "x-frame-options-not-implemented",
			Output:      data,
			Description: "X-Frame-Options header not implemented",
		}
	case normalized == "DENY" || normalized == "SAMEORIGIN":
		return Outcome{
			Result:      "x-frame-options-sameorigin-or-deny",
			Pass:        true,
			Output:      data,
			Description: "X-Frame-Options header set to SAMEORIGIN or DENY",
		}
	case strings.HasPrefix(normalized, "ALLOW-FROM"):
		return Outcome{
			Result:      "x-frame-options-allow-from-origin",
			Output:      data,
			Description: "X-Frame-Options header uses ALLOW-FROM, which modern browsers ignore",
		}
	default:
		return Outcome{
			Result:      "x-frame-options-header-invalid",
			Output:      data,
			Description: "X-Frame-Options header cannot be recognized",
		}
	}
}

func evalCrossOriginResourcePolicy(req *retriever.Requests) Outcome {
	value := req.Headers.Get("Cross-Origin-Resource-Policy")
	data := map[string]string{"data": value}
	normalized := strings.ToLower(strings.TrimSpace(value))

	switch normalized {
	case "":
		return Outcome{
			Result:      "cross-origin-resource-policy-not-implemented",
			Pass:        true,
			Output:      data,
			Description: "Cross-Origin-Resource-Policy header not implemented",
		}
	case "same-origin", "same-site", "cross-origin":
		return Outcome{
			Result:      "cross-origin-resource-policy-implemented-with-" + normalized,
			Pass:        true,
			Output:      data,
			Description: "Cross-Origin-Resource-Policy header set to " + normalized,
		}
	default:
		return Outcome{
			Result:      "cross-origin-resource-policy-header-invalid",
			Output:      data,
			Description: "Cross-Origin-Resource-Policy header cannot be recognized",
		}
	}
}
