package checks

import (
	"strings"

	"httpobs/internal/retriever"
)

// evalCrossOriginResourceSharing inspects Access-Control-Allow-Origin on
// the final response. The probes never fetch crossdomain.xml or
// clientaccesspolicy.xml; only header-based CORS is observable.
func evalCrossOriginResourceSharing(req *retriever.Requests) Outcome {
	acao := strings.TrimSpace(req.Headers.Get("Access-Control-Allow-Origin"))
	if acao == "" {
		return Outcome{
			Result:      "cross-origin-resource-sharing-not-implemented",
			Pass:        true,
			Description: "Content is not visible via cross-origin resource sharing",
		}
	}

	data := map[string]string{"acao": acao}
	if acao == "*" {
		return Outcome{
			Result:      "cross-origin-resource-sharing-implemented-with-public-access",
			Output:      data,
			Description: "Access-Control-Allow-Origin allows any origin to read this resource",
		}
	}

	return Outcome{
		Result:      "cross-origin-resource-sharing-implemented-with-restricted-access",
		Pass:        true,
		Output:      data,
		Description: "Access-Control-Allow-Origin restricted to a fixed set of origins",
	}
}
