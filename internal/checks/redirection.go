package checks

import (
	"net/url"

	"httpobs/internal/retriever"
)

type redirectionFacts struct {
	Probe    retriever.HTTPProbe `json:"probe"`
	FinalURL string              `json:"final_url,omitempty"`
}

// evalRedirection grades the plain-HTTP entry point: a site should answer
// port 80 with an immediate same-host redirect to HTTPS. Only the first
// redirect is visible; the probe deliberately does not follow chains.
func evalRedirection(req *retriever.Requests) Outcome {
	facts := redirectionFacts{Probe: req.HTTPProbe}
	if req.FinalURL != nil {
		facts.FinalURL = req.FinalURL.String()
	}

	// A site whose HTTPS entry ends up back on plain HTTP has downgraded
	// the connection no matter what port 80 does.
	if req.FinalURL != nil && req.FinalURL.Scheme != "https" {
		return Outcome{
			Result:      "redirection-not-to-https",
			Output:      facts,
			Description: "Final destination is not an HTTPS URL",
		}
	}

	probe := req.HTTPProbe
	switch {
	case !probe.Reachable || probe.StatusCode >= 400:
		return Outcome{
			Result:      "redirection-not-needed-no-http",
			Pass:        true,
			Output:      facts,
			Description: "No plain-text HTTP endpoint to redirect from",
		}
	case probe.StatusCode < 300:
		return Outcome{
			Result:      "redirection-not-to-https",
			Output:      facts,
			Description: "Site serves plain-text HTTP without redirecting to HTTPS",
		}
	case probe.Location == "":
		return Outcome{
			Result:      "redirection-missing",
			Output:      facts,
			Description: "Redirect response without a Location header",
		}
	}

	base := &url.URL{Scheme: "http", Host: req.Site.Host}
	target, err := base.Parse(probe.Location)
	if err != nil {
		return Outcome{
			Result:      "redirection-missing",
			Output:      facts,
			Description: "Redirect Location header cannot be parsed",
		}
	}

	switch {
	case target.Scheme != "https":
		return Outcome{
			Result:      "redirection-not-to-https-on-initial-redirection",
			Output:      facts,
			Description: "Initial redirection from HTTP does not go to HTTPS",
		}
	case target.Hostname() != req.Site.Host:
		// The first redirect must stay on-host or HSTS can never be set
		// for the original domain.
		return Outcome{
			Result:      "redirection-off-host-from-http",
			Output:      facts,
			Description: "Initial redirection is to HTTPS on a different host",
		}
	default:
		return Outcome{
			Result:      "redirection-to-https",
			Pass:        true,
			Output:      facts,
			Description: "Initial redirection from HTTP to HTTPS on the same host",
		}
	}
}
