// Package checks implements the test battery: ten independent evaluators,
// each a pure function from the retrieved Requests snapshot to a result
// drawn from its declared enumerated set. Evaluators never perform I/O and
// never fail; malformed input maps onto an *-header-invalid style result.
package checks

import (
	"httpobs/internal/output"
	"httpobs/internal/retriever"
)

// Outcome is what an evaluator produces. Pass reflects the check's default
// expectation; an expectation override replaces it with strict equality.
type Outcome struct {
	Result      string
	Pass        bool
	Output      interface{}
	Description string
}

// Check is one registry row.
type Check struct {
	Name        string
	Expectation string
	Results     []string // enumerated result set, most severe first
	Eval        func(*retriever.Requests) Outcome
}

// Battery lists every check in evaluation order. The grader iterates this
// table; adding a test means adding a row here and its modifiers to the
// score table.
var Battery = []Check{
	{
		Name:        "content-security-policy",
		Expectation: "csp-implemented-with-no-unsafe",
		Results: []string{
			"csp-not-implemented",
			"csp-header-invalid",
			"csp-implemented-but-no-default-src-or-script-src",
			"csp-implemented-with-unsafe-inline",
			"csp-implemented-with-insecure-scheme",
			"csp-implemented-with-unsafe-eval",
			"csp-implemented-with-insecure-scheme-in-passive-content-only",
			"csp-implemented-with-unsafe-inline-in-style-src-only",
			"csp-implemented-with-no-unsafe",
		},
		Eval: evalContentSecurityPolicy,
	},
	{
		Name:        "cookies",
		Expectation: "cookies-secure-with-httponly-sessions",
		Results: []string{
			"cookies-session-without-httponly-flag",
			"cookies-without-secure-flag",
			"cookies-samesite-flag-invalid",
			"cookies-without-samesite-flag",
			"cookies-secure-with-httponly-sessions",
			"cookies-secure-with-httponly-sessions-and-samesite",
			"cookies-not-found",
		},
		Eval: evalCookies,
	},
	{
		Name:        "cross-origin-resource-sharing",
		Expectation: "cross-origin-resource-sharing-not-implemented",
		Results: []string{
			"cross-origin-resource-sharing-implemented-with-public-access",
			"cross-origin-resource-sharing-implemented-with-restricted-access",
			"cross-origin-resource-sharing-not-implemented",
		},
		Eval: evalCrossOriginResourceSharing,
	},
	{
		Name:        "redirection",
		Expectation: "redirection-to-https",
		Results: []string{
			"redirection-not-to-https",
			"redirection-missing",
			"redirection-not-to-https-on-initial-redirection",
			"redirection-off-host-from-http",
			"redirection-to-https",
			"redirection-not-needed-no-http",
		},
		Eval: evalRedirection,
	},
	{
		Name:        "referrer-policy",
		Expectation: "referrer-policy-private",
		Results: []string{
			"referrer-policy-header-invalid",
			"referrer-policy-unsafe",
			"referrer-policy-private",
			"referrer-policy-not-implemented",
		},
		Eval: evalReferrerPolicy,
	},
	{
		Name:        "strict-transport-security",
		Expectation: "hsts-implemented-max-age-at-least-six-months",
		Results: []string{
			"hsts-header-invalid",
			"hsts-not-implemented",
			"hsts-implemented-max-age-less-than-six-months",
			"hsts-implemented-max-age-at-least-six-months",
			"hsts-preloaded",
		},
		Eval: evalStrictTransportSecurity,
	},
	{
		Name:        "subresource-integrity",
		Expectation: "sri-implemented-and-external-scripts-loaded-securely",
		Results: []string{
			"sri-not-implemented-and-external-scripts-not-loaded-securely",
			"sri-implemented-but-external-scripts-not-loaded-securely",
			"sri-not-implemented-but-external-scripts-loaded-securely",
			"sri-not-implemented-but-all-scripts-loaded-from-secure-origin",
			"sri-implemented-and-external-scripts-loaded-securely",
			"sri-implemented-and-all-scripts-loaded-securely",
			"sri-not-implemented-but-no-scripts-loaded",
			"sri-not-implemented-response-not-html",
		},
		Eval: evalSubresourceIntegrity,
	},
	{
		Name:        "x-content-type-options",
		Expectation: "x-content-type-options-nosniff",
		Results: []string{
			"x-content-type-options-header-invalid",
			"x-content-type-options-not-implemented",
			"x-content-type-options-nosniff",
		},
		Eval: evalXContentTypeOptions,
	},
	{
		Name:        "x-frame-options",
		Expectation: "x-frame-options-sameorigin-or-deny",
		Results: []string{
			"x-frame-options-header-invalid",
			"x-frame-options-not-implemented",
			"x-frame-options-allow-from-origin",
			"x-frame-options-sameorigin-or-deny",
			"x-frame-options-implemented-via-csp",
		},
		Eval: evalXFrameOptions,
	},
	{
		Name:        "cross-origin-resource-policy",
		Expectation: "cross-origin-resource-policy-not-implemented",
		Results: []string{
			"cross-origin-resource-policy-header-invalid",
			"cross-origin-resource-policy-not-implemented",
			"cross-origin-resource-policy-implemented-with-same-origin",
			"cross-origin-resource-policy-implemented-with-same-site",
			"cross-origin-resource-policy-implemented-with-cross-origin",
		},
		Eval: evalCrossOriginResourcePolicy,
	},
}

// Run evaluates the whole battery against one snapshot. overrides replaces
// a check's default expectation for this site; with an override in force,
// pass becomes strict equality against it. Score modifiers are left at zero
// for the grader to fill from its table.
func Run(req *retriever.Requests, overrides map[string]string) map[string]output.TestResult {
	results := make(map[string]output.TestResult, len(Battery))
	for _, check := range Battery {
		outcome := check.Eval(req)

		expectation := check.Expectation
		pass := outcome.Pass
		if override, ok := overrides[check.Name]; ok && override != "" {
			expectation = override
			pass = outcome.Result == override
		}

		results[check.Name] = output.TestResult{
			Name:             check.Name,
			Expectation:      expectation,
			Result:           outcome.Result,
			Pass:             pass,
			ScoreDescription: outcome.Description,
			Output:           outcome.Output,
		}
	}
	return results
}
