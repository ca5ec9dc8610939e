package grade

// scoreModifiers is the single frozen table mapping every enumerated test
// result to its score delta. Bonuses are deliberately small; failures
// dominate. Changing any value here is a grading-semantics change and must
// bump AlgorithmVersion.
var scoreModifiers = map[string]int{
	// content-security-policy
	"csp-not-implemented":                                          -25,
	"csp-header-invalid":                                           -25,
	"csp-implemented-but-no-default-src-or-script-src":             -25,
	"csp-implemented-with-unsafe-inline":                           -20,
	"csp-implemented-with-insecure-scheme":                         -20,
	"csp-implemented-with-unsafe-eval":                             -10,
	"csp-implemented-with-insecure-scheme-in-passive-content-only": -10,
	"csp-implemented-with-unsafe-inline-in-style-src-only":         -5,
	"csp-implemented-with-no-unsafe":                               5,

	// cookies
	"cookies-session-without-httponly-flag":              -30,
	"cookies-without-secure-flag":                        -20,
	"cookies-samesite-flag-invalid":                      -10,
	"cookies-without-samesite-flag":                      -5,
	"cookies-secure-with-httponly-sessions":              0,
	"cookies-secure-with-httponly-sessions-and-samesite": 5,
	"cookies-not-found":                                  0,

	// cross-origin-resource-sharing
	"cross-origin-resource-sharing-implemented-with-public-access":     -50,
	"cross-origin-resource-sharing-implemented-with-restricted-access": 0,
	"cross-origin-resource-sharing-not-implemented":                    0,

	// redirection
	"redirection-not-to-https":                        -20,
	"redirection-missing":                             -20,
	"redirection-not-to-https-on-initial-redirection": -10,
	"redirection-off-host-from-http":                  -5,
	"redirection-to-https":                            0,
	"redirection-not-needed-no-http":                  0,

	// referrer-policy
	"referrer-policy-header-invalid":  -5,
	"referrer-policy-unsafe":          -5,
	"referrer-policy-private":         0,
	"referrer-policy-not-implemented": 0,

	// strict-transport-security
	"hsts-header-invalid":                          -20,
	"hsts-not-implemented":                         -20,
	"hsts-implemented-max-age-less-than-six-months": -10,
	"hsts-implemented-max-age-at-least-six-months":  0,
	"hsts-preloaded":                               5,

	// subresource-integrity
	"sri-not-implemented-and-external-scripts-not-loaded-securely":  -50,
	"sri-implemented-but-external-scripts-not-loaded-securely":      -20,
	"sri-not-implemented-but-external-scripts-loaded-securely":      -5,
	"sri-not-implemented-but-all-scripts-loaded-from-secure-origin": 0,
	"sri-implemented-and-external-scripts-loaded-securely":          5,
	"sri-implemented-and-all-scripts-loaded-securely":               5,
	"sri-not-implemented-but-no-scripts-loaded":                     0,
	"sri-not-implemented-response-not-html":                         0,

	// x-content-type-options
	"x-content-type-options-header-invalid":  -5,
	"x-content-type-options-not-implemented": -5,
	"x-content-type-options-nosniff":         0,

	// x-frame-options
	"x-frame-options-header-invalid":      -20,
	"x-frame-options-not-implemented":     -20,
	"x-frame-options-allow-from-origin":   -20,
	"x-frame-options-sameorigin-or-deny":  0,
	"x-frame-options-implemented-via-csp": 5,

	// cross-origin-resource-policy
	"cross-origin-resource-policy-header-invalid":               -5,
	"cross-origin-resource-policy-not-implemented":              0,
	"cross-origin-resource-policy-implemented-with-same-origin": 0,
	"cross-origin-resource-policy-implemented-with-same-site":   0,
	"cross-origin-resource-policy-implemented-with-cross-origin": 0,
}

// Modifier returns the score delta for a result. Unknown results score
// zero; the battery's enumerated sets are the source of truth.
func Modifier(result string) int {
	return scoreModifiers[result]
}
