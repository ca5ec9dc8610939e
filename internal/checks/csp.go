package checks

import (
	"strings"

	"httpobs/internal/retriever"
)

// cspPolicy is the effective policy: directive name → ordered source list,
// with a provenance tag recording whether the header or a meta tag
// contributed each directive.
type cspPolicy struct {
	Directives map[string][]string `json:"directives"`
	Provenance map[string]string   `json:"provenance"` // directive → "header" | "meta"
}

// parseCSPText parses one policy string into directive → sources. Directive
// names are lowercased; the first occurrence of a directive wins, per the
// CSP processing model. Returns ok=false when nothing parseable remains.
func parseCSPText(text string) (map[string][]string, bool) {
	directives := make(map[string][]string)
	valid := false

	for _, segment := range strings.Split(text, ";") {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if !validDirectiveName(name) {
			return nil, false
		}
		if _, dup := directives[name]; dup {
			continue
		}
		sources := make([]string, 0, len(fields)-1)
		for _, src := range fields[1:] {
			sources = append(sources, strings.ToLower(src))
		}
		directives[name] = sources
		valid = true
	}
	return directives, valid
}

func validDirectiveName(name string) bool {
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return name != ""
}

// mergeCSP builds the effective policy from header values and, for HTML
// responses, meta-delivered policies. Header directives win on conflict;
// meta only contributes directives the header did not set.
func mergeCSP(headerValues, metaValues []string) (*cspPolicy, bool) {
	policy := &cspPolicy{
		Directives: make(map[string][]string),
		Provenance: make(map[string]string),
	}

	merge := func(values []string, source string) bool {
		for _, value := range values {
			if strings.TrimSpace(value) == "" {
				return false
			}
			directives, ok := parseCSPText(value)
			if !ok {
				return false
			}
			for name, sources := range directives {
				if _, exists := policy.Directives[name]; exists {
					continue
				}
				policy.Directives[name] = sources
				policy.Provenance[name] = source
			}
		}
		return true
	}

	if !merge(headerValues, "header") {
		return nil, false
	}
	if !merge(metaValues, "meta") {
		return nil, false
	}
	return policy, true
}

// effective resolves a fetch directive through the default-src fallback.
func (p *cspPolicy) effective(directive string) ([]string, bool) {
	if sources, ok := p.Directives[directive]; ok {
		return sources, true
	}
	sources, ok := p.Directives["default-src"]
	return sources, ok
}

func sourceListContains(sources []string, value string) bool {
	for _, s := range sources {
		if s == value {
			return true
		}
	}
	return false
}

// hasInsecureSource reports whether a source list admits plain-text
// schemes: http:/ws: scheme sources or explicit http:// / ws:// hosts.
// A wildcard also admits insecure hosts under CSP2 matching.
func hasInsecureSource(sources []string) bool {
	for _, s := range sources {
		if s == "*" || s == "http:" || s == "ws:" || s == "ftp:" {
			return true
		}
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "ftp://") {
			return true
		}
	}
	return false
}

// allowsUnsafeInline reports whether a source list permits inline code.
// A nonce, hash or 'strict-dynamic' source neutralizes 'unsafe-inline' in
// CSP3 browsers, so their presence suppresses the finding.
func allowsUnsafeInline(sources []string) bool {
	if !sourceListContains(sources, "'unsafe-inline'") && !sourceListContains(sources, "data:") {
		return false
	}
	for _, s := range sources {
		if strings.HasPrefix(s, "'nonce-") || strings.HasPrefix(s, "'sha256-") ||
			strings.HasPrefix(s, "'sha384-") || strings.HasPrefix(s, "'sha512-") ||
			s == "'strict-dynamic'" {
			return false
		}
	}
	return true
}

// evalContentSecurityPolicy merges header and meta policies and classifies
// the result. The predicate list is ordered most severe first; the first
// match assigns the result.
func evalContentSecurityPolicy(req *retriever.Requests) Outcome {
	headerValues := req.Headers.Values("Content-Security-Policy")
	var metaValues []string
	if req.IsHTML() {
		metaValues = parseHTML(req.Body).metaCSP
	}

	if len(headerValues) == 0 && len(metaValues) == 0 {
		return Outcome{
			Result:      "csp-not-implemented",
			Description: "Content Security Policy (CSP) header not implemented",
		}
	}

	policy, ok := mergeCSP(headerValues, metaValues)
	if !ok {
		return Outcome{
			Result:      "csp-header-invalid",
			Description: "Content Security Policy (CSP) header cannot be parsed",
		}
	}

	script, scriptOK := policy.effective("script-src")
	style, styleOK := policy.effective("style-src")
	_, hasDefault := policy.Directives["default-src"]
	_, hasScript := policy.Directives["script-src"]

	// img-src and media-src only load passive content; an insecure scheme
	// there is a lesser finding than in script or style.
	var passive []string
	for _, d := range []string{"img-src", "media-src"} {
		if sources, ok := policy.effective(d); ok {
			passive = append(passive, sources...)
		}
	}

	result := ""
	description := ""
	switch {
	case !hasDefault && !hasScript:
		result = "csp-implemented-but-no-default-src-or-script-src"
		description = "CSP implemented, but no default-src or script-src directive"
	case scriptOK && allowsUnsafeInline(script):
		result = "csp-implemented-with-unsafe-inline"
		description = "CSP implemented unsafely, allows 'unsafe-inline' inside script-src"
	case (scriptOK && hasInsecureSource(script)) || (styleOK && hasInsecureSource(style)):
		result = "csp-implemented-with-insecure-scheme"
		description = "CSP implemented, but allows resources over HTTP"
	case scriptOK && sourceListContains(script, "'unsafe-eval'"):
		result = "csp-implemented-with-unsafe-eval"
		description = "CSP implemented, but allows 'unsafe-eval'"
	case hasInsecureSource(passive):
		result = "csp-implemented-with-insecure-scheme-in-passive-content-only"
		description = "CSP implemented, but allows passive content (images, media) over HTTP"
	case styleOK && allowsUnsafeInline(style):
		result = "csp-implemented-with-unsafe-inline-in-style-src-only"
		description = "CSP implemented, 'unsafe-inline' allowed inside style-src only"
	default:
		result = "csp-implemented-with-no-unsafe"
		description = "CSP implemented without 'unsafe-inline' or 'unsafe-eval'"
	}

	pass := result == "csp-implemented-with-no-unsafe"

	return Outcome{
		Result:      result,
		Pass:        pass,
		Output:      policy,
		Description: description,
	}
}
