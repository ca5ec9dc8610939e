package retriever

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"httpobs/internal/hash"
	"httpobs/internal/preload"
	"httpobs/internal/site"
)

// Requests is the immutable snapshot of everything one scan observed. It is
// produced once by Retrieve and consumed read-only by the test battery; no
// evaluator touches the network.
type Requests struct {
	Site site.Site

	// Final response of the HTTPS probe after redirects.
	FinalURL      *url.URL
	StatusCode    int
	Headers       http.Header
	Body          []byte
	BodyTruncated bool

	// Every Set-Cookie observed along the redirect chain, in order.
	Cookies []Cookie

	// Plain-HTTP probe of the base URL (no redirect following).
	HTTPProbe HTTPProbe

	// robots.txt body from the final origin, nil when unavailable.
	Robots *string

	// HSTS preload verdict for the final host's registrable domain.
	Preload preload.Result

	Fingerprint hash.Fingerprint
}

// HTTPProbe is the result of the plain-text probe. It exists to feed the
// redirection test; its body is never kept.
type HTTPProbe struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Cookie is one observed Set-Cookie, annotated with the hop that emitted
// it. The same name may appear several times along a chain; order is
// preserved and nothing is keyed by name.
type Cookie struct {
	Name        string `json:"name"`
	Value       string `json:"-"`
	Secure      bool   `json:"secure"`
	HttpOnly    bool   `json:"httponly"`
	SameSite    string `json:"samesite,omitempty"` // lax, strict, none, invalid or ""
	Path        string `json:"path,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Expires     string `json:"expires,omitempty"`
	MaxAge      string `json:"max_age,omitempty"`
	SetOnScheme string `json:"set_on_scheme"`
	SetOnHost   string `json:"set_on_host"`
}

// ParseSetCookie parses one Set-Cookie header value. Attribute handling is
// deliberately lenient: the scanner grades what servers actually send,
// including values the stdlib would discard.
func ParseSetCookie(line, scheme, host string) (Cookie, bool) {
	parts := strings.Split(line, ";")
	if len(parts) == 0 {
		return Cookie{}, false
	}

	name, value, ok := strings.Cut(strings.TrimSpace(parts[0]), "=")
	if !ok || name == "" {
		return Cookie{}, false
	}

	c := Cookie{
		Name:        name,
		Value:       value,
		SetOnScheme: scheme,
		SetOnHost:   host,
	}

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		key, val, _ := strings.Cut(attr, "=")
		switch strings.ToLower(key) {
		case "secure":
			c.Secure = true
		case "httponly":
			c.HttpOnly = true
		case "path":
			c.Path = val
		case "domain":
			c.Domain = strings.TrimPrefix(strings.ToLower(val), ".")
		case "expires":
			c.Expires = val
		case "max-age":
			c.MaxAge = val
		case "samesite":
			switch strings.ToLower(val) {
			case "lax", "strict", "none":
				c.SameSite = strings.ToLower(val)
			default:
				c.SameSite = "invalid"
			}
		}
	}
	return c, true
}

// IsHTML reports whether the final response was delivered as HTML. The SRI
// and meta-CSP inputs only exist for HTML documents.
func (r *Requests) IsHTML() bool {
	ct := strings.ToLower(r.Headers.Get("Content-Type"))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// LowercaseHeaders flattens the response headers into the lowercase-keyed
// map emitted in reports. Multi-value headers are comma-joined.
func (r *Requests) LowercaseHeaders() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// FinalOrigin returns scheme://host[:port] of the final URL.
func (r *Requests) FinalOrigin() string {
	if r.FinalURL == nil {
		return ""
	}
	u := url.URL{Scheme: r.FinalURL.Scheme, Host: r.FinalURL.Host}
	return u.String()
}

// OnDefaultPort reports whether the final URL uses its scheme's default port.
func (r *Requests) OnDefaultPort() bool {
	if r.FinalURL == nil {
		return true
	}
	port := r.FinalURL.Port()
	if port == "" {
		return true
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return (r.FinalURL.Scheme == "https" && p == 443) || (r.FinalURL.Scheme == "http" && p == 80)
}
