// Package cdn recognizes content delivery networks from response headers.
// Like technology detection, the verdict is informational only and never
// affects a grade.
package cdn

import (
	"net/http"
	"strings"
)

type rule struct {
	Name        string
	HeaderKey   string
	HeaderValue string // empty means presence of the header is enough
	CheckFunc   func(http.Header) bool
}

var rules = []rule{
	{Name: "Cloudflare", HeaderKey: "Cf-Ray"},
	{Name: "Cloudflare", HeaderKey: "Server", HeaderValue: "cloudflare"},
	{Name: "CloudFront", HeaderKey: "X-Amz-Cf-Id"},
	{Name: "CloudFront", HeaderKey: "X-Amz-Cf-Pop"},
	{Name: "Fastly", HeaderKey: "X-Fastly-Request-Id"},
	{Name: "Fastly", HeaderKey: "Fastly-Debug-Digest"},
	{Name: "Akamai", HeaderKey: "X-Akamai-Transformed"},
	{Name: "Sucuri", HeaderKey: "X-Sucuri-Id"},
	{Name: "Incapsula", HeaderKey: "X-Iinfo"},
	{Name: "KeyCDN", HeaderKey: "Server", HeaderValue: "keycdn"},
	{Name: "StackPath", HeaderKey: "X-Hw"},
	{
		Name: "CloudFront",
		CheckFunc: func(h http.Header) bool {
			return strings.Contains(strings.ToLower(h.Get("Via")), "cloudfront")
		},
	},
	{
		Name: "Varnish",
		CheckFunc: func(h http.Header) bool {
			return strings.Contains(strings.ToLower(h.Get("Via")), "varnish")
		},
	},
}

// Detect returns the name of the CDN fronting the scanned site, or "" when
// none of the known signatures match.
func Detect(headers http.Header) string {
	for _, r := range rules {
		if r.CheckFunc != nil {
			if r.CheckFunc(headers) {
				return r.Name
			}
			continue
		}

		val := headers.Get(r.HeaderKey)
		if val == "" {
			continue
		}
		if r.HeaderValue == "" || strings.Contains(strings.ToLower(val), strings.ToLower(r.HeaderValue)) {
			return r.Name
		}
	}

	// Some providers announce themselves generically.
	return headers.Get("X-CDN")
}
