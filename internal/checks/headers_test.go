package checks

import "testing"

func TestEvalXContentTypeOptions(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		pass   bool
	}{
		{"missing", "", "x-content-type-options-not-implemented", false},
		{"nosniff", "nosniff", "x-content-type-options-nosniff", true},
		{"case insensitive", "NOSNIFF", "x-content-type-options-nosniff", true},
		{"trailing parameter", "nosniff, nosniff", "x-content-type-options-nosniff", true},
		{"unrecognized", "sniff", "x-content-type-options-header-invalid", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["X-Content-Type-Options"] = tc.header
			}
			outcome := evalXContentTypeOptions(snapshot(t, headers, ""))
			if outcome.Result != tc.want || outcome.Pass != tc.pass {
				t.Errorf("got %q/%v, want %q/%v", outcome.Result, outcome.Pass, tc.want, tc.pass)
			}
		})
	}
}

func TestEvalXFrameOptions(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
		pass    bool
	}{
		{
			name: "missing",
			want: "x-frame-options-not-implemented",
		},
		{
			name:    "deny",
			headers: map[string]string{"X-Frame-Options": "DENY"},
			want:    "x-frame-options-sameorigin-or-deny",
			pass:    true,
		},
		{
			name:    "sameorigin lowercase",
			headers: map[string]string{"X-Frame-Options": "sameorigin"},
			want:    "x-frame-options-sameorigin-or-deny",
			pass:    true,
		},
		{
			name:    "allow-from",
			headers: map[string]string{"X-Frame-Options": "ALLOW-FROM https://example.net"},
			want:    "x-frame-options-allow-from-origin",
		},
		{
			name:    "unrecognized",
			headers: map[string]string{"X-Frame-Options": "DENYALL"},
			want:    "x-frame-options-header-invalid",
		},
		{
			name: "frame-ancestors beats missing header",
			headers: map[string]string{
				"Content-Security-Policy": "frame-ancestors 'none'",
			},
			want: "x-frame-options-implemented-via-csp",
			pass: true,
		},
		{
			name: "frame-ancestors beats invalid header",
			headers: map[string]string{
				"Content-Security-Policy": "frame-ancestors 'self'",
				"X-Frame-Options":         "DENYALL",
			},
			want: "x-frame-options-implemented-via-csp",
			pass: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := evalXFrameOptions(snapshot(t, tc.headers, ""))
			if outcome.Result != tc.want || outcome.Pass != tc.pass {
				t.Errorf("got %q/%v, want %q/%v", outcome.Result, outcome.Pass, tc.want, tc.pass)
			}
		})
	}
}

func TestEvalCrossOriginResourcePolicy(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		pass   bool
	}{
		{"missing", "", "cross-origin-resource-policy-not-implemented", true},
		{"same-origin", "same-origin", "cross-origin-resource-policy-implemented-with-same-origin", true},
		{"same-site padded", "  Same-Site ", "cross-origin-resource-policy-implemented-with-same-site", true},
		{"cross-origin", "cross-origin", "cross-origin-resource-policy-implemented-with-cross-origin", true},
		{"unrecognized", "any-origin", "cross-origin-resource-policy-header-invalid", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Cross-Origin-Resource-Policy"] = tc.header
			}
			outcome := evalCrossOriginResourcePolicy(snapshot(t, headers, ""))
			if outcome.Result != tc.want || outcome.Pass != tc.pass {
				t.Errorf("got %q/%v, want %q/%v", outcome.Result, outcome.Pass, tc.want, tc.pass)
			}
		})
	}
}

func TestEvalCrossOriginResourceSharing(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		pass   bool
	}{
		{"missing", "", "cross-origin-resource-sharing-not-implemented", true},
		{"wildcard", "*", "cross-origin-resource-sharing-implemented-with-public-access", false},
		{"fixed origin", "https://app.example.com", "cross-origin-resource-sharing-implemented-with-restricted-access", true},
		{"null origin", "null", "cross-origin-resource-sharing-implemented-with-restricted-access", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Access-Control-Allow-Origin"] = tc.header
			}
			outcome := evalCrossOriginResourceSharing(snapshot(t, headers, ""))
			if outcome.Result != tc.want || outcome.Pass != tc.pass {
				t.Errorf("got %q/%v, want %q/%v", outcome.Result, outcome.Pass, tc.want, tc.pass)
			}
		})
	}
}

func TestEvalReferrerPolicy(t *testing.T) {
	cases := []struct {
		name   string
		header string
		body   string
		want   string
		pass   bool
	}{
		{
			name: "missing",
			want: "referrer-policy-not-implemented",
			pass: true,
		},
		{
			name:   "no-referrer",
			header: "no-referrer",
			want:   "referrer-policy-private",
			pass:   true,
		},
		{
			name:   "default downgrade policy counts as private",
			header: "no-referrer-when-downgrade",
			want:   "referrer-policy-private",
			pass:   true,
		},
		{
			name:   "unsafe-url",
			header: "unsafe-url",
			want:   "referrer-policy-unsafe",
		},
		{
			name:   "fallback list last recognized wins",
			header: "unsafe-url, strict-origin-when-cross-origin",
			want:   "referrer-policy-private",
			pass:   true,
		},
		{
			name:   "unknown tokens only",
			header: "maximum-privacy",
			want:   "referrer-policy-header-invalid",
		},
		{
			name:   "unknown token ignored in list",
			header: "maximum-privacy, same-origin",
			want:   "referrer-policy-private",
			pass:   true,
		},
		{
			name: "meta tag only",
			body: `<meta name="referrer" content="origin">`,
			want: "referrer-policy-unsafe",
		},
		{
			name:   "meta considered after header",
			header: "no-referrer",
			body:   `<meta name="referrer" content="unsafe-url">`,
			want:   "referrer-policy-unsafe",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Referrer-Policy"] = tc.header
			}
			outcome := evalReferrerPolicy(snapshot(t, headers, tc.body))
			if outcome.Result != tc.want || outcome.Pass != tc.pass {
				t.Errorf("got %q/%v, want %q/%v", outcome.Result, outcome.Pass, tc.want, tc.pass)
			}
		})
	}
}
