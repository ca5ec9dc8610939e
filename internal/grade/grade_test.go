package grade

import (
	"testing"

	"httpobs/internal/checks"
	"httpobs/internal/output"
)

// baseline is a strong configuration: every test passes and the CSP bonus
// is the only non-zero modifier, for a total of 105.
func baseline() map[string]output.TestResult {
	results := map[string]string{
		"content-security-policy":       "csp-implemented-with-no-unsafe",
		"cookies":                       "cookies-not-found",
		"cross-origin-resource-sharing": "cross-origin-resource-sharing-not-implemented",
		"redirection":                   "redirection-to-https",
		"referrer-policy":               "referrer-policy-private",
		"strict-transport-security":     "hsts-implemented-max-age-at-least-six-months",
		"subresource-integrity":         "sri-not-implemented-response-not-html",
		"x-content-type-options":        "x-content-type-options-nosniff",
		"x-frame-options":               "x-frame-options-sameorigin-or-deny",
		"cross-origin-resource-policy":  "cross-origin-resource-policy-not-implemented",
	}
	tests := make(map[string]output.TestResult, len(results))
	for name, result := range results {
		tests[name] = output.TestResult{Name: name, Result: result, Pass: true}
	}
	return tests
}

func withResult(tests map[string]output.TestResult, name, result string, pass bool) map[string]output.TestResult {
	tr := tests[name]
	tr.Result = result
	tr.Pass = pass
	tests[name] = tr
	return tests
}

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{135, "A+"},
		{105, "A+"},
		{100, "A+"},
		{99, "A"},
		{90, "A"},
		{89, "A-"},
		{85, "A-"},
		{84, "B+"},
		{80, "B+"},
		{79, "B"},
		{70, "B"},
		{69, "B-"},
		{65, "B-"},
		{64, "C+"},
		{60, "C+"},
		{59, "C"},
		{50, "C"},
		{49, "C-"},
		{45, "C-"},
		{44, "D+"},
		{40, "D+"},
		{39, "D"},
		{30, "D"},
		{29, "D-"},
		{25, "D-"},
		{24, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		if got := LetterGrade(tc.score); got != tc.want {
			t.Errorf("LetterGrade(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestScoreStrongConfiguration(t *testing.T) {
	result := Score(baseline())

	if result.Score != 105 {
		t.Errorf("score = %d, want 105", result.Score)
	}
	if result.Grade != "A+" {
		t.Errorf("grade = %q, want A+", result.Grade)
	}
	if result.TestsPassed != 10 || result.TestsFailed != 0 || result.TestsQuantity != 10 {
		t.Errorf("counts = %d/%d/%d, want 10/0/10",
			result.TestsPassed, result.TestsFailed, result.TestsQuantity)
	}
}

func TestScoreSingleFailures(t *testing.T) {
	cases := []struct {
		name      string
		test      string
		result    string
		wantScore int
		wantGrade string
	}{
		{"unsafe inline csp", "content-security-policy", "csp-implemented-with-unsafe-inline", 80, "B+"},
		{"missing xcto", "x-content-type-options", "x-content-type-options-not-implemented", 85, "A-"},
		{"missing hsts", "strict-transport-security", "hsts-not-implemented", 85, "A-"},
		{"public cors", "cross-origin-resource-sharing", "cross-origin-resource-sharing-implemented-with-public-access", 55, "C"},
		{"session cookie without httponly", "cookies", "cookies-session-without-httponly-flag", 75, "B"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tests := withResult(baseline(), tc.test, tc.result, false)
			result := Score(tests)
			if result.Score != tc.wantScore || result.Grade != tc.wantGrade {
				t.Errorf("got %d/%s, want %d/%s",
					result.Score, result.Grade, tc.wantScore, tc.wantGrade)
			}
			if result.TestsFailed != 1 {
				t.Errorf("tests_failed = %d, want 1", result.TestsFailed)
			}
		})
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	tests := baseline()
	withResult(tests, "content-security-policy", "csp-not-implemented", false)
	withResult(tests, "cookies", "cookies-session-without-httponly-flag", false)
	withResult(tests, "cross-origin-resource-sharing", "cross-origin-resource-sharing-implemented-with-public-access", false)
	withResult(tests, "redirection", "redirection-not-to-https", false)
	withResult(tests, "strict-transport-security", "hsts-not-implemented", false)
	withResult(tests, "subresource-integrity", "sri-not-implemented-and-external-scripts-not-loaded-securely", false)
	withResult(tests, "x-frame-options", "x-frame-options-not-implemented", false)

	result := Score(tests)
	if result.Score != 0 {
		t.Errorf("score = %d, want 0 after clamping", result.Score)
	}
	if result.Grade != "F" {
		t.Errorf("grade = %q, want F", result.Grade)
	}
}

func TestScoreStampsModifiers(t *testing.T) {
	tests := withResult(baseline(), "redirection", "redirection-not-to-https", false)
	Score(tests)

	if got := tests["redirection"].ScoreModifier; got != -20 {
		t.Errorf("redirection modifier = %d, want -20", got)
	}
	if got := tests["content-security-policy"].ScoreModifier; got != 5 {
		t.Errorf("csp modifier = %d, want 5", got)
	}
	if got := tests["cookies"].ScoreModifier; got != 0 {
		t.Errorf("cookies modifier = %d, want 0", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		result := Score(baseline())
		if result.Score != 105 || result.Grade != "A+" {
			t.Fatalf("run %d: got %d/%s, want 105/A+", i, result.Score, result.Grade)
		}
	}
}

// Every result a battery check can produce must have a row in the
// modifier table, and the table must not carry stale entries.
func TestModifierTableCoversBattery(t *testing.T) {
	known := make(map[string]bool)
	for _, check := range checks.Battery {
		for _, result := range check.Results {
			known[result] = true
			if _, ok := scoreModifiers[result]; !ok {
				t.Errorf("no modifier for %s result %q", check.Name, result)
			}
		}
	}
	for result := range scoreModifiers {
		if !known[result] {
			t.Errorf("modifier table entry %q matches no battery result", result)
		}
	}
}
