package checks

import (
	"strings"

	"httpobs/internal/retriever"
)

// sessionNamePatterns heuristically identify session cookies by name.
// Session cookies are graded more strictly: they must carry both Secure
// and HttpOnly.
var sessionNamePatterns = []string{
	"session",
	"login",
	"auth",
	"token",
	"sid",
}

func isSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range sessionNamePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

type cookieObservation struct {
	retriever.Cookie
	Session bool `json:"session"`
}

// evalCookies walks every cookie captured along the redirect chain. The
// same name may have been set several times; each setting is judged on the
// hop that emitted it. Severity order: session cookie without HttpOnly,
// any cookie without Secure, an unrecognized SameSite value, a missing
// SameSite attribute.
func evalCookies(req *retriever.Requests) Outcome {
	if len(req.Cookies) == 0 {
		return Outcome{
			Result:      "cookies-not-found",
			Pass:        true,
			Description: "No cookies detected",
		}
	}

	observed := make([]cookieObservation, 0, len(req.Cookies))
	var missingHttpOnlySession, missingSecure, invalidSameSite, missingSameSite bool
	allSameSite := true

	for _, c := range req.Cookies {
		session := isSessionCookie(c.Name)
		observed = append(observed, cookieObservation{Cookie: c, Session: session})

		if session && !c.HttpOnly {
			missingHttpOnlySession = true
		}
		if !c.Secure {
			missingSecure = true
		}
		switch c.SameSite {
		case "invalid":
			invalidSameSite = true
			allSameSite = false
		case "":
			missingSameSite = true
			allSameSite = false
		}
	}

	var result, description string
	switch {
	case missingHttpOnlySession:
		result = "cookies-session-without-httponly-flag"
		description = "Session cookie set without the HttpOnly flag"
	case missingSecure:
		result = "cookies-without-secure-flag"
		description = "Cookie set without the Secure flag"
	case invalidSameSite:
		result = "cookies-samesite-flag-invalid"
		description = "Cookie set with an invalid SameSite value"
	case missingSameSite:
		result = "cookies-without-samesite-flag"
		description = "Cookies set without the SameSite flag"
	case allSameSite:
		result = "cookies-secure-with-httponly-sessions-and-samesite"
		description = "All cookies use the Secure flag, session cookies use HttpOnly, and SameSite is set everywhere"
	default:
		result = "cookies-secure-with-httponly-sessions"
		description = "All cookies use the Secure flag and session cookies use the HttpOnly flag"
	}

	pass := result == "cookies-secure-with-httponly-sessions" ||
		result == "cookies-secure-with-httponly-sessions-and-samesite"

	return Outcome{
		Result:      result,
		Pass:        pass,
		Output:      map[string]interface{}{"cookies": observed},
		Description: description,
	}
}
