package checks

import (
	"httpobs/internal/retriever"
)

type sriScript struct {
	Src          string `json:"src"`
	SameOrigin   bool   `json:"same_origin"`
	Secure       bool   `json:"secure"`
	HasIntegrity bool   `json:"integrity"`
}

// evalSubresourceIntegrity classifies every <script src> of the delivered
// HTML by origin, transport security and integrity attribute. Inline
// scripts are not SRI's concern and are ignored.
func evalSubresourceIntegrity(req *retriever.Requests) Outcome {
	if !req.IsHTML() {
		return Outcome{
			Result:      "sri-not-implemented-response-not-html",
			Pass:        true,
			Description: "Response is not HTML, no scripts to protect",
		}
	}

	elements := parseHTML(req.Body).scripts
	if len(elements) == 0 {
		return Outcome{
			Result:      "sri-not-implemented-but-no-scripts-loaded",
			Pass:        true,
			Description: "No scripts loaded from HTML",
		}
	}

	scripts := make([]sriScript, 0, len(elements))
	var insecureTransport, externalWithoutIntegrity, anyIntegrity bool
	allIntegrity, anyExternal := true, false

	for _, el := range elements {
		s := sriScript{Src: el.Src, HasIntegrity: el.Integrity != ""}

		target, err := req.FinalURL.Parse(el.Src)
		if err != nil {
			// An unparseable src cannot be verified; treat it as an
			// unprotected external script.
			s.SameOrigin = false
		} else {
			s.SameOrigin = target.Host == req.FinalURL.Host
			s.Secure = target.Scheme == "https"
			if !s.Secure {
				insecureTransport = true
			}
		}

		if !s.SameOrigin {
			anyExternal = true
			if !s.HasIntegrity {
				externalWithoutIntegrity = true
			}
		}
		if s.HasIntegrity {
			anyIntegrity = true
		} else {
			allIntegrity = false
		}
		scripts = append(scripts, s)
	}

	data := map[string]interface{}{"scripts": scripts}

	var result, description string
	pass := false
	switch {
	case insecureTransport && !anyIntegrity:
		result = "sri-not-implemented-and-external-scripts-not-loaded-securely"
		description = "Scripts loaded over HTTP without subresource integrity"
	case insecureTransport:
		result = "sri-implemented-but-external-scripts-not-loaded-securely"
		description = "Subresource integrity in use, but scripts still load over HTTP"
	case externalWithoutIntegrity:
		result = "sri-not-implemented-but-external-scripts-loaded-securely"
		description = "External scripts load over HTTPS but lack subresource integrity"
	case !anyExternal && allIntegrity:
		result = "sri-implemented-and-all-scripts-loaded-securely"
		description = "Subresource integrity on every script, all loaded securely"
		pass = true
	case !anyExternal:
		result = "sri-not-implemented-but-all-scripts-loaded-from-secure-origin"
		description = "All scripts are same-origin over HTTPS; subresource integrity not needed"
		pass = true
	default:
		result = "sri-implemented-and-external-scripts-loaded-securely"
		description = "Subresource integrity on all external scripts, loaded over HTTPS"
		pass = true
	}

	return Outcome{Result: result, Pass: pass, Output: data, Description: description}
}
