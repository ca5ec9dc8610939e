package checks

import (
	"bytes"
	"strings"

	htmlparser "golang.org/x/net/html"
)

// scriptElement is one <script src> found in the delivered HTML.
type scriptElement struct {
	Src       string `json:"src"`
	Integrity string `json:"integrity,omitempty"`
}

// htmlFacts is everything the battery needs from the bounded HTML body,
// extracted in a single parse.
type htmlFacts struct {
	metaCSP      []string // <meta http-equiv="Content-Security-Policy">
	metaReferrer []string // <meta name="referrer">
	scripts      []scriptElement
}

// parseHTML walks the document once. Parse errors yield empty facts; the
// battery treats an unparseable body the same as one with nothing in it.
func parseHTML(body []byte) htmlFacts {
	var facts htmlFacts
	if len(body) == 0 {
		return facts
	}

	doc, err := htmlparser.Parse(bytes.NewReader(body))
	if err != nil {
		return facts
	}

	var traverse func(*htmlparser.Node)
	traverse = func(n *htmlparser.Node) {
		if n.Type == htmlparser.ElementNode {
			switch n.Data {
			case "meta":
				var httpEquiv, name, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "http-equiv":
						httpEquiv = attr.Val
					case "name":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if strings.EqualFold(httpEquiv, "Content-Security-Policy") && content != "" {
					facts.metaCSP = append(facts.metaCSP, content)
				}
				if strings.EqualFold(name, "referrer") && content != "" {
					facts.metaReferrer = append(facts.metaReferrer, content)
				}
			case "script":
				var src, integrity string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "src":
						src = attr.Val
					case "integrity":
						integrity = attr.Val
					}
				}
				if src != "" {
					facts.scripts = append(facts.scripts, scriptElement{Src: src, Integrity: integrity})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return facts
}
