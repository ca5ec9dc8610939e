// Package preload answers whether a host is covered by the HSTS preload
// list shipped with browsers. Queries are made by registrable domain
// (eTLD+1), not full hostname: an entry with includeSubDomains covers every
// host beneath it, and entries without it cover only the exact domain.
package preload

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Entry is one row of the embedded snapshot.
type Entry struct {
	Name              string `json:"name"`
	IncludeSubDomains bool   `json:"include_subdomains"`
}

// Result of a preload lookup.
type Result struct {
	Preloaded bool   `json:"preloaded"`
	Entry     *Entry `json:"entry,omitempty"`
}

// Lookup reports whether host is covered by the embedded snapshot.
func Lookup(host string) Result {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return Result{}
	}

	// Exact hostname match first; the list may carry entries deeper than
	// the registrable domain.
	if e, ok := entries[host]; ok {
		return Result{Preloaded: true, Entry: &e}
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Result{}
	}

	e, ok := entries[registrable]
	if !ok {
		return Result{}
	}
	if registrable != host && !e.IncludeSubDomains {
		return Result{}
	}
	return Result{Preloaded: true, Entry: &e}
}

// Add registers extra entries at start-up. Used by tests and by deployments
// that refresh the snapshot without rebuilding.
func Add(name string, includeSubDomains bool) {
	name = strings.ToLower(name)
	entries[name] = Entry{Name: name, IncludeSubDomains: includeSubDomains}
}

// Remove drops an entry. Test hook.
func Remove(name string) {
	delete(entries, strings.ToLower(name))
}
