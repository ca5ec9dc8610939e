// Package useragent provides the user-agent string sent on every probe.
// Scans must be reproducible, so the string is stable per release rather
// than randomized.
package useragent

import "httpobs/pkg/version"

// Get returns the scanner user-agent. A non-empty override wins.
func Get(override string) string {
	if override != "" {
		return override
	}
	return "httpobs-scanner/" + version.GetShortVersion()
}
