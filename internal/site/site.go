// Package site turns arbitrary user input into a canonical scan target.
// The canonical key is the sole handle passed between the scanner layers:
// two inputs with the same key must produce identical scans.
package site

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Error codes surfaced to callers. The API layer maps all of them to 422.
var (
	ErrInvalidHostname       = errors.New("invalid-hostname")
	ErrInvalidPort           = errors.New("invalid-port")
	ErrInvalidHostnameLookup = errors.New("invalid-hostname-lookup")
)

const maxInputLength = 2048

// Site is a canonical host[:port][/path] target. Immutable after Parse.
type Site struct {
	Host string // lowercased hostname, no port
	Port int    // 0 when not specified
	Path string // "" or a path starting with "/"
}

// Key returns the canonical identifier: host[:port][/path].
func (s Site) Key() string {
	key := s.Host
	if s.Port != 0 {
		key += ":" + strconv.Itoa(s.Port)
	}
	return key + s.Path
}

// BaseURL builds the probe URL for the given scheme.
func (s Site) BaseURL(scheme string) string {
	u := &url.URL{Scheme: scheme, Host: s.Host, Path: s.Path}
	if s.Port != 0 {
		u.Host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// Parse canonicalizes a user-supplied string into a Site. It strips any
// http/https scheme, credentials, query and fragment, lowercases the host,
// preserves a non-empty path verbatim and validates host and port.
func Parse(input string) (Site, error) {
	input = strings.TrimSpace(input)
	if input == "" || len(input) > maxInputLength {
		return Site{}, fmt.Errorf("%w: empty or oversized input", ErrInvalidHostname)
	}
	if strings.ContainsAny(input, " \t\r\n\x00") {
		return Site{}, fmt.Errorf("%w: whitespace in input", ErrInvalidHostname)
	}

	// Strip scheme. Anything other than http/https is rejected rather than
	// silently probed over the wrong protocol.
	if i := strings.Index(input, "://"); i >= 0 {
		scheme := strings.ToLower(input[:i])
		if scheme != "http" && scheme != "https" {
			return Site{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidHostname, scheme)
		}
		input = input[i+3:]
	}

	// Strip query and fragment, then credentials. The userinfo separator
	// only counts inside the authority; an "@" in the path stays put.
	if i := strings.IndexAny(input, "?#"); i >= 0 {
		input = input[:i]
	}
	authority := input
	if i := strings.Index(input, "/"); i >= 0 {
		authority = input[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		input = input[i+1:]
	}
	if input == "" {
		return Site{}, fmt.Errorf("%w: no host", ErrInvalidHostname)
	}

	hostPort := input
	path := ""
	if i := strings.Index(input, "/"); i >= 0 {
		hostPort = input[:i]
		// A bare trailing slash is not a distinct site.
		if p := input[i:]; p != "/" {
			path = p
		}
	}

	host := strings.ToLower(hostPort)
	port := 0
	if i := strings.LastIndex(hostPort, ":"); i >= 0 {
		portStr := hostPort[i+1:]
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return Site{}, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
		}
		if p < 1 || p > 65535 {
			return Site{}, fmt.Errorf("%w: %d out of range", ErrInvalidPort, p)
		}
		host = strings.ToLower(hostPort[:i])
		port = p
	}

	if err := validateHostname(host); err != nil {
		return Site{}, err
	}

	return Site{Host: host, Port: port, Path: path}, nil
}

// validateHostname enforces the RFC-1035 hostname grammar: dot-separated
// labels of letters, digits and hyphens, no label starting or ending with a
// hyphen. Bare IP literals are rejected; the scanner grades names, not
// addresses. "localhost" is syntactically accepted and left to the resolver
// gate to allow or refuse.
func validateHostname(host string) error {
	if host == "" || len(host) > 253 {
		return fmt.Errorf("%w: %q", ErrInvalidHostname, host)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return fmt.Errorf("%w: bare IP literal %q", ErrInvalidHostname, host)
	}
	if !strings.Contains(host, ".") {
		return fmt.Errorf("%w: %q has no dot", ErrInvalidHostname, host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("%w: bad label in %q", ErrInvalidHostname, host)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return fmt.Errorf("%w: label starts or ends with hyphen in %q", ErrInvalidHostname, host)
		}
		for _, r := range label {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
				return fmt.Errorf("%w: invalid character in %q", ErrInvalidHostname, host)
			}
		}
	}
	return nil
}

// Resolver gates scans on DNS resolution and target address policy.
type Resolver struct {
	// AllowPrivateTargets permits loopback and RFC-1918 answers. Off by
	// default so the public API cannot be pointed at internal services.
	AllowPrivateTargets bool

	// LookupIPAddr defaults to net.DefaultResolver.
	LookupIPAddr func(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolve verifies the site's host has at least one usable A/AAAA answer.
func (r *Resolver) Resolve(ctx context.Context, s Site) error {
	lookup := r.LookupIPAddr
	if lookup == nil {
		lookup = net.DefaultResolver.LookupIPAddr
	}

	addrs, err := lookup(ctx, s.Host)
	if err != nil || len(addrs) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidHostnameLookup, s.Host)
	}

	if !r.AllowPrivateTargets {
		for _, addr := range addrs {
			if addr.IP.IsLoopback() || addr.IP.IsPrivate() || addr.IP.IsLinkLocalUnicast() {
				return fmt.Errorf("%w: %s resolves to a private address", ErrInvalidHostnameLookup, s.Host)
			}
		}
	}
	return nil
}
