// Package retriever performs the fixed probe set of one scan: an HTTPS GET
// with manual redirect following and cookie capture, a plain-HTTP probe of
// the base URL, a best-effort robots.txt fetch, and an HSTS preload lookup.
// It is the only layer of the scanner that touches the network.
package retriever

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"httpobs/internal/hash"
	"httpobs/internal/preload"
	"httpobs/internal/site"
	"httpobs/pkg/useragent"
)

// Retrieval failure codes. They are persisted verbatim in the scan row's
// error column.
const (
	ErrConnection      = "connection-error"
	ErrTLS             = "tls-error"
	ErrRedirectionLoop = "redirection-loop"
	ErrScanTimeout     = "scan-timeout"
	ErrScanCancelled   = "scan-cancelled"
)

// ScanError is a retrieval failure with a stable code.
type ScanError struct {
	Code string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Options configures the retriever.
type Options struct {
	MaxRedirects       int
	MaxBodySize        int64
	RequestTimeout     time.Duration // per probe
	ScanTimeout        time.Duration // whole scan wall clock
	UserAgent          string
	InsecureSkipVerify bool
	PerHostRate        float64 // probes per second per host
}

// DefaultOptions mirror the deployed scanner's configuration file defaults.
func DefaultOptions() Options {
	return Options{
		MaxRedirects:   20,
		MaxBodySize:    256 * 1024,
		RequestTimeout: 10 * time.Second,
		ScanTimeout:    45 * time.Second,
		PerHostRate:    10,
	}
}

// Retriever issues the probes for a scan.
type Retriever struct {
	client *Client
	opts   Options
	logger *slog.Logger
}

// New creates a Retriever. A nil logger disables logging.
func New(opts Options, logger *slog.Logger) *Retriever {
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 20
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 256 * 1024
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 45 * time.Second
	}
	if opts.PerHostRate <= 0 {
		opts.PerHostRate = 10
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Retriever{client: NewClient(opts), opts: opts, logger: logger}
}

// Close releases client resources.
func (r *Retriever) Close() error { return r.client.Close() }

// Retrieve runs all probes for the site and returns the immutable Requests
// snapshot. Secondary probe failures (robots.txt, plain HTTP) are tolerated;
// a failed HTTPS probe fails the whole scan.
func (r *Retriever) Retrieve(ctx context.Context, s site.Site) (*Requests, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.ScanTimeout)
	defer cancel()

	start := time.Now()
	chain, err := r.followChain(ctx, s.BaseURL("https"))
	if err != nil {
		return nil, r.classify(err)
	}

	req := &Requests{
		Site:       s,
		FinalURL:   chain.finalURL,
		StatusCode: chain.statusCode,
		Headers:    chain.headers,
		Body:       chain.body,
		Cookies:    chain.cookies,
	}
	req.BodyTruncated = int64(len(chain.body)) >= r.opts.MaxBodySize
	req.Fingerprint = hash.Calculate(req.Body, req.Headers)

	// The remaining probes are independent of each other.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		req.HTTPProbe = r.httpProbe(ctx, s)
	}()
	go func() {
		defer wg.Done()
		req.Robots = r.fetchRobots(ctx, req.FinalOrigin())
	}()
	req.Preload = preload.Lookup(req.FinalURL.Hostname())
	wg.Wait()

	r.logger.Debug("retrieval complete",
		"site", s.Key(),
		"final_url", req.FinalURL.String(),
		"status", req.StatusCode,
		"cookies", len(req.Cookies),
		"duration", time.Since(start),
	)
	return req, nil
}

type chainResult struct {
	finalURL   *url.URL
	statusCode int
	headers    http.Header
	body       []byte
	cookies    []Cookie
}

// followChain GETs startURL and walks redirects by hand, capturing every
// Set-Cookie together with the scheme and host of the hop that emitted it.
func (r *Retriever) followChain(ctx context.Context, startURL string) (*chainResult, error) {
	current, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}

	result := &chainResult{}
	for hop := 0; ; hop++ {
		if hop > r.opts.MaxRedirects {
			return nil, &ScanError{Code: ErrRedirectionLoop,
				Err: fmt.Errorf("stopped after %d redirects", r.opts.MaxRedirects)}
		}

		resp, err := r.get(ctx, current.String())
		if err != nil {
			return nil, err
		}

		for _, line := range resp.Header.Values("Set-Cookie") {
			if c, ok := ParseSetCookie(line, current.Scheme, current.Hostname()); ok {
				result.cookies = append(result.cookies, c)
			}
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.Header.Get("Location") != "" {
			next, err := current.Parse(resp.Header.Get("Location"))
			resp.Body.Close()
			if err != nil {
				return nil, &ScanError{Code: ErrConnection, Err: fmt.Errorf("invalid redirect location: %v", err)}
			}
			current = next
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBodySize))
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		result.finalURL = resp.Request.URL
		result.statusCode = resp.StatusCode
		result.headers = resp.Header
		result.body = body
		return result, nil
	}
}

// httpProbe GETs the plain-text base URL without following redirects. Only
// the status and Location header are retained; failure is reflected as an
// unreachable probe, never a scan error.
func (r *Retriever) httpProbe(ctx context.Context, s site.Site) HTTPProbe {
	resp, err := r.get(ctx, s.BaseURL("http"))
	if err != nil {
		return HTTPProbe{}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return HTTPProbe{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}
}

// fetchRobots retrieves robots.txt from the final origin, best effort.
func (r *Retriever) fetchRobots(ctx context.Context, origin string) *string {
	if origin == "" {
		return nil
	}
	resp, err := r.get(ctx, origin+"/robots.txt")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBodySize))
	if err != nil {
		return nil
	}
	s := string(body)
	return &s
}

// get issues one rate-limited GET. Cookies and credentials are never sent;
// every request carries the stable scanner user-agent.
func (r *Retriever) get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	if err := r.client.Limiter(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", useragent.Get(r.opts.UserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return r.client.Do(req)
}

// classify maps a probe error onto a stable retrieval failure code.
func (r *Retriever) classify(err error) error {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &ScanError{Code: ErrScanCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ScanError{Code: ErrScanTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ScanError{Code: ErrScanTimeout, Err: err}
	}

	if isTLSError(err) {
		return &ScanError{Code: ErrTLS, Err: err}
	}
	return &ScanError{Code: ErrConnection, Err: err}
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) ||
		errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) {
		return true
	}
	// The handshake surface is wide; fall back to message matching the way
	// the transport reports alerts.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "handshake")
}
