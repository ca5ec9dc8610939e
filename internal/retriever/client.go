package retriever

import (
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client wraps an HTTP client with per-host rate limiting. Every probe of a
// scan goes through the same client so all observations share identical TLS
// settings and connection pooling.
type Client struct {
	httpClient *http.Client
	limiters   map[string]*rate.Limiter
	mu         sync.Mutex
	perHost    rate.Limit
}

// NewClient creates the probe client. Redirects are never followed
// automatically; the retriever walks chains by hand to capture cookies and
// intermediate hops.
func NewClient(opts Options) *Client {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	httpClient := &http.Client{
		Timeout:   opts.RequestTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Client{
		httpClient: httpClient,
		limiters:   make(map[string]*rate.Limiter),
		perHost:    rate.Limit(opts.PerHostRate),
	}
}

// Do executes a request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Limiter returns the rate limiter for a host, creating it on first use.
func (c *Client) Limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limiter, exists := c.limiters[host]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(c.perHost, 2)
	c.limiters[host] = limiter
	return limiter
}

// Close releases idle connections.
func (c *Client) Close() error {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
