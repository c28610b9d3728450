package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/novelforge/novelcore/internal/domain"
)

// Client is a per-host pooled HTTP client with bounded concurrency,
// retry, UA rotation, and response charset normalization. It never
// executes JavaScript; rendering-dependent sources are out of scope.
type Client struct {
	mu        sync.Mutex
	transport map[string]*http.Transport

	sem         chan struct{}
	timeout     time.Duration
	maxRedirect int
	retrier     *Retrier
	userAgent   string
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout        time.Duration
	MaxRetries     int
	MaxConcurrency int
	MaxRedirects   int
	UserAgent      string
}

// DefaultClientOptions returns the pool's defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		MaxConcurrency: 5,
		MaxRedirects:   5,
		UserAgent:      "",
	}
}

// NewClient constructs a Client. The underlying transport has
// InsecureSkipVerify set because rule-driven sources frequently run
// misconfigured or self-signed TLS, and this engine never handles
// credentials over those connections.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 5
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      opts.MaxRetries,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	})

	return &Client{
		transport:   make(map[string]*http.Transport),
		sem:         make(chan struct{}, opts.MaxConcurrency),
		timeout:     opts.Timeout,
		maxRedirect: opts.MaxRedirects,
		retrier:     retrier,
		userAgent:   opts.UserAgent,
	}, nil
}

// Get fetches targetURL with stealth headers and no extra headers.
func (c *Client) Get(ctx context.Context, targetURL string) (*domain.Response, error) {
	return c.GetWithHeaders(ctx, targetURL, nil)
}

// Post issues a form-encoded POST to targetURL with the same retry,
// concurrency-cap, and charset-decoding behavior as Get. Used by search
// rules whose Method is POST and carry a bodyTemplate.
func (c *Client) Post(ctx context.Context, targetURL, body string) (*domain.Response, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doRequestMethod(ctx, http.MethodPost, targetURL, body, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetWithHeaders fetches targetURL, retrying on transient failures and
// falling back from https to http (or vice versa) exactly once when the
// scheme as given fails outright.
func (c *Client) GetWithHeaders(ctx context.Context, targetURL string, extraHeaders map[string]string) (*domain.Response, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.tryBothSchemes(ctx, targetURL, extraHeaders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// tryBothSchemes attempts targetURL as given, then retries once with the
// opposite scheme if the first attempt fails outright (connection refused,
// TLS handshake failure, etc.) rather than a normal HTTP error status.
func (c *Client) tryBothSchemes(ctx context.Context, targetURL string, extraHeaders map[string]string) (*domain.Response, error) {
	resp, err := c.doRequest(ctx, targetURL, extraHeaders)
	if err == nil {
		return resp, nil
	}

	var fetchErr *domain.FetchError
	isFetchErr := false
	if fe, ok := asFetchError(err); ok {
		fetchErr = fe
		isFetchErr = true
	}
	if isFetchErr && fetchErr.StatusCode != 0 {
		return nil, err // real HTTP status, not a transport failure — don't flip scheme
	}

	alt, ok := flippedScheme(targetURL)
	if !ok {
		return nil, err
	}
	return c.doRequest(ctx, alt, extraHeaders)
}

func asFetchError(err error) (*domain.FetchError, bool) {
	var fe *domain.FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}

func flippedScheme(rawURL string) (string, bool) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return "", false
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "http"
	case "http":
		u.Scheme = "https"
	default:
		return "", false
	}
	return u.String(), true
}

func (c *Client) doRequest(ctx context.Context, targetURL string, extraHeaders map[string]string) (*domain.Response, error) {
	return c.doRequestMethod(ctx, http.MethodGet, targetURL, "", extraHeaders)
}

func (c *Client) doRequestMethod(ctx context.Context, method, targetURL, body string, extraHeaders map[string]string) (*domain.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	for k, v := range StealthHeaders(c.userAgent) {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	httpClient := c.clientFor(req.URL.Hostname())
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: targetURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fetchErr := &domain.FetchError{URL: targetURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		if domain.ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        fetchErr,
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, fetchErr
	}

	decoded, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        decoded,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         targetURL,
		FromCache:   false,
	}, nil
}

// decodeBody reads the response body and transcodes it to UTF-8 with
// charset.NewReader: a byte-order mark or the HTTP Content-Type charset
// wins, then a <meta charset> sniff; otherwise the body is read as UTF-8
// when it is valid UTF-8 and decoded as windows-1252 when it is not.
func decodeBody(resp *http.Response) ([]byte, error) {
	contentType := resp.Header.Get("Content-Type")
	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return io.ReadAll(resp.Body)
	}
	return io.ReadAll(reader)
}

// clientFor returns the *http.Client bound to host's keep-alive
// transport, creating one on first use.
func (c *Client) clientFor(host string) *http.Client {
	c.mu.Lock()
	t, ok := c.transport[host]
	if !ok {
		t = &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		}
		c.transport[host] = t
	}
	c.mu.Unlock()

	return &http.Client{
		Transport: t,
		Timeout:   c.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirect {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirect)
			}
			return nil
		},
	}
}

// Close releases all pooled transports' idle connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.transport {
		t.CloseIdleConnections()
	}
	return nil
}
