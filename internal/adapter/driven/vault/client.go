// Package vault implements the VaultAPI port over the vault's REST API.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/net/publicsuffix"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VaultAPI = (*Client)(nil)

// DefaultTimeout bounds every call when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://host/BeyondTrust/api/public/v3.
	BaseURL string
	Timeout time.Duration
	// DirectoryCache enables ETag/Cache-Control revalidation for the
	// ManagedSystems and ManagedAccounts endpoints. Other endpoints are
	// never cached.
	DirectoryCache bool
	// HTTPClient overrides the pooled client (tests inject httptest clients).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements driven.VaultAPI. One Client shares one connection pool
// and one cookie jar across all calls; the jar carries the application
// session cookie the vault sets on sign-in.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	directory *http.Client
	logger    *slog.Logger
}

// NewClient creates a vault API client with the following transport stack:
//  1. net/http pooled transport with a public-suffix aware cookie jar
//  2. httpcache (only for directory reads, and only when enabled)
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, model.InvalidArgumentf("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, model.InvalidArgumentf("base URL %q must be http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var hc *http.Client
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		hc = &clone
		if hc.Timeout == 0 {
			hc.Timeout = timeout
		}
	} else {
		hc = &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	directory := hc
	if opts.DirectoryCache {
		cacheTransport := httpcache.NewMemoryCacheTransport()
		cacheTransport.Transport = hc.Transport
		directory = &http.Client{
			Timeout:   hc.Timeout,
			Transport: cacheTransport,
			Jar:       hc.Jar,
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   u,
		http:      hc,
		directory: directory,
		logger:    logger,
	}, nil
}

// Close releases pooled idle connections. In-flight calls are not
// interrupted.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
	if c.directory != c.http {
		c.directory.CloseIdleConnections()
	}
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(segments ...string) *url.URL {
	return c.baseURL.JoinPath(segments...)
}

// apiCall describes one REST call.
type apiCall struct {
	op            string
	method        string
	path          []string
	query         url.Values
	body          any
	authorization string
	cached        bool
}

// send performs the call and returns the response body of a 2xx answer.
// Transport failures and non-2xx statuses come back as *model.APIError.
func (c *Client) send(ctx context.Context, call apiCall) ([]byte, error) {
	u := c.endpoint(call.path...)
	if len(call.query) > 0 {
		u.RawQuery = call.query.Encode()
	}

	var body io.Reader
	if call.body != nil {
		b, err := json.Marshal(call.body)
		if err != nil {
			return nil, &model.APIError{Op: call.op, Err: fmt.Errorf("encoding request body: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, u.String(), body)
	if err != nil {
		return nil, &model.APIError{Op: call.op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if call.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.authorization != "" {
		req.Header.Set("Authorization", call.authorization)
	}

	hc := c.http
	if call.cached {
		hc = c.directory
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &model.APIError{Op: call.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("vault api call",
		"method", call.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start).Round(time.Microsecond),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &model.APIError{Op: call.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.APIError{Op: call.op, StatusCode: resp.StatusCode, Err: statusError(data)}
	}

	return data, nil
}

// statusError summarizes an error response body for the message.
func statusError(body []byte) error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return errors.New("empty response")
	}
	const limit = 200
	if len(msg) > limit {
		msg = msg[:limit] + "..."
	}
	return errors.New(msg)
}

// parseError wraps a decoding failure, keeping the raw body for diagnosis.
func parseError(op string, body []byte, err error) error {
	return &model.APIError{
		Op:   op,
		Body: body,
		Err:  fmt.Errorf("%w: %v", model.ErrUnparseable, err),
	}
}
