// Package fetch downloads and probes Swagger documents over HTTP.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erraggy/oasbot"
	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/specdoc"
)

// Defaults applied by New.
const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxSize = 10 << 20
)

// Client fetches documents. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxSize    int64
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient         *http.Client
	timeout            time.Duration
	userAgent          string
	maxSize            int64
	insecureSkipVerify bool
	logger             logging.Logger
}

// WithHTTPClient sets the HTTP client. Timeout and InsecureSkipVerify are
// ignored when a client is provided.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) { cfg.httpClient = c }
}

// WithTimeout bounds each request made by the default client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cfg *clientConfig) { cfg.userAgent = ua }
}

// WithMaxSize limits the accepted document size in bytes.
func WithMaxSize(n int64) Option {
	return func(cfg *clientConfig) { cfg.maxSize = n }
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(cfg *clientConfig) { cfg.insecureSkipVerify = skip }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// New returns a Client.
func New(opts ...Option) *Client {
	cfg := &clientConfig{
		timeout: DefaultTimeout,
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	log := logging.OrNop(cfg.logger)
	client := cfg.httpClient
	switch {
	case client != nil:
		if cfg.insecureSkipVerify {
			log.Warn("InsecureSkipVerify ignored when HTTPClient provided; configure TLS on your client's transport")
		}
	case cfg.insecureSkipVerify:
		client = &http.Client{
			Timeout: cfg.timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // explicitly requested
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
	default:
		client = &http.Client{Timeout: cfg.timeout}
	}

	ua := cfg.userAgent
	if ua == "" {
		ua = oasbot.UserAgent()
	}
	if cfg.maxSize <= 0 {
		cfg.maxSize = DefaultMaxSize
	}

	return &Client{
		httpClient: client,
		userAgent:  ua,
		maxSize:    cfg.maxSize,
		logger:     log,
	}
}

// Fetch downloads url and returns the body. Any status other than 200, a
// transport failure or a body above the size limit is a *oaserrors.FetchError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &oaserrors.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, &oaserrors.FetchError{URL: url, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(data)) > c.maxSize {
		return nil, &oaserrors.FetchError{URL: url, Cause: fmt.Errorf("document exceeds %d bytes", c.maxSize)}
	}
	c.logger.Debug("fetched document", "url", url, "bytes", len(data))
	return data, nil
}

// Probe sends a HEAD request and returns the response status.
func (c *Client) Probe(ctx context.Context, url string) (int, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	c.logger.Debug("probed url", "url", url, "status", resp.StatusCode)
	return resp.StatusCode, nil
}

// Validate fetches url and checks that it holds a Swagger 2.0 document.
func (c *Client) Validate(ctx context.Context, url string) error {
	data, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return specdoc.Validate(data, specdoc.WithSourceName(url))
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &oaserrors.FetchError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL comes from the registry
	if err != nil {
		return nil, &oaserrors.FetchError{URL: url, Cause: err}
	}
	return resp, nil
}
