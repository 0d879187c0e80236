// Package upstream performs the HTTP JSON calls behind both data providers.
// Every call passes a per-provider rate limiter and circuit breaker. Calls are
// never retried here; the poller decides when to try again.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	// ErrCircuitOpen is returned without contacting the upstream while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrStatus wraps any non-2xx response.
	ErrStatus = errors.New("unexpected status")
)

const (
	defaultUserAgent   = "stationboard/0.1"
	defaultTimeout     = 10 * time.Second
	defaultTripAfter   = 5
	defaultOpenTimeout = time.Minute
	maxErrorBody       = 512
)

// Options configure a Client.
type Options struct {
	Name    string
	BaseURL string

	// Timeout bounds each request. Zero uses 10s.
	Timeout time.Duration
	// MinInterval is the smallest spacing between requests. Zero disables
	// rate limiting.
	MinInterval time.Duration
	// TripAfter consecutive failures open the breaker for OpenTimeout.
	TripAfter   uint32
	OpenTimeout time.Duration

	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues GET requests against one upstream API.
type Client struct {
	name      string
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// New builds a Client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = base.Host
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("upstream", name)

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	tripAfter := opts.TripAfter
	if tripAfter == 0 {
		tripAfter = defaultTripAfter
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		name:      name,
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Name returns the label used in logs and errors.
func (c *Client) Name() string {
	return c.name
}

// GetJSON fetches rel (path and query, resolved under the base URL) and
// decodes the body into dest. header may be nil.
func (c *Client) GetJSON(ctx context.Context, rel *url.URL, header http.Header, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	requestID := uuid.NewString()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limit wait: %w", c.name, rel.Path, err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, rel, header, requestID, dest)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		// rel.Path only: query strings may carry credentials.
		return fmt.Errorf("%s %s (request %s): %w", c.name, rel.Path, requestID, err)
	}
	c.logger.Debug("upstream request ok",
		"path", rel.Path,
		"request_id", requestID,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (c *Client) do(ctx context.Context, rel *url.URL, header http.Header, requestID string, dest any) error {
	reqURL := c.baseURL.JoinPath(rel.Path)
	reqURL.RawQuery = rel.RawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query string included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
		}
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, detail)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ParseBaseURL normalises a configured base URL. A bare host gets https.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
