package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/quantmind-br/repo2llm/internal/cache"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/resolve"
	"github.com/quantmind-br/repo2llm/internal/utils"
	"github.com/quantmind-br/repo2llm/pkg/version"
	"golang.org/x/sync/singleflight"
)

// DefaultAccept is the media type sent with every request
const DefaultAccept = "application/vnd.github.v3+json"

// Client is a rate-limit aware HTTP client. Concurrent identical requests
// share one round trip and completed responses are replayed from the cache
// for the rest of the run.
type Client struct {
	httpClient *http.Client
	userAgent  string
	accept     string
	creds      resolve.Credentials
	timeout    time.Duration

	retrier *Retrier
	limits  *RateLimitTracker
	pacer   Pacer
	cache   domain.Cache
	group   singleflight.Group

	maxRateLimitWait time.Duration
	rateLimitRetries int
	warnThreshold    int

	sink   domain.ProgressSink
	logger *utils.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	roundTrips atomic.Int64
	warnedFor  atomic.Int64
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	HTTPClient  *http.Client
	Timeout     time.Duration
	UserAgent   string
	Accept      string
	Credentials resolve.Credentials

	// Cache is optional; nil disables response caching
	Cache   domain.Cache
	Retrier RetrierOptions

	MaxRateLimitWait  time.Duration
	RateLimitRetries  int
	WarnThreshold     int
	RequestsPerMinute int
	Burst             int

	Sink   domain.ProgressSink
	Logger *utils.Logger

	// Now and Sleep replace the clock in tests
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:          30 * time.Second,
		Accept:           DefaultAccept,
		Retrier:          DefaultRetrierOptions(),
		MaxRateLimitWait: 60 * time.Second,
		RateLimitRetries: 3,
		WarnThreshold:    10,
	}
}

// NewClient creates a new Client
func NewClient(opts ClientOptions) *Client {
	defaults := DefaultClientOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Accept == "" {
		opts.Accept = defaults.Accept
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if opts.MaxRateLimitWait <= 0 {
		opts.MaxRateLimitWait = defaults.MaxRateLimitWait
	}
	if opts.RateLimitRetries < 0 {
		opts.RateLimitRetries = 0
	}
	if opts.WarnThreshold < 0 {
		opts.WarnThreshold = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Sink == nil {
		opts.Sink = utils.DiscardSink
	}

	return &Client{
		httpClient:       opts.HTTPClient,
		userAgent:        opts.UserAgent,
		accept:           opts.Accept,
		creds:            opts.Credentials,
		timeout:          opts.Timeout,
		retrier:          NewRetrier(opts.Retrier),
		limits:           NewRateLimitTracker(),
		pacer:            NewPacer(opts.RequestsPerMinute, opts.Burst),
		cache:            opts.Cache,
		maxRateLimitWait: opts.MaxRateLimitWait,
		rateLimitRetries: opts.RateLimitRetries,
		warnThreshold:    opts.WarnThreshold,
		sink:             opts.Sink,
		logger:           opts.Logger.OrNop().WithComponent("fetcher"),
		now:              opts.Now,
		sleep:            opts.Sleep,
	}
}

// Get fetches url. Only successful responses are returned; every failure is
// a *domain.FetchError or *domain.RateLimitError.
func (c *Client) Get(ctx context.Context, rawURL string) (*domain.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(rawURL, err)
	}

	key := cache.RequestKey(http.MethodGet, rawURL, c.creds.Fingerprint())
	if resp, ok := c.fromCache(ctx, key); ok {
		return resp, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if resp, ok := c.fromCache(ctx, key); ok {
			return resp, nil
		}
		resp, err := c.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		c.toCache(ctx, key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, cancelled(rawURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp := res.Val.(*domain.Response).Clone()
		if res.Shared {
			c.logger.WithURL(rawURL).Debug().Msg("Joined in-flight request")
		}
		return resp, nil
	}
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// RoundTrips returns the number of requests that reached the network
func (c *Client) RoundTrips() int64 {
	return c.roundTrips.Load()
}

// RateLimit returns the last quota reported by the host
func (c *Client) RateLimit() RateLimitState {
	return c.limits.Snapshot()
}

// fetch runs the transient retry loop and waits out short rate-limit windows
func (c *Client) fetch(ctx context.Context, rawURL string) (*domain.Response, error) {
	retries := c.rateLimitRetries
	for {
		if err := c.awaitWindow(ctx, rawURL); err != nil {
			return nil, err
		}

		resp, err := RetryWithValue(ctx, c.retrier, func() (*domain.Response, error) {
			return c.doRequest(ctx, rawURL)
		})
		if err == nil {
			return resp, nil
		}

		var rl *domain.RateLimitError
		if !errors.As(err, &rl) {
			return nil, err
		}
		if retries <= 0 || rl.ResetAt.Sub(c.now()) > c.maxRateLimitWait {
			return nil, err
		}
		retries--

		if err := c.waitUntil(ctx, rawURL, rl.ResetAt); err != nil {
			return nil, err
		}
		c.emit(domain.PhaseRetrying, fmt.Sprintf("Retrying %s after rate-limit window", rawURL))
	}
}

// awaitWindow holds a request back while the last reported quota is spent
func (c *Client) awaitWindow(ctx context.Context, rawURL string) error {
	now := c.now()
	state := c.limits.Snapshot()
	if !state.Exhausted(now) {
		return nil
	}
	if state.ResetAt.Sub(now) > c.maxRateLimitWait {
		return domain.NewRateLimitError(rawURL, state.Limit, state.ResetAt, c.creds.Authenticated())
	}
	return c.waitUntil(ctx, rawURL, state.ResetAt)
}

func (c *Client) waitUntil(ctx context.Context, rawURL string, resetAt time.Time) error {
	wait := max(resetAt.Sub(c.now()), 0)

	c.logger.WithURL(rawURL).Warn().
		Dur("wait", wait).
		Time("reset_at", resetAt).
		Msg("Rate limit reached, waiting for reset")
	c.emit(domain.PhaseWaiting, fmt.Sprintf("Rate limit reached; waiting %s until %s",
		wait.Round(time.Second), resetAt.Local().Format("15:04:05")))

	if err := c.sleep(ctx, wait); err != nil {
		return cancelled(rawURL, err)
	}
	c.limits.Reopen(resetAt)
	return nil
}

// doRequest performs a single HTTP request
func (c *Client) doRequest(ctx context.Context, rawURL string) (*domain.Response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, cancelled(rawURL, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.NewFetchError(rawURL, 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}
	req.Header.Set("Accept", c.accept)
	req.Header.Set("User-Agent", c.userAgent)
	c.creds.Apply(req)

	c.roundTrips.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, rawURL, err)
	}

	if state, ok := c.limits.Update(resp.Header); ok {
		c.warnLowQuota(state)
	}

	if err := c.checkStatus(rawURL, resp, body); err != nil {
		c.logger.WithURL(rawURL).Debug().Err(err).Int("status", resp.StatusCode).Msg("Request failed")
		return nil, err
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         rawURL,
	}, nil
}

// transportError classifies a failure that produced no status code
func (c *Client) transportError(ctx context.Context, rawURL string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(rawURL, ctxErr)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFetchError(rawURL, 0, fmt.Errorf("%w: no response within %s", domain.ErrTimeout, c.timeout))
	}
	return domain.NewFetchError(rawURL, 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err))
}

// checkStatus maps a non-success status to the error taxonomy
func (c *Client) checkStatus(rawURL string, resp *http.Response, body []byte) error {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	switch {
	case status == http.StatusUnauthorized:
		return domain.NewFetchError(rawURL, status, fmt.Errorf("%w: %s", domain.ErrAuthFailed, hostMessage(body, resp.Status)))

	case status == http.StatusForbidden:
		if strings.TrimSpace(resp.Header.Get(HeaderRateRemaining)) == "0" {
			return c.rateLimitError(rawURL, resp.Header)
		}
		if resp.Header.Get(HeaderRetryAfter) != "" {
			return c.rateLimitError(rawURL, resp.Header)
		}
		return domain.NewFetchError(rawURL, status, fmt.Errorf("%w: %s", domain.ErrAuthFailed, hostMessage(body, resp.Status)))

	case status == http.StatusTooManyRequests:
		return c.rateLimitError(rawURL, resp.Header)

	case status == http.StatusNotFound:
		return domain.NewFetchError(rawURL, status, fmt.Errorf("%w: %s", domain.ErrNotFound, urlPath(rawURL)))

	case status >= 500:
		return domain.NewFetchError(rawURL, status, fmt.Errorf("%w: %s", domain.ErrServer, resp.Status))
	}

	return domain.NewFetchError(rawURL, status, fmt.Errorf("%w: unexpected status %s", domain.ErrServer, resp.Status))
}

// rateLimitError builds a quota refusal. Retry-After wins over the reset
// header when both are present.
func (c *Client) rateLimitError(rawURL string, h http.Header) error {
	now := c.now()
	state, _ := ParseRateLimit(h)

	resetAt := state.ResetAt
	if d := ParseRetryAfter(h.Get(HeaderRetryAfter), now); d > 0 {
		resetAt = now.Add(d)
	}
	if resetAt.IsZero() {
		resetAt = now
	}
	return domain.NewRateLimitError(rawURL, state.Limit, resetAt, c.creds.Authenticated())
}

// warnLowQuota emits one warning per quota window when anonymous requests
// are close to the limit.
func (c *Client) warnLowQuota(state RateLimitState) {
	if c.creds.Authenticated() || state.Remaining >= c.warnThreshold {
		return
	}
	window := state.ResetAt.Unix()
	if c.warnedFor.Swap(window) == window {
		return
	}

	msg := fmt.Sprintf("Only %d unauthenticated API requests left until %s; set a token to raise the limit",
		state.Remaining, state.ResetAt.Local().Format("15:04:05"))
	c.logger.Warn().Int("remaining", state.Remaining).Int("limit", state.Limit).Msg(msg)
	c.emit(domain.PhaseWarning, msg)
}

func (c *Client) fromCache(ctx context.Context, key string) (*domain.Response, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	entry, err := cache.DecodeEntry(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Discarding unreadable cache entry")
		return nil, false
	}
	return entry.Response(), true
}

func (c *Client) toCache(ctx context.Context, key string, resp *domain.Response) {
	if c.cache == nil {
		return
	}
	data, err := cache.NewEntry(resp, c.now()).Encode()
	if err == nil {
		err = c.cache.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.WithURL(resp.URL).Warn().Err(err).Msg("Failed to cache response")
	}
}

func (c *Client) emit(phase domain.Phase, msg string) {
	c.sink.Emit(domain.ProgressEvent{
		Phase:     phase,
		Message:   msg,
		Timestamp: c.now(),
	})
}

// hostMessage extracts the "message" field of a GitHub error body
func hostMessage(body []byte, fallback string) string {
	var er github.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	return fallback
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func cancelled(rawURL string, cause error) error {
	return domain.NewFetchError(rawURL, 0, fmt.Errorf("%w: %w", domain.ErrCancelled, cause))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
