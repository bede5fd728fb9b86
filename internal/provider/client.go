// Package provider talks to the public script catalogs and the game APIs and turns
// their heterogeneous JSON into the shared models.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
	"golang.org/x/time/rate"
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Client performs paced JSON GET requests against provider hosts.
type Client struct {
	http      *http.Client
	limiters  map[string]*rate.Limiter
	userAgent string
	maxBody   int64
	rps       rate.Limit
	burst     int
	mu        sync.Mutex
}

// NewClient creates a client from the provider options.
func NewClient(cfg config.Providers) *Client {
	rps := rate.Limit(cfg.RequestsPerSec)
	if cfg.RequestsPerSec <= 0 {
		rps = rate.Inf
	}
	burst := cfg.RequestsBurst
	if burst <= 0 {
		burst = 1
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = 4 << 20
	}

	return &Client{
		http:      &http.Client{},
		limiters:  make(map[string]*rate.Limiter),
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
		rps:       rps,
		burst:     burst,
	}
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[host] = l
	}

	return l
}

// GetJSON fetches rawURL and decodes the body into v. The timeout bounds the whole
// call including the wait for the host limiter. The name labels metrics.
func (c *Client) GetJSON(ctx context.Context, name, rawURL string, timeout time.Duration, v any) (err error) {
	start := time.Now()
	defer func() {
		metrics.ProviderRequests.WithLabelValues(name, metrics.Outcome(err)).Inc()
		metrics.ProviderLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return fmt.Errorf("wait for %s: %w", u.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	return nil
}
