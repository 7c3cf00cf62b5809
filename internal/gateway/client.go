// Package gateway is the HTTP client for the Apps Script spreadsheet
// endpoint. The endpoint is the single source of truth for bookings; this
// package only moves rows across the wire and classifies failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"gymbook/internal/models"
)

const (
	// DefaultTimeout bounds every request to the endpoint.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes        = 1 << 20
	snippetLen          = 200
	bookingsCachePrefix = "gymbook:bookings:"
)

// bookingsCacheKey scopes the cached list to its endpoint so switching the
// configured URL can never serve another deployment's rows.
func bookingsCacheKey(endpoint string) string {
	return bookingsCachePrefix + endpoint
}

// Client talks to the Apps Script endpoint.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *zerolog.Logger

	limiter *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with the given per-request timeout.
func NewClient(timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger,
	}
}

// UseRedisCache configures optional read/write-through caching of the
// booking list. The cache is invalidated on every create.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles outbound calls; Apps Script deployments have tight
// per-minute quotas.
func (c *Client) UseRateLimit(r rate.Limit, burst int) {
	c.limiter = rate.NewLimiter(r, burst)
}

// IsScriptURL reports whether raw looks like a deployed Apps Script web app
// URL: https, script.google.com host, /macros/s/.../exec path. Requests to
// anything else are skipped client-side rather than attempted and failed.
func IsScriptURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" &&
		u.Hostname() == "script.google.com" &&
		strings.Contains(u.Path, "/macros/s/") &&
		strings.HasSuffix(u.Path, "/exec")
}

type listEnvelope struct {
	OK    bool         `json:"ok"`
	Data  []models.Row `json:"data"`
	Error string       `json:"error"`
}

type createEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// createRequest carries the action discriminator alongside the flattened row
// payload, matching what the script expects in doPost.
type createRequest struct {
	Action string `json:"action"`
	models.Row
}

// FetchBookings returns all rows currently in the sheet.
func (c *Client) FetchBookings(ctx context.Context, endpoint string) ([]models.Row, error) {
	cacheKey := bookingsCacheKey(endpoint)

	var env listEnvelope
	if c.readCache(ctx, cacheKey, &env) {
		return env.Data, nil
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := c.doJSON(ctx, req, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, &RejectedError{Reason: env.Error}
	}

	c.writeCache(ctx, cacheKey, env)
	return env.Data, nil
}

// CreateBooking appends a row to the sheet. The body goes out as text/plain:
// a "simple" content type keeps the browser-facing deployment free of CORS
// preflight round-trips, and the script reads the raw body either way.
func (c *Client) CreateBooking(ctx context.Context, endpoint string, row models.Row) error {
	payload, err := json.Marshal(createRequest{Action: "create", Row: row})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	var env createEnvelope
	if err := c.doJSON(ctx, req, &env); err != nil {
		return err
	}
	if !env.OK {
		return &RejectedError{Reason: env.Error}
	}

	c.invalidateCache(ctx, bookingsCacheKey(endpoint))
	return nil
}

// doJSON issues the request with the configured timeout and parses the body
// as JSON, classifying every failure mode into the gateway error taxonomy.
func (c *Client) doJSON(ctx context.Context, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &InvalidResponseError{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Snippet:     snippet(body),
		}
	}
	return nil
}

// snippet collapses newlines and trims the body to a diagnosable prefix.
// Truncation counts runes, not bytes, so a Thai error page is never cut
// mid-character.
func snippet(body []byte) string {
	s := strings.NewReplacer("\n", " ", "\r", " ").Replace(string(body))
	if runes := []rune(s); len(runes) > snippetLen {
		s = string(runes[:snippetLen])
	}
	return s
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil && c.logger != nil {
		c.logger.Debug().Err(err).Msg("cache write failed")
	}
}

func (c *Client) invalidateCache(ctx context.Context, key string) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}
