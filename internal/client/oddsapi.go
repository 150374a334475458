package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Market keys
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"

	MarketPlayerPoints   = "player_points"
	MarketPlayerRebounds = "player_rebounds"
	MarketPlayerAssists  = "player_assists"
	MarketPlayerThrees   = "player_threes"
	MarketPlayerPRA      = "player_points_rebounds_assists"
)

// PlayerPropMarkets are requested for every event by the props job.
var PlayerPropMarkets = []string{
	MarketPlayerPoints,
	MarketPlayerRebounds,
	MarketPlayerAssists,
	MarketPlayerThrees,
	MarketPlayerPRA,
}

// ErrNoContent is returned when the upstream answers 204 or an empty body.
var ErrNoContent = errors.New("no content")

// APIError is a non-2xx upstream response. Body is the upstream body verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Cache stores raw upstream responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Options tunes the odds client. Zero values fall back to defaults.
type Options struct {
	Sport        string
	Timeout      time.Duration
	EventTimeout time.Duration
	RateLimit    float64 // requests per second
	Burst        int
	Cache        Cache
	CacheTTL     time.Duration
}

// Client is The Odds API v4 client. It never retries: a failed call surfaces
// to the caller, and a run of failures opens the circuit breaker so later
// calls fail fast.
type Client struct {
	baseURL      string
	apiKey       string
	sport        string
	httpClient   *http.Client
	timeout      time.Duration
	eventTimeout time.Duration
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	cache        Cache
	cacheTTL     time.Duration
}

// NewClient creates a new odds API client
func NewClient(baseURL, apiKey string, opts Options) *Client {
	if opts.Sport == "" {
		opts.Sport = "basketball_nba"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "odds-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client-side answers (no content, bad market, rate limited) say
			// nothing about upstream health.
			if err == nil || errors.Is(err, ErrNoContent) {
				return true
			}
			code := StatusCode(err)
			return code >= 400 && code < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("circuit", name).
				Str("from_state", from.String()).
				Str("to_state", to.String()).
				Msg("Odds API circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		sport:        opts.Sport,
		timeout:      opts.Timeout,
		eventTimeout: opts.EventTimeout,
		limiter:      rate.NewLimiter(limit, opts.Burst),
		breaker:      breaker,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a rate-limited GET through the circuit breaker. The API key is
// added here and never appears in cache keys or logs.
func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string, timeout time.Duration) ([]byte, error) {
	cacheKey := c.cacheKey(path, params)
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, cacheKey); ok {
			log.Debug().Str("path", path).Msg("Odds response served from cache")
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, path, params, timeout)
	})
	duration := time.Since(start).Seconds()

	status := "success"
	switch {
	case errors.Is(err, ErrNoContent):
		status = "no_content"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "circuit_open"
	case err != nil:
		status = "error"
	}
	metrics.RecordAPICall(endpoint, status, duration)

	if err != nil {
		return nil, err
	}
	body := result.([]byte)

	if c.cache != nil && c.cacheTTL > 0 {
		c.cache.Set(ctx, cacheKey, body, c.cacheTTL)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, path string, params map[string]string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "OpenBet/1.0")

	q := req.URL.Query()
	for key, value := range params {
		q.Set(key, value)
	}
	q.Set("apiKey", c.apiKey)
	req.URL.RawQuery = q.Encode()

	log.Debug().
		Str("path", path).
		Str("method", req.Method).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, ErrNoContent
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, ErrNoContent
		}
		log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Str("requests_remaining", resp.Header.Get("x-requests-remaining")).
			Msg("API request successful")
		return body, nil
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func (c *Client) cacheKey(path string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := url.Values{}
	for _, k := range keys {
		v.Set(k, params[k])
	}
	return "odds:" + path + "?" + v.Encode()
}

func oddsParams(markets []string) map[string]string {
	return map[string]string{
		"regions":    "us",
		"markets":    strings.Join(markets, ","),
		"oddsFormat": "american",
	}
}

// FetchOdds fetches current odds for every upcoming game in the given markets.
func (c *Client) FetchOdds(ctx context.Context, markets []string) ([]models.Event, error) {
	body, err := c.get(ctx, "odds", fmt.Sprintf("sports/%s/odds", c.sport), oddsParams(markets), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal odds: %w", err)
	}

	log.Info().
		Int("count", len(events)).
		Strs("markets", markets).
		Msg("Fetched odds")

	return events, nil
}

// FetchEvents lists upcoming events without prices.
func (c *Client) FetchEvents(ctx context.Context) ([]models.Event, error) {
	body, err := c.get(ctx, "events", fmt.Sprintf("sports/%s/events", c.sport), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}

	return events, nil
}

// FetchEventOdds fetches one event's odds, typically player prop markets.
func (c *Client) FetchEventOdds(ctx context.Context, eventID string, markets []string) (*models.Event, error) {
	path := fmt.Sprintf("sports/%s/events/%s/odds", c.sport, url.PathEscape(eventID))
	body, err := c.get(ctx, "event_odds", path, oddsParams(markets), c.eventTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds for event %s: %w", eventID, err)
	}

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event odds: %w", err)
	}

	return &event, nil
}
