// Package hass reads entity states and history from the Home Assistant REST
// API.
package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/powerflow/pkg/common"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/types"
)

// statisticsCacheDuration is how long fetched statistics are reused. History
// only changes at the end of the current hour.
const statisticsCacheDuration = 5 * time.Minute

// ErrUnauthorized is returned when Home Assistant rejects the access token.
var ErrUnauthorized = errors.New("home assistant rejected the access token")

// Source provides entity states and historical statistics.
type Source interface {
	// States returns the current state of every entity.
	States(ctx context.Context) (types.Snapshot, error)

	// Statistics returns hourly aggregates for the given entities between
	// start and end.
	Statistics(ctx context.Context, entityIDs []string, start, end time.Time) (types.Statistics, error)
}

// Client implements Source against the Home Assistant REST API.
type Client struct {
	baseURL string
	client  *http.Client
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedStatistics
}

type cachedStatistics struct {
	fetched time.Time
	stats   types.Statistics
}

// Configured sets up flags for Home Assistant and returns the client.
func Configured() *Client {
	c := &Client{
		now:   time.Now,
		cache: make(map[string]cachedStatistics),
	}
	baseURL := lflag.String("hass-url", "http://homeassistant.local:8123", "Base URL of the Home Assistant instance")
	token := lflag.String("hass-token", "", "Long-lived access token for Home Assistant")
	timeout := lflag.Duration("hass-timeout", 10*time.Second, "Timeout for Home Assistant requests")

	lflag.Do(func() {
		c.baseURL = strings.TrimSuffix(*baseURL, "/")
		c.client = common.BearerHTTPClient(*timeout, *token)
	})

	return c
}

// New returns a client for the given instance and token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  common.BearerHTTPClient(10*time.Second, token),
		now:     time.Now,
		cache:   make(map[string]cachedStatistics),
	}
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return fmt.Errorf("hass-url is required")
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return fmt.Errorf("failed to parse hass url (%s): %w", c.baseURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode home assistant response", slog.String("path", path), slog.Any("error", err), slog.String("body", string(body)))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// States returns the current state of every entity.
func (c *Client) States(ctx context.Context) (types.Snapshot, error) {
	var states []types.EntityState
	if err := c.get(ctx, "/api/states", nil, &states); err != nil {
		return nil, fmt.Errorf("failed to get states: %w", err)
	}
	snap := make(types.Snapshot, len(states))
	for _, s := range states {
		snap[s.EntityID] = s
	}
	return snap, nil
}

// Statistics returns hourly aggregates for the given entities. Results are
// cached for a few minutes per entity set and period.
func (c *Client) Statistics(ctx context.Context, entityIDs []string, start, end time.Time) (types.Statistics, error) {
	if len(entityIDs) == 0 {
		return types.Statistics{}, nil
	}
	ids := append([]string(nil), entityIDs...)
	sort.Strings(ids)
	start = start.Truncate(time.Hour)
	key := strings.Join(ids, ",") + "|" + start.UTC().Format(time.RFC3339) + "|" + end.Truncate(time.Hour).UTC().Format(time.RFC3339)

	now := c.now()
	c.mu.Lock()
	if cached, ok := c.cache[key]; ok && now.Sub(cached.fetched) < statisticsCacheDuration {
		c.mu.Unlock()
		return cached.stats, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("filter_entity_id", strings.Join(ids, ","))
	params.Set("end_time", end.UTC().Format(time.RFC3339))

	var history [][]types.EntityState
	path := "/api/history/period/" + url.PathEscape(start.UTC().Format(time.RFC3339))
	if err := c.get(ctx, path, params, &history); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	stats := make(types.Statistics, len(history))
	for _, series := range history {
		if len(series) == 0 {
			continue
		}
		stats[series[0].EntityID] = Hourly(series)
	}

	c.mu.Lock()
	for k, v := range c.cache {
		if now.Sub(v.fetched) >= statisticsCacheDuration {
			delete(c.cache, k)
		}
	}
	c.cache[key] = cachedStatistics{fetched: now, stats: stats}
	c.mu.Unlock()

	log.Ctx(ctx).DebugContext(ctx, "fetched statistics", slog.Int("entities", len(stats)), slog.Time("start", start), slog.Time("end", end))
	return stats, nil
}
