package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/purrpal/purrpal/internal/cache"
)

// userAgent identifies the application, as Nominatim's usage policy requires.
const userAgent = "PurrPal/1.0"

var ErrUpstream = errors.New("geocoding service error")

// Client reverse-geocodes coordinates through Nominatim and caches the raw answer.
type Client struct {
	baseURL  string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewClient(baseURL string, c cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Reverse returns Nominatim's JSON document for lat/lon unchanged.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	key := cache.GeocodeKey(lat, lon)
	if data, found, err := c.cache.Get(ctx, key); err != nil {
		slog.Warn("geocode cache read failed", "error", err)
	} else if found {
		return data, nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUpstream)
	}

	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		slog.Warn("geocode cache write failed", "error", err)
	}
	return body, nil
}
