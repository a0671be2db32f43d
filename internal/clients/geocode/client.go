// Package geocode resolves free-text locations to coordinates with the
// Nominatim search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Place is a geocoded location.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Config holds the client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// CacheTTL bounds how long results (including misses) are reused.
	CacheTTL time.Duration
	// CacheSize caps the number of cached locations; the least recently used
	// entry is evicted first.
	CacheSize int
}

// DefaultCacheSize is used when Config.CacheSize is not positive.
const DefaultCacheSize = 1000

// Client is a rate-limited, caching Nominatim client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	cache       *expirable.LRU[string, cacheEntry]
}

type cacheEntry struct {
	place Place
	found bool
}

// NewClient creates a Nominatim client.
// Rate limited to 1 request per second as the Nominatim usage policy requires.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:      logger,
		cache:       expirable.NewLRU[string, cacheEntry](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search geocodes location and takes the first result. found is false when
// Nominatim has no match; that is not an error.
func (c *Client) Search(ctx context.Context, location string) (place Place, found bool, err error) {
	key := strings.ToLower(strings.Join(strings.Fields(location), " "))
	if key == "" {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: %w: location is required", domain.ErrValidation)
	}

	if e, ok := c.cache.Get(key); ok {
		return e.place, e.found, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: rate limit: %w: %w", domain.ErrTransport, err)
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: %w: status %d", domain.ErrTransport, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, false, fmt.Errorf("geocode.Client.Search: parse response: %w: %w", domain.ErrTransport, err)
	}

	if len(results) > 0 {
		place, err = parsePlace(results[0])
		if err != nil {
			return Place{}, false, fmt.Errorf("geocode.Client.Search: %w: %w", domain.ErrTransport, err)
		}
		found = true
	}

	c.logger.DebugContext(ctx, "geocoded location", "location", location, "found", found)
	c.cache.Add(key, cacheEntry{place: place, found: found})
	return place, found, nil
}

func parsePlace(r searchResult) (Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad latitude %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad longitude %q", r.Lon)
	}
	return Place{Lat: lat, Lon: lon, DisplayName: r.DisplayName}, nil
}
