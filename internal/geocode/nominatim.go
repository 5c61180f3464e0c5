// Package geocode resolves coordinates to street addresses through the
// Nominatim reverse-geocoding API. Lookups are best effort: callers treat
// any error as "enrichment unavailable" and carry on.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/etiennegalea/housing-scraper/internal/models"
)

type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	// Nominatim's usage policy allows at most one request per second.
	limiter *rate.Limiter
}

func New(endpoint, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type reverseResponse struct {
	Address models.Address `json:"address"`
	Error   string         `json:"error"`
}

// Reverse looks up the structured address for a coordinate pair.
func (c *Client) Reverse(ctx context.Context, lat, lon string) (*models.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", lat)
	query.Set("lon", lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding reverse geocode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("reverse geocode error: %s", decoded.Error)
	}

	return &decoded.Address, nil
}
