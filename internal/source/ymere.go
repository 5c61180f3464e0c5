package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/util"
)

const (
	defaultYmereURL = "https://aanbod.ymere.nl/portal/publication/frontend/getallobjects/format/json"
	ymereDetailURL  = "https://aanbod.ymere.nl/aanbod/huurwoningen/details/?publicationID=%s"
)

// YmereClient fetches the full current offer from Ymere's publication
// endpoint, which returns all listings (rentals, sales, social housing)
// as one JSON array.
type YmereClient struct {
	httpClient *http.Client
	url        string
	maxRetries int
}

func NewYmere(endpoint string, maxRetries int) *YmereClient {
	if endpoint == "" {
		endpoint = defaultYmereURL
	}
	return &YmereClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        endpoint,
		maxRetries: maxRetries,
	}
}

type ymereName struct {
	Name string `json:"name"`
}

type ymereLabel struct {
	Label string `json:"label"`
}

type ymereDwelling struct {
	RentBuy string `json:"rentBuy"`
}

type ymereObject struct {
	ID              json.Number     `json:"id"`
	PublicationDate string          `json:"publicationDate"`
	ClosingDate     string          `json:"closingDate"`
	Dwellings       []ymereDwelling `json:"dwellings"`
	ActionLabel     []ymereLabel    `json:"actionLabel"`
	City            []ymereName     `json:"city"`
	Neighborhood    []ymereName     `json:"neighborhood"`
	Floor           []ymereName     `json:"floor"`
	TotalRent       []float64       `json:"totalRent"`
	Latitude        []string        `json:"latitude"`
	Longitude       []string        `json:"longitude"`
}

type ymereResponse struct {
	Result []ymereObject `json:"result"`
}

// Fetch posts the publication query and converts the response into Raw
// records, order preserved. Transient failures are retried with
// exponential backoff; a still-failing fetch is fatal to the run.
func (c *YmereClient) Fetch(ctx context.Context) ([]Raw, error) {
	var decoded ymereResponse

	err := util.RetryWithBackoff(ctx, c.maxRetries, time.Second, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying Ymere fetch", "attempt", attempt)
		}
		return c.fetchOnce(ctx, &decoded)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching ymere listings: %w", err)
	}

	raws := make([]Raw, 0, len(decoded.Result))
	for _, obj := range decoded.Result {
		raws = append(raws, obj.toRaw())
	}
	slog.Info("Fetched Ymere listings", "count", len(raws))
	return raws, nil
}

func (c *YmereClient) fetchOnce(ctx context.Context, out *ymereResponse) error {
	payload := url.Values{}
	payload.Set("dwellingTypeCategory", "woning")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(payload.Encode()))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", "https://aanbod.ymere.nl")
	req.Header.Set("Referer", "https://aanbod.ymere.nl/aanbod/huurwoningen/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	*out = ymereResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (o ymereObject) toRaw() Raw {
	raw := Raw{
		ID:              o.ID.String(),
		PublicationDate: o.PublicationDate,
		ClosingDate:     o.ClosingDate,
	}
	if raw.ID != "" {
		raw.URL = fmt.Sprintf(ymereDetailURL, raw.ID)
	}
	if len(o.Dwellings) > 0 {
		raw.RentBuy = o.Dwellings[0].RentBuy
	}
	if len(o.ActionLabel) > 0 {
		raw.Label = o.ActionLabel[0].Label
	}
	if len(o.City) > 0 {
		raw.City = o.City[0].Name
	}
	if len(o.Neighborhood) > 0 {
		raw.Neighborhood = o.Neighborhood[0].Name
	}
	if len(o.Floor) > 0 {
		raw.Floor = o.Floor[0].Name
	}
	if len(o.TotalRent) > 0 {
		rent := o.TotalRent[0]
		raw.Rent = &rent
	}
	if len(o.Latitude) > 0 {
		raw.Latitude = o.Latitude[0]
	}
	if len(o.Longitude) > 0 {
		raw.Longitude = o.Longitude[0]
	}
	return raw
}
