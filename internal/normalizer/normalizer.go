// Package normalizer turns raw upstream listing records into canonical
// listings. A record must pass every inclusion predicate to be emitted;
// failing one is normal filtering, not an error.
package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/config"
	"github.com/etiennegalea/housing-scraper/internal/models"
	"github.com/etiennegalea/housing-scraper/internal/source"
	"github.com/etiennegalea/housing-scraper/internal/util"
	"github.com/etiennegalea/housing-scraper/internal/validator"
)

// Geocoder resolves coordinates to a structured address. Lookups are best
// effort: any error leaves the address fields unset.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon string) (*models.Address, error)
}

type Normalizer struct {
	city           string
	maxRent        float64
	excludedLabels map[string]struct{}
	geocoder       Geocoder // nil disables enrichment
	validate       *validator.Validator
}

func New(filters config.FilterConfig, geocoder Geocoder) *Normalizer {
	excluded := make(map[string]struct{}, len(filters.ExcludedLabels))
	for _, label := range filters.ExcludedLabels {
		excluded[label] = struct{}{}
	}
	return &Normalizer{
		city:           strings.ToLower(filters.City),
		maxRent:        filters.MaxRent,
		excludedLabels: excluded,
		geocoder:       geocoder,
		validate:       validator.New(),
	}
}

// Normalize converts a raw batch into canonical listings, order preserved.
// extractedAt becomes the immutable DiscoveredAt of every emitted listing.
func (n *Normalizer) Normalize(ctx context.Context, batch []source.Raw, extractedAt time.Time) []models.Listing {
	listings := make([]models.Listing, 0, len(batch))
	for _, raw := range batch {
		listing, ok := n.normalizeOne(ctx, raw, extractedAt)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	slog.Info("Normalized batch", "raw", len(batch), "kept", len(listings))
	return listings
}

func (n *Normalizer) normalizeOne(ctx context.Context, raw source.Raw, extractedAt time.Time) (models.Listing, bool) {
	if !n.include(raw) {
		return models.Listing{}, false
	}

	id, err := DeriveID(raw)
	if err != nil {
		slog.Warn("Skipping listing without derivable identity", "url", raw.URL, "error", err)
		return models.Listing{}, false
	}

	listing := models.Listing{
		ID:              id,
		City:            raw.City,
		Rent:            *raw.Rent,
		Label:           raw.Label,
		Floor:           raw.Floor,
		Rooms:           util.ParseRoomCount(raw.Rooms),
		EnergyLabel:     raw.EnergyLabel,
		Neighborhood:    raw.Neighborhood,
		Street:          raw.Address,
		Postcode:        raw.Postcode,
		PublicationDate: parseDate(raw.PublicationDate),
		ClosingDate:     parseDate(raw.ClosingDate),
		DiscoveredAt:    extractedAt,
		URL:             raw.URL,
	}

	n.enrich(ctx, raw, &listing)

	if err := n.validate.ValidateStruct(listing); err != nil {
		slog.Warn("Skipping listing that failed validation", "id", listing.ID, "error", err)
		return models.Listing{}, false
	}
	return listing, true
}

// include applies the ordered inclusion predicates: for rent, not carrying
// an excluded action label, in the target city, priced, and affordable.
// A listing without any rent value is excluded rather than defaulted.
func (n *Normalizer) include(raw source.Raw) bool {
	if !strings.EqualFold(raw.RentBuy, "huur") {
		return false
	}
	if _, excluded := n.excludedLabels[raw.Label]; excluded {
		return false
	}
	if !strings.Contains(strings.ToLower(raw.City), n.city) {
		return false
	}
	if raw.Rent == nil {
		return false
	}
	return *raw.Rent <= n.maxRent
}

func (n *Normalizer) enrich(ctx context.Context, raw source.Raw, listing *models.Listing) {
	if n.geocoder == nil || raw.Latitude == "" || raw.Longitude == "" {
		return
	}
	addr, err := n.geocoder.Reverse(ctx, raw.Latitude, raw.Longitude)
	if err != nil {
		slog.Debug("Locator unavailable", "id", listing.ID, "error", err)
		return
	}
	listing.HouseNumber = addr.HouseNumber
	if addr.Street != "" {
		listing.Street = addr.Street
	}
	if addr.City != "" {
		listing.City = addr.City
	}
	listing.Postcode = addr.Postcode
}

var urlSlugIDRegex = regexp.MustCompile(`(?:huur|koop|appartement|huis)-(\d+)`)

// DeriveID extracts the stable identifier for a raw record: the explicit
// upstream ID when present, otherwise the numeric slug from the listing
// URL. It is a pure function of the record's identifying fields.
func DeriveID(raw source.Raw) (string, error) {
	if raw.ID != "" {
		return raw.ID, nil
	}
	if m := urlSlugIDRegex.FindStringSubmatch(raw.URL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no explicit id and no recognizable slug in %q", raw.URL)
}

// Upstream dates come as "2006-01-02 15:04:05" or as a bare date. An
// unparseable or empty value maps to the zero time, which downstream
// treats as "no closing date".
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	slog.Debug("Unparseable date", "value", s)
	return time.Time{}
}
