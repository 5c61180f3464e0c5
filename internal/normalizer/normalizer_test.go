package normalizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/config"
	"github.com/etiennegalea/housing-scraper/internal/models"
	"github.com/etiennegalea/housing-scraper/internal/source"
)

type mockGeocoder struct {
	addr  *models.Address
	err   error
	calls int
}

func (m *mockGeocoder) Reverse(_ context.Context, lat, lon string) (*models.Address, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.addr, nil
}

func testFilters() config.FilterConfig {
	return config.FilterConfig{
		City:           "amsterdam",
		MaxRent:        1250,
		ExcludedLabels: []string{"Tijdelijke verhuur studenten"},
	}
}

func rent(v float64) *float64 { return &v }

func validRaw() source.Raw {
	return source.Raw{
		ID:              "48503",
		URL:             "https://aanbod.ymere.nl/aanbod/huurwoningen/details/?publicationID=48503",
		RentBuy:         "Huur",
		Label:           "Nieuw",
		City:            "Amsterdam",
		Neighborhood:    "Jordaan",
		Floor:           "2e verdieping",
		Rent:            rent(1175.50),
		PublicationDate: "2026-08-20 10:00:00",
		ClosingDate:     "2026-09-03 23:59:00",
	}
}

func TestNormalize_ValidListing(t *testing.T) {
	n := New(testFilters(), nil)
	extractedAt := time.Now()

	listings := n.Normalize(context.Background(), []source.Raw{validRaw()}, extractedAt)
	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}

	l := listings[0]
	if l.ID != "48503" {
		t.Errorf("Expected ID 48503, got %s", l.ID)
	}
	if l.Rent != 1175.50 {
		t.Errorf("Expected rent 1175.50, got %v", l.Rent)
	}
	if !l.DiscoveredAt.Equal(extractedAt) {
		t.Errorf("Expected DiscoveredAt %v, got %v", extractedAt, l.DiscoveredAt)
	}
	wantClosing := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	if !l.ClosingDate.Equal(wantClosing) {
		t.Errorf("Expected closing date %v, got %v", wantClosing, l.ClosingDate)
	}
}

func TestNormalize_InclusionPredicates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*source.Raw)
	}{
		{"For sale", func(r *source.Raw) { r.RentBuy = "Koop" }},
		{"Excluded label", func(r *source.Raw) { r.Label = "Tijdelijke verhuur studenten" }},
		{"Wrong city", func(r *source.Raw) { r.City = "Haarlem" }},
		{"Too expensive", func(r *source.Raw) { r.Rent = rent(1300) }},
		{"Missing rent", func(r *source.Raw) { r.Rent = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(testFilters(), nil)
			raw := validRaw()
			tt.mutate(&raw)

			listings := n.Normalize(context.Background(), []source.Raw{raw}, time.Now())
			if len(listings) != 0 {
				t.Errorf("Expected record to be filtered out, got %d listings", len(listings))
			}
		})
	}
}

func TestNormalize_MissingPriceExcluded(t *testing.T) {
	n := New(testFilters(), nil)

	withPrice1 := validRaw()
	noPrice := validRaw()
	noPrice.ID = "48504"
	noPrice.Rent = nil
	withPrice2 := validRaw()
	withPrice2.ID = "48505"

	listings := n.Normalize(context.Background(), []source.Raw{withPrice1, noPrice, withPrice2}, time.Now())
	if len(listings) != 2 {
		t.Fatalf("Expected 2 of 3 records to survive, got %d", len(listings))
	}
	if listings[0].ID != "48503" || listings[1].ID != "48505" {
		t.Errorf("Expected order-preserving output [48503 48505], got [%s %s]", listings[0].ID, listings[1].ID)
	}
}

func TestNormalize_RentAtCeilingIncluded(t *testing.T) {
	n := New(testFilters(), nil)
	raw := validRaw()
	raw.Rent = rent(1250)

	if got := len(n.Normalize(context.Background(), []source.Raw{raw}, time.Now())); got != 1 {
		t.Errorf("Rent equal to the ceiling must be included, got %d listings", got)
	}
}

func TestDeriveID_Stability(t *testing.T) {
	raw := validRaw()
	first, err := DeriveID(raw)
	if err != nil {
		t.Fatalf("DeriveID() error: %v", err)
	}
	second, err := DeriveID(raw)
	if err != nil {
		t.Fatalf("DeriveID() error: %v", err)
	}
	if first != second {
		t.Errorf("DeriveID is not stable: %s vs %s", first, second)
	}
}

func TestDeriveID_FromSlug(t *testing.T) {
	raw := source.Raw{URL: "https://www.funda.nl/huur/amsterdam/appartement-87654321-keizersgracht-100/"}
	id, err := DeriveID(raw)
	if err != nil {
		t.Fatalf("DeriveID() error: %v", err)
	}
	if id != "87654321" {
		t.Errorf("Expected slug-derived ID 87654321, got %s", id)
	}
}

func TestDeriveID_NoIdentity(t *testing.T) {
	if _, err := DeriveID(source.Raw{URL: "https://example.com/nothing-here"}); err == nil {
		t.Fatal("Expected error when no identity is derivable")
	}
}

func TestNormalize_GeocodeEnrichment(t *testing.T) {
	geo := &mockGeocoder{addr: &models.Address{
		HouseNumber: "12",
		Street:      "Prinsengracht",
		City:        "Amsterdam",
		Postcode:    "1015 AB",
	}}
	n := New(testFilters(), geo)

	raw := validRaw()
	raw.Latitude = "52.3728"
	raw.Longitude = "4.8936"

	listings := n.Normalize(context.Background(), []source.Raw{raw}, time.Now())
	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}
	if listings[0].Street != "Prinsengracht" || listings[0].HouseNumber != "12" {
		t.Errorf("Expected enriched address, got %+v", listings[0])
	}
	if geo.calls != 1 {
		t.Errorf("Expected 1 geocoder call, got %d", geo.calls)
	}
}

func TestNormalize_GeocodeFailureIsNonFatal(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("locator unavailable")}
	n := New(testFilters(), geo)

	raw := validRaw()
	raw.Latitude = "52.3728"
	raw.Longitude = "4.8936"

	listings := n.Normalize(context.Background(), []source.Raw{raw}, time.Now())
	if len(listings) != 1 {
		t.Fatalf("Enrichment failure must not drop the listing, got %d", len(listings))
	}
	if listings[0].HouseNumber != "" {
		t.Errorf("Expected address fields unset after failed enrichment, got %q", listings[0].HouseNumber)
	}
}

func TestNormalize_NoCoordinatesSkipsGeocoder(t *testing.T) {
	geo := &mockGeocoder{addr: &models.Address{}}
	n := New(testFilters(), geo)

	n.Normalize(context.Background(), []source.Raw{validRaw()}, time.Now())
	if geo.calls != 0 {
		t.Errorf("Expected no geocoder calls without coordinates, got %d", geo.calls)
	}
}

func TestNormalize_FundaStyleRecord(t *testing.T) {
	n := New(testFilters(), nil)
	raw := source.Raw{
		URL:      "https://www.funda.nl/huur/amsterdam/appartement-87654321-keizersgracht-100/",
		RentBuy:  "huur",
		City:     "Amsterdam",
		Address:  "Keizersgracht 100",
		Postcode: "1015 CW",
		Rent:     rent(1195),
		Rooms:    "75 m² · 3 kamers",
	}

	listings := n.Normalize(context.Background(), []source.Raw{raw}, time.Now())
	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}
	l := listings[0]
	if l.ID != "87654321" {
		t.Errorf("Expected slug-derived ID, got %s", l.ID)
	}
	if l.Rooms != 3 {
		t.Errorf("Expected 3 rooms, got %d", l.Rooms)
	}
	if l.ClosingDate.IsZero() == false {
		t.Errorf("Expected zero closing date for funda record, got %v", l.ClosingDate)
	}
}
