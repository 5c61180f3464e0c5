// Package source fetches raw listing batches from upstream housing sites.
// Each client harmonizes its wire format into Raw records; all semantic
// filtering and identity derivation happens in the normalizer.
package source

import "context"

// Raw is one upstream listing record before normalization. Fields are
// independently optional: an empty string or nil pointer means the source
// did not provide the value.
type Raw struct {
	ID           string
	URL          string
	RentBuy      string
	Label        string
	City         string
	Neighborhood string
	Floor        string
	// Rent is nil when the source carries no price at all, which is
	// distinct from a zero rent.
	Rent            *float64
	Rooms           string
	EnergyLabel     string
	Address         string
	Postcode        string
	Latitude        string
	Longitude       string
	PublicationDate string
	ClosingDate     string
}

// Source provides one batch of raw listings per call.
type Source interface {
	Fetch(ctx context.Context) ([]Raw, error)
}
