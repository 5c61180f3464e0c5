package models

import "time"

// Listing is one canonical housing record produced by the normalizer.
// ID is the sole join key for reconciliation: it is derived once from the
// raw upstream record and never recomputed or mutated afterwards.
type Listing struct {
	ID              string  `validate:"required"`
	City            string  `validate:"required"`
	Rent            float64 `validate:"gt=0"`
	Label           string
	Floor           string
	Rooms           int `validate:"gte=0"`
	EnergyLabel     string
	Neighborhood    string
	HouseNumber     string
	Street          string
	Postcode        string
	PublicationDate time.Time
	// ClosingDate is the date after which the listing expires and becomes
	// eligible for pruning. A zero value means the source gave none; such
	// listings are never pruned by the expiry rule.
	ClosingDate  time.Time
	DiscoveredAt time.Time `validate:"required"`
	URL          string    `validate:"required,url"`
}

// Expired reports whether the listing's closing date has passed strictly
// before asOf, compared at day granularity. Closing dates are parsed as
// bare dates while asOf is a wall-clock time, so the comparison works on
// calendar days rather than instants.
func (l Listing) Expired(asOf time.Time) bool {
	if l.ClosingDate.IsZero() {
		return false
	}
	cy, cd := l.ClosingDate.Year(), l.ClosingDate.YearDay()
	ay, ad := asOf.Year(), asOf.YearDay()
	return cy < ay || (cy == ay && cd < ad)
}

// Address holds the enrichment fields a reverse-geocode lookup can add to
// a listing. All fields are optional.
type Address struct {
	HouseNumber string `json:"house_number"`
	Street      string `json:"road"`
	City        string `json:"city"`
	Postcode    string `json:"postcode"`
}

// Snapshot is the durable set of previously seen, non-expired listings,
// keyed by listing ID. It is loaded at the start of a reconciliation pass
// and fully rewritten at the end.
type Snapshot map[string]Listing

// Prune returns a new snapshot without the entries that expired before
// asOf. The receiver is left untouched.
func (s Snapshot) Prune(asOf time.Time) Snapshot {
	kept := make(Snapshot, len(s))
	for id, l := range s {
		if l.Expired(asOf) {
			continue
		}
		kept[id] = l
	}
	return kept
}
