// Package notifier renders and delivers one notification covering the new
// listings of a reconciliation pass, via exactly one configured backend.
// Delivery is fire-once: a failure is reported but never retried, and the
// already-persisted snapshot is never rolled back because of it.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/etiennegalea/housing-scraper/internal/config"
	"github.com/etiennegalea/housing-scraper/internal/models"
)

// Backend delivers one composed notification for a set of listings.
type Backend interface {
	Notify(ctx context.Context, subject string, listings []models.Listing) error
}

type Dispatcher struct {
	backend Backend // nil when notifications are disabled
	area    string
}

// New selects the backend named by the configuration. An empty backend
// yields a dispatcher that silently drops everything.
func New(cfg config.NotifyConfig, area string) (*Dispatcher, error) {
	d := &Dispatcher{area: area}
	switch cfg.Backend {
	case "":
	case "email":
		d.backend = NewEmail(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailTo)
	case "push":
		d.backend = NewPushbullet(cfg.PushbulletAPIKey)
	default:
		return nil, fmt.Errorf("unknown notification backend %q", cfg.Backend)
	}
	return d, nil
}

// Dispatch sends one notification for the given listings. An empty set
// short-circuits: no backend call is made for zero new listings.
func (d *Dispatcher) Dispatch(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	if d.backend == nil {
		slog.Info("No notification backend configured, skipping", "count", len(listings))
		return nil
	}
	return d.backend.Notify(ctx, Subject(d.area, len(listings)), listings)
}

// Subject builds the notification title shared by all backends.
func Subject(area string, count int) string {
	return fmt.Sprintf("[HOUSE LISTINGS | %s] %d found!", strings.ToUpper(area), count)
}

// renderCompactBody produces one short line pair per listing: price and
// location, then the link. Used as the push body and the email's plain
// text alternative.
func renderCompactBody(listings []models.Listing) string {
	var b strings.Builder
	for i, l := range listings {
		fmt.Fprintf(&b, "€%s | %s (%s)\n%s\n", formatRent(l.Rent), location(l), l.City, l.URL)
		if i < len(listings)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatRent(rent float64) string {
	return strconv.FormatFloat(rent, 'f', -1, 64)
}

func location(l models.Listing) string {
	street := strings.TrimSpace(l.Street + " " + l.HouseNumber)
	if street != "" {
		return street
	}
	if l.Neighborhood != "" {
		return l.Neighborhood
	}
	return l.City
}
