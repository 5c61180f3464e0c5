package reconciler

import "github.com/etiennegalea/housing-scraper/internal/models"

// SnapshotStore abstracts the durable known-listings snapshot. Load never
// fails: a missing or corrupt snapshot is recovered as an empty set by
// the implementation.
type SnapshotStore interface {
	Load() models.Snapshot
	Save(models.Snapshot) error
}
