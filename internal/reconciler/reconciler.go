// Package reconciler computes which listings in a fresh batch are new and
// maintains the durable snapshot: prune expired entries, diff the batch
// against the remaining keys, merge, and persist before anyone notifies.
package reconciler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/models"
)

type Reconciler struct {
	store SnapshotStore
	// refreshExisting switches the merge policy for IDs already present
	// in the live snapshot. Default (false): first-seen attributes win
	// and batch entries for known IDs are ignored. True: attributes are
	// refreshed from the latest batch, keeping the original DiscoveredAt.
	refreshExisting bool
}

func New(store SnapshotStore, refreshExisting bool) *Reconciler {
	return &Reconciler{store: store, refreshExisting: refreshExisting}
}

// Reconcile runs one pass: load, prune by now, diff, merge, persist.
// It returns the new listings in batch order. The snapshot is rewritten
// even when the batch brings nothing new, so pruning always takes effect.
// On a save failure nothing is considered new: the caller must not notify.
func (r *Reconciler) Reconcile(batch []models.Listing, now time.Time) ([]models.Listing, error) {
	snapshot := r.store.Load()
	merged := snapshot.Prune(now)
	expired := len(snapshot) - len(merged)

	var fresh []models.Listing
	for _, listing := range batch {
		existing, seen := merged[listing.ID]
		if seen {
			// An ID that survived pruning is known; whether its stored
			// attributes refresh is a policy choice. DiscoveredAt is
			// immutable either way.
			if r.refreshExisting {
				listing.DiscoveredAt = existing.DiscoveredAt
				merged[listing.ID] = listing
			}
			continue
		}
		// Either never seen, or pruned away: expiry frees the ID, so a
		// reappearing listing counts as new again.
		merged[listing.ID] = listing
		fresh = append(fresh, listing)
	}

	if err := r.store.Save(merged); err != nil {
		return nil, fmt.Errorf("persisting snapshot: %w", err)
	}

	slog.Info("Reconciled batch",
		"batch", len(batch),
		"known", len(snapshot),
		"expired", expired,
		"new", len(fresh),
		"snapshot", len(merged))
	return fresh, nil
}
