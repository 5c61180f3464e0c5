// Package storage persists the known-listings snapshot as a CSV file.
// The file is fully rewritten each run through a temp-file rename, so a
// crash mid-write leaves either the old or the new complete snapshot.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/models"
	"github.com/etiennegalea/housing-scraper/internal/util"
)

var header = []string{
	"id", "city", "rent", "label", "floor", "rooms", "energy_label",
	"neighborhood", "house_number", "street", "postcode",
	"publication_date", "closing_date", "discovered_at", "url",
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted snapshot. An absent, unreadable, or corrupt
// file yields an empty snapshot rather than an error: the reconciler is
// idempotent against a wrongly empty starting set, so forward progress
// beats strict durability here. Corrupt individual rows are skipped.
func (s *Store) Load() models.Snapshot {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Snapshot unreadable, starting empty", "path", s.path, "error", err)
		} else {
			slog.Info("No snapshot found, starting empty", "path", s.path)
		}
		return models.Snapshot{}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(header)

	if _, err := reader.Read(); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Warn("Snapshot header corrupt, starting empty", "path", s.path, "error", err)
		}
		return models.Snapshot{}
	}

	snapshot := models.Snapshot{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("Snapshot row corrupt, skipping", "path", s.path, "error", err)
			continue
		}
		listing, err := decodeRow(record)
		if err != nil {
			slog.Warn("Snapshot row undecodable, skipping", "path", s.path, "error", err)
			continue
		}
		snapshot[listing.ID] = listing
	}
	return snapshot
}

// Save atomically replaces the snapshot file: write to a temp file in the
// same directory, fsync, then rename over the target.
func (s *Store) Save(snapshot models.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	for _, id := range sortedIDs(snapshot) {
		if err := writer.Write(encodeRow(snapshot[id])); err != nil {
			return fmt.Errorf("writing snapshot row %s: %w", id, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", s.path, err)
	}
	tmpName = "" // replace succeeded, nothing to clean up
	return nil
}

func encodeRow(l models.Listing) []string {
	return []string{
		l.ID,
		l.City,
		strconv.FormatFloat(l.Rent, 'f', -1, 64),
		l.Label,
		l.Floor,
		strconv.Itoa(l.Rooms),
		l.EnergyLabel,
		l.Neighborhood,
		l.HouseNumber,
		l.Street,
		l.Postcode,
		encodeDate(l.PublicationDate),
		encodeDate(l.ClosingDate),
		l.DiscoveredAt.Format(timestampLayout),
		l.URL,
	}
}

func decodeRow(record []string) (models.Listing, error) {
	if record[0] == "" {
		return models.Listing{}, errors.New("empty id")
	}
	rentVal, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return models.Listing{}, fmt.Errorf("bad rent %q: %w", record[2], err)
	}
	discovered, err := time.Parse(timestampLayout, record[13])
	if err != nil {
		return models.Listing{}, fmt.Errorf("bad discovered_at %q: %w", record[13], err)
	}
	return models.Listing{
		ID:              record[0],
		City:            record[1],
		Rent:            rentVal,
		Label:           record[3],
		Floor:           record[4],
		Rooms:           util.SafeAtoi(record[5]),
		EnergyLabel:     record[6],
		Neighborhood:    record[7],
		HouseNumber:     record[8],
		Street:          record[9],
		Postcode:        record[10],
		PublicationDate: decodeDate(record[11]),
		ClosingDate:     decodeDate(record[12]),
		DiscoveredAt:    discovered,
		URL:             record[14],
	}, nil
}

func encodeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func decodeDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sortedIDs orders rows numerically where possible so the file diffs
// cleanly between runs.
func sortedIDs(snapshot models.Snapshot) []string {
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}
