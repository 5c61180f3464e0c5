package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/config"
	"github.com/etiennegalea/housing-scraper/internal/geocode"
	"github.com/etiennegalea/housing-scraper/internal/logger"
	"github.com/etiennegalea/housing-scraper/internal/normalizer"
	"github.com/etiennegalea/housing-scraper/internal/notifier"
	"github.com/etiennegalea/housing-scraper/internal/reconciler"
	"github.com/etiennegalea/housing-scraper/internal/source"
	"github.com/etiennegalea/housing-scraper/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Dir)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	slog.Info("Starting housing scraper run", "source", cfg.Source.Name, "area", cfg.Source.Area)

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	var geocoder normalizer.Geocoder
	if cfg.Geocode.Enabled {
		geocoder = geocode.New(cfg.Geocode.Endpoint, cfg.Geocode.UserAgent)
	}

	norm := normalizer.New(cfg.Filters, geocoder)
	store := storage.New(cfg.Snapshot.Path)
	rec := reconciler.New(store, cfg.Filters.RefreshExisting)

	dispatcher, err := notifier.New(cfg.Notify, cfg.Source.Area)
	if err != nil {
		return fmt.Errorf("configuring notifier: %w", err)
	}

	batch, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching listings: %w", err)
	}
	slog.Info("Fetched raw listings", "count", len(batch))

	now := time.Now()
	listings := norm.Normalize(ctx, batch, now)

	fresh, err := rec.Reconcile(listings, now)
	if err != nil {
		return fmt.Errorf("reconciling snapshot: %w", err)
	}

	if len(fresh) == 0 {
		slog.Info("No new houses found")
		return nil
	}

	slog.Info("Houses available found", "count", len(fresh))

	// The snapshot is already saved; a notification failure must not
	// fail the run, or the same listings would be re-announced next time.
	if err := dispatcher.Dispatch(ctx, fresh); err != nil {
		slog.Error("Failed to send notification", "error", err)
	}
	return nil
}

func buildSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Name {
	case "ymere":
		return source.NewYmere(cfg.Source.URL, cfg.Source.MaxRetries), nil
	case "funda":
		return source.NewFunda(cfg.Source.URL, cfg.Source.Area, source.LoadSelectors(), cfg.Source.MaxRetries), nil
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrUnknownSource, cfg.Source.Name)
	}
}
