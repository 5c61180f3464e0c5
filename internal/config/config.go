// Package config provides configuration for the housing scraper batch job.
// Settings come from an optional YAML file with environment overrides; API
// credentials are read from the environment only.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrUnknownSource  = errors.New("source.name must be 'ymere' or 'funda'")
	ErrInvalidMaxRent = errors.New("filters.max_rent must be greater than zero")
	ErrUnknownBackend = errors.New("notify.backend must be 'email' or 'push'")
	ErrMissingEmailTo = errors.New("notify.email_to is required for the email backend")
	ErrInvalidLevel   = errors.New("logging.level must be one of: debug, info, warn, error")
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Filters  FilterConfig   `yaml:"filters"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig selects and tunes the upstream listing source.
type SourceConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`  // optional endpoint override
	Area       string `yaml:"area"` // search area for the funda source
	MaxRetries int    `yaml:"max_retries"`
}

// FilterConfig holds the inclusion predicates applied during normalization.
type FilterConfig struct {
	City           string   `yaml:"city"`
	MaxRent        float64  `yaml:"max_rent"`
	ExcludedLabels []string `yaml:"excluded_labels"`
	// RefreshExisting flips the merge policy for listings already in the
	// snapshot: false keeps the first-seen attributes, true overwrites
	// them from the latest batch.
	RefreshExisting bool `yaml:"refresh_existing"`
}

type SnapshotConfig struct {
	Path string `yaml:"path"`
}

type GeocodeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	UserAgent string `yaml:"user_agent"`
}

// NotifyConfig selects the notification backend. An empty backend disables
// notifications entirely. API keys come from SENDGRID_API_KEY and
// PUSHBULLET_API_KEY and are never read from the YAML file.
type NotifyConfig struct {
	Backend          string `yaml:"backend"`
	EmailTo          string `yaml:"email_to"`
	EmailFrom        string `yaml:"email_from"`
	SendGridAPIKey   string `yaml:"-"`
	PushbulletAPIKey string `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // when set, logs also go to a monthly file here
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), and environment variables, in increasing precedence. A .env
// file in the working directory is honored when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Info("No config file found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Notify.Backend == "email" && cfg.Notify.SendGridAPIKey == "" {
		slog.Warn("SENDGRID_API_KEY not set, notifications will be skipped")
		cfg.Notify.Backend = ""
	}
	if cfg.Notify.Backend == "push" && cfg.Notify.PushbulletAPIKey == "" {
		slog.Warn("PUSHBULLET_API_KEY not set, notifications will be skipped")
		cfg.Notify.Backend = ""
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Name:       "ymere",
			Area:       "amsterdam",
			MaxRetries: 3,
		},
		Filters: FilterConfig{
			City:           "amsterdam",
			MaxRent:        1250,
			ExcludedLabels: []string{"Tijdelijke verhuur studenten"},
		},
		Snapshot: SnapshotConfig{
			Path: "csv/house_listings.csv",
		},
		Geocode: GeocodeConfig{
			Endpoint:  "https://nominatim.openstreetmap.org",
			UserAgent: "house_listings",
		},
		Notify: NotifyConfig{
			Backend:   "email",
			EmailFrom: "housing-scraper@localhost",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Source.Name, "HOUSING_SOURCE")
	setString(&c.Source.URL, "SOURCE_URL")
	setString(&c.Source.Area, "SEARCH_AREA")
	setString(&c.Filters.City, "TARGET_CITY")
	setString(&c.Snapshot.Path, "SNAPSHOT_PATH")
	setString(&c.Notify.Backend, "NOTIFY_BACKEND")
	setString(&c.Notify.EmailTo, "EMAIL_TO")
	setString(&c.Notify.EmailFrom, "EMAIL_FROM")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Dir, "LOG_DIR")

	c.Notify.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	c.Notify.PushbulletAPIKey = os.Getenv("PUSHBULLET_API_KEY")

	if v := os.Getenv("MAX_RENT"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_RENT %q: %w", v, err)
		}
		c.Filters.MaxRent = parsed
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RETRIES %q: %w", v, err)
		}
		c.Source.MaxRetries = parsed
	}
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GEOCODE_ENABLED %q: %w", v, err)
		}
		c.Geocode.Enabled = parsed
	}
	if v := os.Getenv("REFRESH_EXISTING"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REFRESH_EXISTING %q: %w", v, err)
		}
		c.Filters.RefreshExisting = parsed
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Source.Name {
	case "ymere", "funda":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownSource, c.Source.Name)
	}

	if c.Filters.MaxRent <= 0 {
		return ErrInvalidMaxRent
	}

	switch c.Notify.Backend {
	case "", "email", "push":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, c.Notify.Backend)
	}
	if c.Notify.Backend == "email" && c.Notify.EmailTo == "" {
		return ErrMissingEmailTo
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLevel
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
