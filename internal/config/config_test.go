package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOUSING_SOURCE", "SOURCE_URL", "SEARCH_AREA", "TARGET_CITY",
		"SNAPSHOT_PATH", "NOTIFY_BACKEND", "EMAIL_TO", "EMAIL_FROM",
		"LOG_LEVEL", "LOG_DIR", "SENDGRID_API_KEY", "PUSHBULLET_API_KEY",
		"MAX_RENT", "MAX_RETRIES", "GEOCODE_ENABLED", "REFRESH_EXISTING",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Source.Name != "ymere" {
		t.Errorf("Expected default source ymere, got %s", cfg.Source.Name)
	}
	if cfg.Filters.MaxRent != 1250 {
		t.Errorf("Expected default max rent 1250, got %v", cfg.Filters.MaxRent)
	}
	if cfg.Filters.City != "amsterdam" {
		t.Errorf("Expected default city amsterdam, got %s", cfg.Filters.City)
	}
	if cfg.Snapshot.Path != "csv/house_listings.csv" {
		t.Errorf("Expected default snapshot path, got %s", cfg.Snapshot.Path)
	}
	// No API key set, so the default email backend is disabled.
	if cfg.Notify.Backend != "" {
		t.Errorf("Expected notifications disabled without API key, got %q", cfg.Notify.Backend)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TARGET_CITY", "haarlem")
	t.Setenv("MAX_RENT", "1500")
	t.Setenv("NOTIFY_BACKEND", "push")
	t.Setenv("PUSHBULLET_API_KEY", "pb-test-key")
	t.Setenv("SNAPSHOT_PATH", "/tmp/listings.csv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Filters.City != "haarlem" {
		t.Errorf("Expected city haarlem, got %s", cfg.Filters.City)
	}
	if cfg.Filters.MaxRent != 1500 {
		t.Errorf("Expected max rent 1500, got %v", cfg.Filters.MaxRent)
	}
	if cfg.Notify.Backend != "push" {
		t.Errorf("Expected push backend, got %s", cfg.Notify.Backend)
	}
	if cfg.Notify.PushbulletAPIKey != "pb-test-key" {
		t.Errorf("Expected Pushbullet key from env, got %q", cfg.Notify.PushbulletAPIKey)
	}
	if cfg.Snapshot.Path != "/tmp/listings.csv" {
		t.Errorf("Expected snapshot path override, got %s", cfg.Snapshot.Path)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte(`
source:
  name: funda
  area: breda
filters:
  city: breda
  max_rent: 1400
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Source.Name != "funda" {
		t.Errorf("Expected funda source, got %s", cfg.Source.Name)
	}
	if cfg.Source.Area != "breda" {
		t.Errorf("Expected area breda, got %s", cfg.Source.Area)
	}
	if cfg.Filters.MaxRent != 1400 {
		t.Errorf("Expected max rent 1400, got %v", cfg.Filters.MaxRent)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("filters:\n  max_rent: 1400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_RENT", "900")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Filters.MaxRent != 900 {
		t.Errorf("Expected env override 900, got %v", cfg.Filters.MaxRent)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Load() with absent file should not error, got %v", err)
	}
	if cfg.Source.Name != "ymere" {
		t.Errorf("Expected defaults for absent file, got source %s", cfg.Source.Name)
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOUSING_SOURCE", "craigslist")

	_, err := Load("")
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource, got %v", err)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIFY_BACKEND", "carrier-pigeon")

	_, err := Load("")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestLoad_EmailBackendRequiresRecipient(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIFY_BACKEND", "email")
	t.Setenv("SENDGRID_API_KEY", "sg-test-key")

	_, err := Load("")
	if !errors.Is(err, ErrMissingEmailTo) {
		t.Errorf("Expected ErrMissingEmailTo, got %v", err)
	}
}

func TestLoad_InvalidMaxRent(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RENT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Error("Load() should return error for invalid MAX_RENT")
	}
}
