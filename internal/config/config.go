package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all topsenders configuration.
type Config struct {
	Gmail       GmailConfig       `toml:"gmail"`
	Fetch       FetchConfig       `toml:"fetch"`
	Mutate      MutateConfig      `toml:"mutate"`
	Table       TableConfig       `toml:"table"`
	Unsubscribe UnsubscribeConfig `toml:"unsubscribe"`
	Retry       RetryConfig       `toml:"retry"`
	Journal     JournalConfig     `toml:"journal"`
	Log         LogConfig         `toml:"log"`
}

// GmailConfig holds Gmail OAuth credentials.
// Users can override them via config file or env vars.
type GmailConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// FetchConfig controls how the counting sample is collected.
type FetchConfig struct {
	MaxEmails   int           `toml:"max_emails"`
	PageSize    int           `toml:"page_size"`
	Query       string        `toml:"query"`
	Strategy    string        `toml:"strategy"`
	Concurrency int           `toml:"concurrency"`
	BatchSize   int           `toml:"batch_size"`
	BatchDelay  time.Duration `toml:"batch_delay"`
}

// MutateConfig controls bulk read/unread changes.
type MutateConfig struct {
	BatchSize  int           `toml:"batch_size"`
	BatchDelay time.Duration `toml:"batch_delay"`
}

// TableConfig controls the ranked sender table.
type TableConfig struct {
	TopN int `toml:"top_n"`
}

// UnsubscribeConfig controls unsubscribe link handling.
type UnsubscribeConfig struct {
	MaxSearch int           `toml:"max_search"`
	OpenLinks bool          `toml:"open_links"`
	OpenDelay time.Duration `toml:"open_delay"`
}

// RetryConfig controls backoff for transient store errors.
type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts"`
	Initial     time.Duration `toml:"initial"`
	Max         time.Duration `toml:"max"`
}

// JournalConfig controls the local mutation history.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

var strategies = map[string]bool{"sequential": true, "concurrent": true, "batched": true}

func defaults() Config {
	return Config{
		Fetch: FetchConfig{
			MaxEmails:   1000,
			PageSize:    500,
			Query:       "is:unread",
			Strategy:    "sequential",
			Concurrency: 8,
			BatchSize:   10,
			BatchDelay:  500 * time.Millisecond,
		},
		Mutate: MutateConfig{
			BatchSize:  100,
			BatchDelay: 500 * time.Millisecond,
		},
		Table: TableConfig{
			TopN: 25,
		},
		Unsubscribe: UnsubscribeConfig{
			MaxSearch: 100,
			OpenLinks: true,
			OpenDelay: time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 4,
			Initial:     500 * time.Millisecond,
			Max:         30 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	nonNegative := func(name string, d time.Duration) {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}

	positive("fetch.max_emails", c.Fetch.MaxEmails)
	positive("fetch.page_size", c.Fetch.PageSize)
	if c.Fetch.PageSize > 500 {
		errs = append(errs, fmt.Errorf("fetch.page_size must be at most 500, got %d", c.Fetch.PageSize))
	}
	if !strategies[c.Fetch.Strategy] {
		errs = append(errs, fmt.Errorf("fetch.strategy %q is not one of sequential, concurrent, batched", c.Fetch.Strategy))
	}
	positive("fetch.concurrency", c.Fetch.Concurrency)
	positive("fetch.batch_size", c.Fetch.BatchSize)
	nonNegative("fetch.batch_delay", c.Fetch.BatchDelay)
	positive("mutate.batch_size", c.Mutate.BatchSize)
	if c.Mutate.BatchSize > 1000 {
		errs = append(errs, fmt.Errorf("mutate.batch_size must be at most 1000, got %d", c.Mutate.BatchSize))
	}
	nonNegative("mutate.batch_delay", c.Mutate.BatchDelay)
	positive("table.top_n", c.Table.TopN)
	positive("unsubscribe.max_search", c.Unsubscribe.MaxSearch)
	nonNegative("unsubscribe.open_delay", c.Unsubscribe.OpenDelay)
	positive("retry.max_attempts", c.Retry.MaxAttempts)
	nonNegative("retry.initial", c.Retry.Initial)
	if c.Retry.Max < c.Retry.Initial {
		errs = append(errs, fmt.Errorf("retry.max (%s) must not be less than retry.initial (%s)", c.Retry.Max, c.Retry.Initial))
	}
	return errors.Join(errs...)
}

// JournalPath returns the configured journal database path, defaulting to
// the data directory.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(DataDir(), "topsenders.db")
}

// ConfigDir returns the topsenders config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "topsenders")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "topsenders")
}

// DataDir returns the topsenders data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "topsenders")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "topsenders")
}
