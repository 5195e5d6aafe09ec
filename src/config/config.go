// Package config loads run settings from an optional YAML file and applies
// defaults so every field is usable without one.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Last-backup scope values. Scope "disk" compares an instance against its own
// disk's snapshots; "global" reproduces the legacy fleet-wide comparison.
const (
	ScopeDisk   = "disk"
	ScopeGlobal = "global"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds everything a run needs beyond command-line overrides.
type Config struct {
	Project string `yaml:"project"`
	Zone    string `yaml:"zone"`

	// KeyFile is an optional service-account key path; empty means
	// application default credentials.
	KeyFile string `yaml:"key_file"`

	// PollInterval is the wait between operation status checks.
	PollInterval Duration `yaml:"poll_interval"`

	// DailyWindowDays bounds the per-day dedup window [0, N) and
	// WeeklyWindowDays bounds the pooled window [N, M).
	DailyWindowDays  int `yaml:"daily_window_days"`
	WeeklyWindowDays int `yaml:"weekly_window_days"`

	LastBackupScope string `yaml:"last_backup_scope"`

	// FailOnAnyError makes a single failed backup fail the whole run.
	// Default policy: succeed unless every eligible instance failed.
	FailOnAnyError bool `yaml:"fail_on_any_error"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PollInterval:     Duration(5 * time.Second),
		DailyWindowDays:  7,
		WeeklyWindowDays: 14,
		LastBackupScope:  ScopeDisk,
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges; it does not require Project/Zone since those
// may arrive as flags.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", time.Duration(c.PollInterval))
	}
	if c.DailyWindowDays <= 0 || c.WeeklyWindowDays <= c.DailyWindowDays {
		return fmt.Errorf("retention windows must satisfy 0 < daily(%d) < weekly(%d)",
			c.DailyWindowDays, c.WeeklyWindowDays)
	}
	if c.LastBackupScope != ScopeDisk && c.LastBackupScope != ScopeGlobal {
		return fmt.Errorf("last_backup_scope must be %q or %q, got %q",
			ScopeDisk, ScopeGlobal, c.LastBackupScope)
	}
	return nil
}
