// Package config loads layered settings: defaults, then pdp.yaml, then
// PDP_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	DB        string          `mapstructure:"db"`
	Timezone  string          `mapstructure:"timezone"`
	User      string          `mapstructure:"user"`
	Log       LogConfig       `mapstructure:"log"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Approvals ApprovalsConfig `mapstructure:"approvals"`
	Overview  OverviewConfig  `mapstructure:"overview"`
	Report    ReportConfig    `mapstructure:"report"`
	Levels    []Level         `mapstructure:"levels"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type SyncConfig struct {
	// OnTemplateSave re-syncs derived plans whenever a template is updated.
	OnTemplateSave bool `mapstructure:"on_template_save"`
}

type ApprovalsConfig struct {
	PendingLimit int `mapstructure:"pending_limit"`
}

type OverviewConfig struct {
	Limit int `mapstructure:"limit"`
}

type ReportConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

// Level is one rung of the professional ladder. Threshold is the number of
// closed skills needed to reach it.
type Level struct {
	Key       string `mapstructure:"key"`
	Title     string `mapstructure:"title"`
	Threshold int    `mapstructure:"threshold"`
}

// DefaultLevels is the ladder used when none is configured.
var DefaultLevels = []Level{
	{Key: "junior", Title: "Junior", Threshold: 0},
	{Key: "junior_plus", Title: "Junior+", Threshold: 9},
	{Key: "middle", Title: "Middle", Threshold: 19},
	{Key: "senior", Title: "Senior", Threshold: 35},
}

const envPrefix = "PDP"

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"as":        "user",
	"log-level": "log.level",
	"timezone":  "timezone",
}

// Load resolves configuration. configFile, when non-empty, must exist.
// Otherwise pdp.yaml is looked up in the working directory and ~/.pdp.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pdp")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pdp"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", defaultDBPath())
	v.SetDefault("timezone", "UTC")
	v.SetDefault("user", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("sync.on_template_save", true)
	v.SetDefault("approvals.pending_limit", 100)
	v.SetDefault("overview.limit", 50)
	v.SetDefault("report.window_days", 30)
}

// applyDefaults fills values viper cannot default cleanly.
func applyDefaults(cfg *Config) {
	if len(cfg.Levels) == 0 {
		cfg.Levels = append([]Level(nil), DefaultLevels...)
	}
	for i := range cfg.Levels {
		l := &cfg.Levels[i]
		if l.Key == "" {
			l.Key = strings.ToLower(strings.ReplaceAll(l.Title, " ", "_"))
		}
		if l.Title == "" {
			l.Title = l.Key
		}
	}
	sort.SliceStable(cfg.Levels, func(i, j int) bool {
		return cfg.Levels[i].Threshold < cfg.Levels[j].Threshold
	})
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Approvals.PendingLimit <= 0 {
		return fmt.Errorf("approvals.pending_limit must be positive")
	}
	if c.Overview.Limit <= 0 {
		return fmt.Errorf("overview.limit must be positive")
	}
	if c.Report.WindowDays <= 0 {
		return fmt.Errorf("report.window_days must be positive")
	}
	for _, l := range c.Levels {
		if l.Threshold < 0 {
			return fmt.Errorf("level %q: threshold must be >= 0", l.Key)
		}
	}
	return nil
}

// Location returns the configured reporting time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pdp.db"
	}
	return filepath.Join(home, ".pdp", "pdp.db")
}
