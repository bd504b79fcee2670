package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// ExportFormats lists the formats understood by the export task.
var ExportFormats = []string{"csv", "json", "yaml", "markdown", "txt"}

// Environment variables that override values from the config file.
const (
	EnvConfigPath       = "RECEIPTS_CONFIG"
	EnvDatabasePath     = "RECEIPTS_DATABASE_PATH"
	EnvAllowDestructive = "RECEIPTS_ALLOW_DESTRUCTIVE"
	EnvLogLevel         = "RECEIPTS_LOG_LEVEL"
	EnvExportDir        = "RECEIPTS_EXPORT_DIR"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Log        LogConfig        `toml:"log"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Live       LiveConfig       `toml:"live"`
	Export     ExportConfig     `toml:"export"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path             string `toml:"path"`
	MaxOpenConns     int    `toml:"max_open_conns"`
	MaxIdleConns     int    `toml:"max_idle_conns"`
	AllowDestructive bool   `toml:"allow_destructive"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIPath string `toml:"tui_path"`
}

// ThresholdsConfig contains the expiry windows, in days.
type ThresholdsConfig struct {
	ExpiringSoonDays  int `toml:"expiring_soon_days"`
	ExpiringItemsDays int `toml:"expiring_items_days"`
}

// LiveConfig contains live query settings.
type LiveConfig struct {
	MaxRefreshPerSecond float64 `toml:"max_refresh_per_second"`
}

// ExportConfig contains defaults for the export command.
type ExportConfig struct {
	OutputDir string   `toml:"output_dir"`
	Formats   []string `toml:"formats"`
	Workers   int      `toml:"workers"`
}

// ExpiringSoon returns the expiring-soon window as a duration.
func (t ThresholdsConfig) ExpiringSoon() time.Duration {
	return time.Duration(t.ExpiringSoonDays) * 24 * time.Hour
}

// ExpiringItems returns the expiring-items window as a duration.
func (t ThresholdsConfig) ExpiringItems() time.Duration {
	return time.Duration(t.ExpiringItemsDays) * 24 * time.Hour
}

// Validate checks the configuration for values the application cannot work with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Thresholds.ExpiringSoonDays < 0 || c.Thresholds.ExpiringItemsDays < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidConfig)
	}
	if c.Live.MaxRefreshPerSecond < 0 {
		return fmt.Errorf("%w: live.max_refresh_per_second must not be negative", ErrInvalidConfig)
	}
	for _, format := range c.Export.Formats {
		if !slices.Contains(ExportFormats, format) {
			return fmt.Errorf("%w: unknown export format %q", ErrInvalidConfig, format)
		}
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadEnvFile loads KEY=VALUE pairs from the first readable dotenv file into the process environment.
// Variables already set are left alone. It reports whether a file was found.
func LoadEnvFile(paths ...string) bool {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return true
		}
	}
	return false
}

// ApplyEnv overrides config values with any RECEIPTS_* variables present in the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvAllowDestructive); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvAllowDestructive, v)
		}
		c.Database.AllowDestructive = allow
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		c.Export.OutputDir = v
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
