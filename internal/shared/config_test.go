package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./receipts.db" {
			t.Errorf("expected database path ./receipts.db, got %s", config.Database.Path)
		}

		if config.Database.AllowDestructive {
			t.Error("expected destructive fallback to be off by default")
		}

		if config.Thresholds.ExpiringSoon() != 7*24*time.Hour {
			t.Errorf("expected 7 day expiring-soon window, got %v", config.Thresholds.ExpiringSoon())
		}

		if config.Thresholds.ExpiringItems() != 30*24*time.Hour {
			t.Errorf("expected 30 day expiring-items window, got %v", config.Thresholds.ExpiringItems())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
allow_destructive = true

[thresholds]
expiring_soon_days = 14

[export]
formats = ["markdown"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if !config.Database.AllowDestructive {
			t.Error("expected allow_destructive to be set")
		}

		if config.Thresholds.ExpiringSoonDays != 14 {
			t.Errorf("expected expiring_soon_days 14, got %d", config.Thresholds.ExpiringSoonDays)
		}

		if config.Thresholds.ExpiringItemsDays != 30 {
			t.Errorf("expected unset expiring_items_days to keep default 30, got %d", config.Thresholds.ExpiringItemsDays)
		}

		if len(config.Export.Formats) != 1 || config.Export.Formats[0] != "markdown" {
			t.Errorf("expected formats [markdown], got %v", config.Export.Formats)
		}
	})

	t.Run("LoadConfig reports a missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{name: "unknown format", body: "[export]\nformats = [\"pdf\"]\n"},
			{name: "negative threshold", body: "[thresholds]\nexpiring_soon_days = -1\n"},
			{name: "empty path", body: "[database]\npath = \"\"\n"},
			{name: "bad level", body: "[log]\nlevel = \"loud\"\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tt.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database]\npath = \"/from/file.db\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		t.Setenv(EnvDatabasePath, "/from/env.db")
		t.Setenv(EnvAllowDestructive, "true")
		t.Setenv(EnvLogLevel, "debug")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/from/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if !config.Database.AllowDestructive {
			t.Error("expected allow_destructive from env")
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
	})

	t.Run("Environment override rejects bad boolean", func(t *testing.T) {
		t.Setenv(EnvAllowDestructive, "sometimes")
		if err := DefaultConfig().ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnvFile", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte(EnvExportDir+"=/tmp/receipts-exports\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvExportDir, "")
		os.Unsetenv(EnvExportDir)

		if LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")) {
			t.Error("expected missing env file to report false")
		}
		if !LoadEnvFile(envPath) {
			t.Fatal("expected env file to load")
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if config.Export.OutputDir != "/tmp/receipts-exports" {
			t.Errorf("expected export dir from env file, got %s", config.Export.OutputDir)
		}
	})
}
