package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir == "" {
		t.Error("expected a default data dir")
	}
	if cfg.ListenAddr != "127.0.0.1:8787" {
		t.Errorf("expected localhost listen address, got %s", cfg.ListenAddr)
	}
	if cfg.Language != "en" {
		t.Errorf("expected default language en, got %s", cfg.Language)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected default log level INFO, got %s", cfg.LogLevel)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
data_dir: /tmp/stash
language: zh-Hant
log_level: DEBUG
`
		if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load(configFile)
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if cfg.DataDir != "/tmp/stash" {
			t.Errorf("expected /tmp/stash, got %s", cfg.DataDir)
		}
		if cfg.Language != "zh-Hant" {
			t.Errorf("expected zh-Hant, got %s", cfg.Language)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("expected DEBUG, got %s", cfg.LogLevel)
		}
		// Unset keys keep their defaults.
		if cfg.ListenAddr != "127.0.0.1:8787" {
			t.Errorf("expected default listen address, got %s", cfg.ListenAddr)
		}
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		cwd, _ := os.Getwd()
		if err := os.Chdir(tmpDir); err != nil {
			t.Fatalf("failed to chdir: %v", err)
		}
		defer os.Chdir(cwd)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() with no config file failed: %v", err)
		}
		if cfg.Language != "en" {
			t.Errorf("expected default language, got %s", cfg.Language)
		}
	})

	t.Run("environment variable overrides", func(t *testing.T) {
		os.Setenv("PROMPTSTASH_LANGUAGE", "zh-Hant")
		defer os.Unsetenv("PROMPTSTASH_LANGUAGE")

		tmpDir := t.TempDir()
		cwd, _ := os.Getwd()
		if err := os.Chdir(tmpDir); err != nil {
			t.Fatalf("failed to chdir: %v", err)
		}
		defer os.Chdir(cwd)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if cfg.Language != "zh-Hant" {
			t.Errorf("expected env override zh-Hant, got %s", cfg.Language)
		}
	})

	t.Run("malformed file errors", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configFile, []byte("{not yaml::"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := Load(configFile); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}
