// Package config loads promptstash settings from a config file,
// environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds promptstash configuration.
// Stored at: ~/.promptstash/config.yaml
type Config struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`       // Storage location for the database and fallback file
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"` // serve bind address
	Language   string `mapstructure:"language" yaml:"language"`       // BCP 47 tag for messages ("en", "zh-Hant")
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`     // DEBUG, INFO, WARN, ERROR
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    defaultDataDir(),
		ListenAddr: "127.0.0.1:8787",
		Language:   "en",
		LogLevel:   "INFO",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptstash"
	}
	return filepath.Join(home, ".promptstash")
}

// Load reads configuration from the given file, or from config.yaml in
// the working directory or ~/.promptstash when cfgFile is empty.
// Environment variables with the PROMPTSTASH_ prefix override file
// values. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("language", defaults.Language)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("PROMPTSTASH")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.promptstash")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
