package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/promptstash/internal/config"
	"github.com/kimhsiao/promptstash/internal/export"
	"github.com/kimhsiao/promptstash/internal/i18n"
	"github.com/kimhsiao/promptstash/internal/logging"
	"github.com/kimhsiao/promptstash/internal/storage"
	"github.com/kimhsiao/promptstash/internal/store"
)

var (
	cfgFile  string
	dataDir  string
	language string
)

var rootCmd = &cobra.Command{
	Use:   "promptstash",
	Short: "Local prompt snippet manager",
	Long: `Promptstash keeps a personal library of reusable prompt snippets.

Snippets carry a title, the prompt text, and free-form tags. The
collection is stored locally (SQLite with a JSON file fallback), can be
searched, reordered, copied to the clipboard, and exchanged with other
installs as a JSON export document.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app bundles the per-invocation dependencies built from config.
type app struct {
	cfg     *config.Config
	store   *store.Store
	export  *export.Service
	printer *i18n.Printer
	close   func()
}

// newApp loads config, initializes logging, and opens the store.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if language != "" {
		cfg.Language = language
	}

	logging.Init(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	primary, err := storage.OpenSQLite(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	fallback, err := storage.NewFileBackend(cfg.DataDir)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("failed to prepare fallback storage: %w", err)
	}

	st := store.New(primary, fallback)
	return &app{
		cfg:     cfg,
		store:   st,
		export:  export.NewService(st),
		printer: i18n.NewPrinter(cfg.Language),
		close:   func() { primary.Close() },
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.promptstash/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&dataDir, "data-dir", "", "storage directory (default: ~/.promptstash)",
	)
	rootCmd.PersistentFlags().StringVar(
		&language, "lang", "", "message language: en or zh-Hant",
	)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
