package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/config"
	"github.com/dukerupert/notesync/internal/logging"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Offline-first notes with per-account cloud sync",
	Long: `notesync keeps notes in a local SQLite database and mirrors them to a
per-account remote store. Notes can always be written offline; "notesync sync"
pushes local changes and pulls notes written on other devices.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.DBPath = dbPath
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded
		logger = logging.Setup(cfg.Log.Level, cfg.Log.File)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "notesync.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// withApp opens the application for the duration of fn.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a)
	}
}
