// Package cmd provides the CLI commands for songbook.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/config"
	"github.com/songbook-app/songbook/internal/logging"
	"github.com/songbook-app/songbook/internal/store"
	"github.com/songbook-app/songbook/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the songbook CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songbook",
		Short: "Local song catalog with fuzzy full-text search",
		Long: `Songbook keeps a catalog of song lyrics in a local SQLite database,
lets you organize songs into collections, and searches lyrics with
Russian stemming and typo tolerance.

Point it at a corpus file or URL with 'songbook load' to get started.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("songbook version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.songbook/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSongCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging configures the default logger before any command runs.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg.Level = "debug"
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Info("debug logging enabled", slog.String("log_file", cfg.FilePath))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig builds the effective configuration for the current directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the catalog database named by cfg.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", cfg.Storage.Path, err)
	}
	return st, nil
}
