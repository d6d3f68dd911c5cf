// Package cmd implements the CLI commands for jellyfin.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hertelukas/jellyfin/internal/config"
	"github.com/hertelukas/jellyfin/internal/observability"
	"github.com/hertelukas/jellyfin/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// cfg is the loaded configuration, populated before any command runs.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "jellyfin",
	Short:   "Playback negotiation and stream recording service",
	Version: version.Short(),
	Long: `jellyfin serves playback negotiation for media clients: it annotates an
item's media sources with the best delivery method for each device, manages
live stream sessions, and records live streams to disk for a bounded
duration.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// CLI flags beat env and file values, but only when explicitly set.
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Logging.Format, _ = cmd.Flags().GetString("log-format")
		}
		loaded.Logging.Level = strings.ToLower(loaded.Logging.Level)
		loaded.Logging.Format = strings.ToLower(loaded.Logging.Format)

		cfg = loaded

		logger := observability.NewLoggerWithWriter(loaded.Logging, os.Stderr)
		observability.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./configs, /etc/jellyfin)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (text, json)")
}
