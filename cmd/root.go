// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ytscript/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagJSON        bool
	flagDebug       bool
	flagAttempts    int
	flagMinChars    int
	flagAcceptShort bool
	flagDelayMin    time.Duration
	flagDelayMax    time.Duration
	flagLanguage    string
	flagNoHistory   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is the process logger, configured by loadConfig.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "ytscript [references...]",
	Short: "Fetch plain-text transcripts of YouTube videos",
	Long: `ytscript fetches the captions of one or more YouTube videos and prints them
as plain text. References may be watch URLs, short links, embed URLs or bare
11-character video IDs, separated by spaces or commas.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              fetchRun,
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ytscript %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().IntVarP(&flagAttempts, "attempts", "a", 0, "Attempts per video (default: 5)")
	rootCmd.PersistentFlags().IntVar(&flagMinChars, "min-chars", 0, "Shortest transcript accepted without retrying (default: 100)")
	rootCmd.PersistentFlags().BoolVar(&flagAcceptShort, "accept-short", false, "Accept a short transcript once retries are spent")
	rootCmd.PersistentFlags().DurationVar(&flagDelayMin, "delay-min", 0, "Minimum pause between videos (default: 8s)")
	rootCmd.PersistentFlags().DurationVar(&flagDelayMax, "delay-max", 0, "Maximum pause between videos (default: 12s)")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Preferred caption language (default: en)")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record fetches in the history database")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyFlags(cmd, cfg)

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return nil
}

// applyFlags copies explicitly set CLI flags over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("attempts") {
		c.MaxAttempts = flagAttempts
	}
	if flags.Changed("min-chars") {
		c.MinChars = flagMinChars
	}
	if flagAcceptShort {
		c.AcceptShort = true
	}
	if flags.Changed("delay-min") {
		c.DelayMin = flagDelayMin
	}
	if flags.Changed("delay-max") {
		c.DelayMax = flagDelayMax
	}
	if flagLanguage != "" {
		c.Language = flagLanguage
	}
	if flagNoHistory {
		c.History = false
	}
	if flagDebug {
		c.Debug = true
	}
}
