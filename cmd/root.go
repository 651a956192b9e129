package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kamusis/pricematch/internal/config"
	"github.com/spf13/cobra"
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:          "pricematch",
	Short:        "pricematch — find visually similar catalog products, cheapest first",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `pricematch indexes a folder of product photos and answers "what looks like
this, and what does it cost?" using the catalog metadata kept in ~/.pricematch/.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		slog.SetDefault(newLogger(flagDebug))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Print debug information")
}

// newLogger returns the stderr logger used for library diagnostics.
// Warnings are always shown; --debug adds info and debug records.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads ~/.pricematch/config.yaml with the hint every command shares.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'pricematch init' first.", err)
	}
	return cfg, nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
