package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibertree/internal/config"
	"github.com/vango-dev/fibertree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬┌┐ ┌─┐┬─┐┌┬┐┬─┐┌─┐┌─┐
  ├┤ │├┴┐├┤ ├┬┘ │ ├┬┘├┤ ├┤
  └  ┴└─┘└─┘┴└─ ┴ ┴└─└─┘└─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "fibertree",
		Short: "Incremental UI tree reconciliation engine",
		Long: `fibertree renders component trees incrementally.

Render work is split into small units that run inside time slices,
so long renders can be interrupted and resumed. Committed trees can
be previewed live in a browser and exported as snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory to search for fibertree.json")

	loadConfig := func() (*config.Config, error) {
		return config.LoadOrDefault(configDir)
	}

	rootCmd.AddCommand(
		demoCmd(loadConfig),
		serveCmd(loadConfig),
		snapshotCmd(loadConfig),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// newLogger builds the process logger from the log section of cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
