package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/kit-booth/internal/config"
	"github.com/sweeney/kit-booth/internal/logger"
	"github.com/sweeney/kit-booth/internal/version"
)

var (
	// configPath is the YAML settings file; empty means the default file if present.
	configPath string
	// logLevel overrides the level from the settings file.
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "kit-booth",
		Short:         "Makerspace kit booth daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kit-booth:", err)
		os.Exit(1)
	}
}

// loadConfig reads the settings file and configures the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	logger.SetLevel(level)
	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd, consoleCmd, lookupCmd)
}
