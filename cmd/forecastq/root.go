package main

import (
	"fmt"
	"os"

	"forecast-backend/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "forecastq",
	Short: "Run weather forecast queries offline",
	Long: `forecastq resolves an API version, parses query options, applies the
configured policy and prints the response body the API would return.

The configuration is the service's own: defaults, then the YAML file given
with --config, then environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration for a command. Logging stays quiet
// unless --verbose is set so stdout carries only the result.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		os.Setenv("CONFIG_FILE", cfgFile)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = "error"
	if verbose {
		cfg.LogLevel = "debug"
	}
	cfg.Features.EnableTracing = false
	return cfg, nil
}
