package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/logger"
)

var (
	reportersFile string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "herald",
	Short: "herald is the command-line interface for build-herald.",
	Long: `A CLI for checking build-herald configuration and replaying build events,
either straight through the reporters or onto the Kafka topics.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&reportersFile, "reporters", "r", "", "Reporters file (overrides REPORTERS_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every payload sent")

	if err := viper.BindPFlag("REPORTERS_FILE", rootCmd.PersistentFlags().Lookup("reporters")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("HERALD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig loads the service configuration, applying the CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := viper.GetString("REPORTERS_FILE"); path != "" {
		reporters, err := config.LoadReporters(path)
		if err != nil {
			return nil, err
		}
		cfg.ReportersFile = path
		cfg.Reporters = reporters
	}
	if verbose {
		cfg.Bitbucket.Verbose = true
	}
	return cfg, nil
}

// newLogger writes to stderr so command output stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.LoggerConfig, os.Stderr)
}
