package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/gateway/pkg/cli"
	"mercator-hq/gateway/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "LLM gateway - rate-limited proxy for OpenAI-compatible APIs",
	Long: `Gateway is an HTTP service in front of an OpenAI-compatible LLM API.

It exposes chat, text, conversation and streaming completion endpoints,
admits each client under a fixed-window rate limit, and records one
content-free usage record per request.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads cfgFile with environment overrides. Offline commands pass
// validate=false so they work without upstream credentials.
func loadConfig(validate bool) (*config.Config, error) {
	load := config.LoadUnvalidated
	if validate {
		load = config.LoadConfigWithEnvOverrides
	}
	cfg, err := load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config from %s", cfgFile), err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}
