package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/gateway/pkg/cli"
	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/server"
	"mercator-hq/gateway/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the gateway server with the specified configuration.

The server listens on the configured address and serves the completion,
streaming, model listing, health and metrics endpoints until it receives
SIGINT or SIGTERM. In-flight requests are given server.shutdown_timeout to
finish.

Examples:
  # Start with default config
  gateway run

  # Start with custom config
  gateway run --config /etc/gateway/config.yaml

  # Override listen address
  gateway run --listen 127.0.0.1:9000

  # Build every component without serving
  gateway run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build components and exit without serving")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config from %s", cfgFile), err)
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", "invalid logging configuration", err)
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	components, err := server.NewComponents(ctx, cfg, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid, all components initialized")
		return components.Close(context.Background())
	}

	printBanner(cmd, cfg)

	srv := server.NewServer(cfg, components, Version)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	slog.Info("gateway stopped")
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	addr := cfg.Server.ListenAddress

	fmt.Fprintf(out, "LLM Gateway %s\n", Version)
	fmt.Fprintf(out, "✓ Upstream: %s (%d chat, %d text models)\n",
		cfg.Upstream.BaseURL, len(cfg.Upstream.Models.Chat), len(cfg.Upstream.Models.Text))
	if cfg.RateLimit.Enabled {
		fmt.Fprintf(out, "✓ Rate limit: %d requests per %s (%s)\n",
			cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Backend)
	} else {
		fmt.Fprintln(out, "! Rate limiting disabled")
	}
	if cfg.Usage.Enabled {
		fmt.Fprintf(out, "✓ Usage ledger: %s\n", cfg.Usage.Backend)
	}
	fmt.Fprintf(out, "✓ Listening on %s\n", addr)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s%s\n", addr, server.PathHealth)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
