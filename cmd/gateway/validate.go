package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/gateway/pkg/cli"
	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/telemetry/logging"
)

var validateFlags struct {
	show bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file with defaults and GATEWAY_* environment
overrides applied, and report every invalid field.

Examples:
  # Validate config.yaml
  gateway validate

  # Validate and print the effective configuration
  gateway validate --config prod.yaml --show`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.show, "show", false, "print the effective configuration as YAML")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if err := config.Validate(cfg); err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
			}
		}
		return cli.NewConfigError("", cfgFile, err)
	}

	fmt.Fprintln(out, "✓ Configuration valid")

	if validateFlags.show {
		shown := *cfg
		shown.Upstream.APIKey = logging.RedactAPIKey(cfg.Upstream.APIKey)
		shown.RateLimit.Redis.Password = logging.RedactAPIKey(cfg.RateLimit.Redis.Password)
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Fprintf(out, "\n%s", data)
	}
	return nil
}
