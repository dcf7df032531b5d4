package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/gateway/pkg/cli"
)

var modelsFlags struct {
	format string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured models",
	Long: `List the chat and text models the gateway accepts, as configured under
upstream.models. The upstream is not contacted.

Examples:
  gateway models
  gateway models --format json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVarP(&modelsFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

func runModels(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(modelsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	defaults := cfg.Upstream.Defaults
	table := &cli.Table{Headers: []string{"kind", "model", "default"}}
	for _, m := range cfg.Upstream.Models.Chat {
		table.AddRow("chat", m, m == defaults.ChatModel)
	}
	for _, m := range cfg.Upstream.Models.Text {
		table.AddRow("text", m, m == defaults.TextModel)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}
