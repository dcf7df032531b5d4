package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/gateway/pkg/cli"
	"mercator-hq/gateway/pkg/usage"
	"mercator-hq/gateway/pkg/usage/export"
	"mercator-hq/gateway/pkg/usage/retention"
	usagestorage "mercator-hq/gateway/pkg/usage/storage"
)

var usageFlags struct {
	since   time.Duration
	client  string
	route   string
	model   string
	outcome string
	limit   int
	format  string
	output  string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Query the usage ledger",
	Long: `Query the usage ledger configured under usage.backend.

Records carry the client, route, model, outcome, token counts and latency of
each request. They never carry request or response content. The memory
backend does not outlive the server, so this command is only useful with the
sqlite backend.

Examples:
  # Last 24 hours as a table with totals
  gateway usage --since 24h

  # One client's failed requests as JSON
  gateway usage --client 10.0.0.7 --outcome failed --format json

  # Export everything to CSV
  gateway usage --limit 0 --format csv --output usage.csv`,
	RunE: runUsage,
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records older than usage.retention_days",
	RunE:  runUsagePrune,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usagePruneCmd)

	f := usageCmd.Flags()
	f.DurationVar(&usageFlags.since, "since", 0, "only records newer than this (e.g. 1h, 24h)")
	f.StringVar(&usageFlags.client, "client", "", "filter by client ID")
	f.StringVar(&usageFlags.route, "route", "", "filter by route (e.g. /chat)")
	f.StringVar(&usageFlags.model, "model", "", "filter by model")
	f.StringVar(&usageFlags.outcome, "outcome", "", "filter by outcome (completed, rejected, invalid, failed, interrupted, canceled)")
	f.IntVar(&usageFlags.limit, "limit", 100, "maximum records to show (0 for all)")
	f.StringVarP(&usageFlags.format, "format", "f", "text", "output format (text, json, csv)")
	f.StringVarP(&usageFlags.output, "output", "o", "", "write to a file instead of stdout")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(usageFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := usagestorage.Open(ctx, &cfg.Usage)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}
	defer store.Close()

	q := &usage.Query{
		ClientID: usageFlags.client,
		Route:    usageFlags.route,
		Model:    usageFlags.model,
		Outcome:  usageFlags.outcome,
		Limit:    usageFlags.limit,
	}
	if usageFlags.since > 0 {
		start := time.Now().Add(-usageFlags.since)
		q.StartTime = &start
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	out := cmd.OutOrStdout()
	if usageFlags.output != "" {
		file, err := os.Create(usageFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if format != cli.FormatText {
		exporter, err := export.ForFormat(string(format))
		if err != nil {
			return err
		}
		return exporter.Export(records, out)
	}
	return printUsageText(out, records)
}

func printUsageText(w io.Writer, records []*usage.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No usage records found")
		return nil
	}

	table := &cli.Table{Headers: []string{"time", "client", "route", "model", "outcome", "status", "tokens", "latency"}}
	for _, r := range records {
		tokens := fmt.Sprint(r.TokensUsed)
		if r.TokensEstimated {
			tokens += "~"
		}
		table.AddRow(
			r.Timestamp.Local().Format(time.DateTime),
			r.ClientID,
			r.Route,
			r.Model,
			r.Outcome,
			r.StatusCode,
			tokens,
			time.Duration(r.LatencyMS)*time.Millisecond,
		)
	}
	if err := cli.NewFormatter(cli.FormatText).FormatTo(w, table); err != nil {
		return err
	}

	totals := usage.Summarize(records)
	fmt.Fprintf(w, "\n%d requests, %d tokens, avg latency %s\n", totals.Requests, totals.Tokens, totals.AvgLatency)

	outcomes := make([]string, 0, len(totals.ByOutcome))
	for o := range totals.ByOutcome {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-12s %d\n", o, totals.ByOutcome[o])
	}
	return nil
}

func runUsagePrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if cfg.Usage.RetentionDays <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Retention disabled (usage.retention_days is 0), nothing to prune")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := usagestorage.Open(ctx, &cfg.Usage)
	if err != nil {
		return cli.NewCommandError("usage prune", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, retention.Config{
		RetentionDays: cfg.Usage.RetentionDays,
		PruneSchedule: cfg.Usage.PruneSchedule,
	}, slog.Default())

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("usage prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d records older than %s\n", deleted, pruner.Cutoff().Format(time.DateOnly))
	return nil
}
