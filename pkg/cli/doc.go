/*
Package cli provides helpers shared by the gateway commands.

Output Formatting:

Commands print results as aligned text, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagFormat)
	if err != nil {
		return err
	}
	table := &cli.Table{Headers: []string{"KIND", "MODEL"}}
	table.AddRow("chat", "gpt-4")
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)

Errors and exit codes:

ConfigError marks failures caused by the configuration file; ExitCode maps
them to exit status 2 and every other error to 1.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
