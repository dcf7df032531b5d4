// Package usage defines the gateway's request ledger.
//
// Every request that reaches the dispatcher produces one Record describing
// who sent it, which route and model it used, how it ended and how many
// tokens it consumed. Records never contain message, prompt or completion
// text.
//
// The subpackages provide the pieces around the ledger:
//
//   - storage: memory and SQLite Store implementations
//   - recorder: an asynchronous writer with a bounded queue
//   - retention: a cron-driven pruner for old records
//   - export: CSV and JSON writers used by the CLI
package usage
