// Package retention enforces how long usage records are kept.
//
// A Pruner deletes records older than RetentionDays. Schedule registers it
// with the gateway's cron scheduler so pruning runs unattended, typically
// once a day.
package retention
