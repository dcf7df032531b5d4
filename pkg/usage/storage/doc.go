// Package storage provides usage.Store backends.
//
// MemoryStore keeps records in process memory and suits tests and
// single-run deployments. SQLiteStore persists records to a local database
// file through the pure-Go modernc.org/sqlite driver, with WAL journaling
// and a busy timeout so concurrent writers wait instead of failing.
package storage
