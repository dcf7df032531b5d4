package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/usage"
)

const defaultQueryLimit = 100

// SQLiteStore implements usage.Store on a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

var _ usage.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the ledger database at cfg.Path and
// applies the schema.
func NewSQLiteStore(ctx context.Context, cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, usage.NewStorageError("sqlite", "open", fmt.Errorf("database path is required"))
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = config.DefaultSQLiteBusyTimeout
	}

	logger := slog.Default().With("component", "usage.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, usage.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite usage store initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// initialize sets pragmas, creates the schema and checks its version.
func (s *SQLiteStore) initialize(ctx context.Context) error {
	if s.config.WALMode {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return usage.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	pragma := fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())
	if _, err := s.db.ExecContext(ctx, pragma); err != nil {
		return usage.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return usage.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion); err != nil {
		return usage.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil {
		return usage.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return usage.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}
	return nil
}

// Store inserts one record.
func (s *SQLiteStore) Store(ctx context.Context, r *usage.Record) error {
	_, err := s.db.ExecContext(ctx, insertRecord,
		r.ID, r.Timestamp.UnixNano(), r.RequestID, r.ClientID,
		r.Route, r.Model, r.Stream,
		r.Outcome, r.ErrorKind, r.StatusCode,
		r.PromptTokens, r.CompletionTokens, r.TokensUsed, r.TokensEstimated, r.Chunks,
		r.LatencyMS,
	)
	if err != nil {
		return usage.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query returns matching records, newest first unless q asks for "asc".
// Without a limit at most 100 records are returned.
func (s *SQLiteStore) Query(ctx context.Context, q *usage.Query) ([]*usage.Record, error) {
	where, args := buildWhereClause(q)

	order := "DESC"
	if q.Ascending() {
		order = "ASC"
	}
	limit := defaultQueryLimit
	offset := 0
	if q != nil {
		if q.Limit > 0 {
			limit = q.Limit
		}
		offset = q.Offset
	}

	stmt := fmt.Sprintf("SELECT %s FROM usage_records%s ORDER BY ts %s, id %s LIMIT ? OFFSET ?",
		selectColumns, where, order, order)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := make([]*usage.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, usage.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStore) Count(ctx context.Context, q *usage.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_records"+where, args...).Scan(&n)
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteBefore removes records older than cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM usage_records WHERE ts < ?", cutoff.UnixNano())
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}

	s.logger.Debug("deleted usage records", "count", n, "cutoff", cutoff)
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return usage.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite usage store closed")
	return nil
}

func buildWhereClause(q *usage.Query) (string, []interface{}) {
	if q == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}

	if q.StartTime != nil {
		conditions = append(conditions, "ts >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "ts <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, q.ClientID)
	}
	if q.Route != "" {
		conditions = append(conditions, "route = ?")
		args = append(args, q.Route)
	}
	if q.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, q.Model)
	}
	if q.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, q.Outcome)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRecord(rows *sql.Rows) (*usage.Record, error) {
	var (
		r         usage.Record
		ts        int64
		requestID sql.NullString
		clientID  sql.NullString
		model     sql.NullString
		errorKind sql.NullString
		status    sql.NullInt64
		prompt    sql.NullInt64
		compl     sql.NullInt64
		used      sql.NullInt64
		chunks    sql.NullInt64
		latency   sql.NullInt64
	)

	err := rows.Scan(
		&r.ID, &ts, &requestID, &clientID,
		&r.Route, &model, &r.Stream,
		&r.Outcome, &errorKind, &status,
		&prompt, &compl, &used, &r.TokensEstimated, &chunks,
		&latency,
	)
	if err != nil {
		return nil, err
	}

	r.Timestamp = time.Unix(0, ts).UTC()
	r.RequestID = requestID.String
	r.ClientID = clientID.String
	r.Model = model.String
	r.ErrorKind = errorKind.String
	r.StatusCode = int(status.Int64)
	r.PromptTokens = int(prompt.Int64)
	r.CompletionTokens = int(compl.Int64)
	r.TokensUsed = int(used.Int64)
	r.Chunks = int(chunks.Int64)
	r.LatencyMS = latency.Int64
	return &r, nil
}
