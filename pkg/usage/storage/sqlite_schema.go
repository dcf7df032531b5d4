package storage

// SchemaVersion is the current ledger schema version.
const SchemaVersion = 1

// Schema creates the ledger tables. Timestamps are Unix nanoseconds so that
// range filters and ordering compare integers.
const Schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    request_id TEXT,
    client_id TEXT,

    route TEXT NOT NULL,
    model TEXT,
    stream BOOLEAN NOT NULL DEFAULT 0,

    outcome TEXT NOT NULL,
    error_kind TEXT,
    status_code INTEGER,

    prompt_tokens INTEGER,
    completion_tokens INTEGER,
    tokens_used INTEGER,
    tokens_estimated BOOLEAN NOT NULL DEFAULT 0,
    chunks INTEGER,

    latency_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_usage_ts ON usage_records(ts);
CREATE INDEX IF NOT EXISTS idx_usage_client ON usage_records(client_id, ts);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
CREATE INDEX IF NOT EXISTS idx_usage_outcome ON usage_records(outcome);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, strftime('%s', 'now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version;`

const insertRecord = `
INSERT INTO usage_records (
    id, ts, request_id, client_id,
    route, model, stream,
    outcome, error_kind, status_code,
    prompt_tokens, completion_tokens, tokens_used, tokens_estimated, chunks,
    latency_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

const selectColumns = `
    id, ts, request_id, client_id,
    route, model, stream,
    outcome, error_kind, status_code,
    prompt_tokens, completion_tokens, tokens_used, tokens_estimated, chunks,
    latency_ms
`
