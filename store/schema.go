package store

// schemaSQL is the DDL for all tables.
const schemaSQL = `
-- One row per inspected request
CREATE TABLE IF NOT EXISTS log_records (
    request_id TEXT PRIMARY KEY,
    time TEXT NOT NULL,
    public_ip TEXT,
    private_ip TEXT,
    host TEXT,
    hostname TEXT,
    prompt TEXT NOT NULL,
    attachment JSON,
    interface TEXT NOT NULL DEFAULT 'llm',
    modified_prompt TEXT,
    has_sensitive INTEGER NOT NULL DEFAULT 0,
    entities JSON,
    processing_ms INTEGER NOT NULL DEFAULT 0,
    file_blocked INTEGER NOT NULL DEFAULT 0,
    file_change INTEGER NOT NULL DEFAULT 0,
    allow INTEGER NOT NULL DEFAULT 1,
    action TEXT,
    alert TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Dashboard settings, a single versioned row
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    config JSON NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_log_records_created ON log_records(created_at);
CREATE INDEX IF NOT EXISTS idx_log_records_hostname ON log_records(hostname);
CREATE INDEX IF NOT EXISTS idx_log_records_sensitive ON log_records(has_sensitive);
`
