package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// LogRecord is one inspected request, one row in log_records.
type LogRecord struct {
	RequestID      string `json:"request_id"`
	Time           string `json:"time"`
	PublicIP       string `json:"public_ip"`
	PrivateIP      string `json:"private_ip"`
	Host           string `json:"host"`
	Hostname       string `json:"hostname"`
	Prompt         string `json:"prompt"`
	Attachment     string `json:"attachment,omitempty"` // JSON blob
	Interface      string `json:"interface"`
	ModifiedPrompt string `json:"modified_prompt"`
	HasSensitive   bool   `json:"has_sensitive"`
	Entities       string `json:"entities,omitempty"` // JSON array
	ProcessingMS   int64  `json:"processing_ms"`
	FileBlocked    bool   `json:"file_blocked"`
	FileChange     bool   `json:"file_change"`
	Allow          bool   `json:"allow"`
	Action         string `json:"action"`
	Alert          string `json:"alert"`
	CreatedAt      string `json:"created_at"`
}

// Store wraps the SQLite database for all inspector persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateLogRecord persists one request outcome atomically. The row carries
// the full decision; a request with no row was never inspected.
func (s *Store) CreateLogRecord(ctx context.Context, rec LogRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO log_records (request_id, time, public_ip, private_ip, host,
				hostname, prompt, attachment, interface, modified_prompt,
				has_sensitive, entities, processing_ms, file_blocked, file_change,
				allow, action, alert)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.RequestID, rec.Time, rec.PublicIP, rec.PrivateIP, rec.Host,
			rec.Hostname, rec.Prompt, nullable(rec.Attachment), rec.Interface, rec.ModifiedPrompt,
			rec.HasSensitive, nullable(rec.Entities), rec.ProcessingMS, rec.FileBlocked, rec.FileChange,
			rec.Allow, rec.Action, rec.Alert)
		return err
	})
}

// GetLogRecord retrieves a record by request ID.
func (s *Store) GetLogRecord(ctx context.Context, requestID string) (*LogRecord, error) {
	rec := &LogRecord{}
	var attachment, entities sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT request_id, time, public_ip, private_ip, host, hostname, prompt,
			attachment, interface, modified_prompt, has_sensitive, entities,
			processing_ms, file_blocked, file_change, allow, action, alert, created_at
		FROM log_records WHERE request_id = ?
	`, requestID).Scan(&rec.RequestID, &rec.Time, &rec.PublicIP, &rec.PrivateIP,
		&rec.Host, &rec.Hostname, &rec.Prompt, &attachment, &rec.Interface,
		&rec.ModifiedPrompt, &rec.HasSensitive, &entities, &rec.ProcessingMS,
		&rec.FileBlocked, &rec.FileChange, &rec.Allow, &rec.Action, &rec.Alert,
		&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Attachment = attachment.String
	rec.Entities = entities.String
	return rec, nil
}

// ListRecent returns the newest records, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]LogRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, time, public_ip, private_ip, host, hostname, prompt,
			attachment, interface, modified_prompt, has_sensitive, entities,
			processing_ms, file_blocked, file_change, allow, action, alert, created_at
		FROM log_records ORDER BY created_at DESC, request_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []LogRecord
	for rows.Next() {
		var rec LogRecord
		var attachment, entities sql.NullString
		if err := rows.Scan(&rec.RequestID, &rec.Time, &rec.PublicIP, &rec.PrivateIP,
			&rec.Host, &rec.Hostname, &rec.Prompt, &attachment, &rec.Interface,
			&rec.ModifiedPrompt, &rec.HasSensitive, &entities, &rec.ProcessingMS,
			&rec.FileBlocked, &rec.FileChange, &rec.Allow, &rec.Action, &rec.Alert,
			&rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Attachment = attachment.String
		rec.Entities = entities.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
