package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	_ "modernc.org/sqlite"
)

// SQLiteEventStore persists events in a local SQLite database
type SQLiteEventStore struct {
	db     *sql.DB
	logger *errors.Logger
}

// Ensure SQLiteEventStore implements EventStore
var _ EventStore = (*SQLiteEventStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	timestamp      TEXT NOT NULL,
	site           TEXT NOT NULL,
	job_url        TEXT NOT NULL,
	filled_fields  TEXT NOT NULL,
	skipped_fields TEXT NOT NULL,
	metadata       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS job_events (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	timestamp       TEXT NOT NULL,
	status          TEXT NOT NULL,
	site            TEXT NOT NULL,
	job_url         TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	external_job_id TEXT NOT NULL DEFAULT '',
	metadata        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_events_status ON job_events(status, seq);
`

// OpenSQLiteEventStore opens (or creates) the database at path
func OpenSQLiteEventStore(path string, logger *errors.Logger) (*SQLiteEventStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, storeError("failed to create events directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("failed to open events database", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, storeError("failed to initialize events schema", err)
	}

	logger.Info("SQLite event store opened", "path", path)
	return &SQLiteEventStore{db: db, logger: logger}, nil
}

func storeError(message string, err error) error {
	return errors.NewIOError(errors.ErrCodeEventStoreFailed, message, err)
}

// Driver implements EventStore
func (s *SQLiteEventStore) Driver() string { return "sqlite" }

// AppendAudit implements EventStore
func (s *SQLiteEventStore) AppendAudit(ctx context.Context, event types.AuditEvent) (types.AuditRecord, error) {
	event = event.Normalized()
	filled, skipped, metadata, err := encodeColumns(event.FilledFields, event.SkippedFields, event.Metadata)
	if err != nil {
		return types.AuditRecord{}, err
	}

	id, ts := newIdentity()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, timestamp, site, job_url, filled_fields, skipped_fields, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ts, event.Site, event.JobURL, filled, skipped, metadata)
	if err != nil {
		return types.AuditRecord{}, storeError("failed to insert audit event", err)
	}
	return types.AuditRecord{ID: id, Timestamp: ts, AuditEvent: event}, nil
}

// AppendJob implements EventStore
func (s *SQLiteEventStore) AppendJob(ctx context.Context, status types.JobStatus, event types.JobEvent) (types.JobRecord, error) {
	if status != types.JobStatusSaved && status != types.JobStatusApplied {
		return types.JobRecord{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown job status: %s", status), nil)
	}
	event = event.Normalized()
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return types.JobRecord{}, storeError("failed to encode job metadata", err)
	}

	id, ts := newIdentity()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO job_events (id, timestamp, status, site, job_url, title, company, external_job_id, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ts, string(status), event.Site, event.JobURL, event.Title, event.Company, event.ExternalJobID, string(metadata))
	if err != nil {
		return types.JobRecord{}, storeError("failed to insert job event", err)
	}
	return types.JobRecord{ID: id, Timestamp: ts, Status: status, JobEvent: event}, nil
}

// ListJobs implements EventStore
func (s *SQLiteEventStore) ListJobs(ctx context.Context, status types.JobStatus) ([]types.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, site, job_url, title, company, external_job_id, metadata
		 FROM job_events WHERE status = ? ORDER BY seq`, string(status))
	if err != nil {
		return nil, storeError("failed to query job events", err)
	}
	defer func() { _ = rows.Close() }()

	records := []types.JobRecord{}
	for rows.Next() {
		record := types.JobRecord{Status: status}
		var metadata string
		if err := rows.Scan(&record.ID, &record.Timestamp, &record.Site, &record.JobURL,
			&record.Title, &record.Company, &record.ExternalJobID, &metadata); err != nil {
			return nil, storeError("failed to scan job event", err)
		}
		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, storeError("failed to decode job metadata", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate job events", err)
	}
	return records, nil
}

// Close implements EventStore
func (s *SQLiteEventStore) Close() error {
	return s.db.Close()
}

func encodeColumns(filled, skipped []string, metadata map[string]json.RawMessage) (string, string, string, error) {
	f, err := json.Marshal(filled)
	if err != nil {
		return "", "", "", storeError("failed to encode filled fields", err)
	}
	sk, err := json.Marshal(skipped)
	if err != nil {
		return "", "", "", storeError("failed to encode skipped fields", err)
	}
	m, err := json.Marshal(metadata)
	if err != nil {
		return "", "", "", storeError("failed to encode audit metadata", err)
	}
	return string(f), string(sk), string(m), nil
}
