package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/google/uuid"
)

// EventStore is the append-only log of audit events and tracked jobs
type EventStore interface {
	AppendAudit(ctx context.Context, event types.AuditEvent) (types.AuditRecord, error)
	AppendJob(ctx context.Context, status types.JobStatus, event types.JobEvent) (types.JobRecord, error)
	ListJobs(ctx context.Context, status types.JobStatus) ([]types.JobRecord, error)
	Driver() string
	Close() error
}

// NewEventStore builds the store selected by cfg.Driver
func NewEventStore(cfg config.EventsConfig, logger *errors.Logger) (EventStore, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemoryEventStore(), nil
	case "sqlite":
		return OpenSQLiteEventStore(cfg.Path, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported events driver: %s", cfg.Driver), nil)
	}
}

// newIdentity returns a fresh record id and UTC timestamp
func newIdentity() (string, string) {
	return uuid.NewString(), time.Now().UTC().Format(time.RFC3339Nano)
}

// MemoryEventStore keeps events in process memory. Nothing is ever pruned.
type MemoryEventStore struct {
	mu      sync.RWMutex
	audit   []types.AuditRecord
	saved   []types.JobRecord
	applied []types.JobRecord
}

// Ensure MemoryEventStore implements EventStore
var _ EventStore = (*MemoryEventStore)(nil)

// NewMemoryEventStore creates an empty in-memory store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

// Driver implements EventStore
func (m *MemoryEventStore) Driver() string { return "memory" }

// AppendAudit implements EventStore
func (m *MemoryEventStore) AppendAudit(_ context.Context, event types.AuditEvent) (types.AuditRecord, error) {
	id, ts := newIdentity()
	record := types.AuditRecord{ID: id, Timestamp: ts, AuditEvent: event.Normalized()}

	m.mu.Lock()
	m.audit = append(m.audit, record)
	m.mu.Unlock()
	return record, nil
}

// AppendJob implements EventStore
func (m *MemoryEventStore) AppendJob(_ context.Context, status types.JobStatus, event types.JobEvent) (types.JobRecord, error) {
	id, ts := newIdentity()
	record := types.JobRecord{ID: id, Timestamp: ts, Status: status, JobEvent: event.Normalized()}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch status {
	case types.JobStatusSaved:
		m.saved = append(m.saved, record)
	case types.JobStatusApplied:
		m.applied = append(m.applied, record)
	default:
		return types.JobRecord{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown job status: %s", status), nil)
	}
	return record, nil
}

// ListJobs implements EventStore. Records come back in insertion order.
func (m *MemoryEventStore) ListJobs(_ context.Context, status types.JobStatus) ([]types.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var src []types.JobRecord
	switch status {
	case types.JobStatusSaved:
		src = m.saved
	case types.JobStatusApplied:
		src = m.applied
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown job status: %s", status), nil)
	}
	return append(make([]types.JobRecord, 0, len(src)), src...), nil
}

// AuditCount returns the number of recorded audit events
func (m *MemoryEventStore) AuditCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.audit)
}

// Close implements EventStore
func (m *MemoryEventStore) Close() error { return nil }
