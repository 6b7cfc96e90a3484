// Package audit appends immutable event records for every mutation and
// serves the filtered audit timeline.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/payintrack/payintrack/internal/docstore"
)

const collection = "audits"

// Actions recorded in the audit trail.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Entry is a single append-only audit record.
type Entry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entityId"`
	Details   string `json:"details"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// Recorder is the write-side interface resource managers depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Logger appends entries to the audits collection. A failed append is logged
// and swallowed: audit writes happen after the mutation succeeded and must
// not turn a completed operation into a failure.
type Logger struct {
	store  docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger constructs a Logger.
func NewLogger(store docstore.Store, logger *slog.Logger) *Logger {
	return &Logger{store: store, logger: logger, now: time.Now}
}

// Record appends the entry, assigning id and timestamp.
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = l.now().UTC().Format(time.RFC3339)
	}
	if err := l.store.Put(ctx, collection, entry.ID, entry); err != nil {
		if l.logger != nil {
			l.logger.Warn("audit append failed",
				slog.String("entity", entry.Entity),
				slog.String("action", entry.Action),
				slog.Any("error", err))
		}
		return nil
	}
	return nil
}

var _ Recorder = (*Logger)(nil)
