// Package jobs wires the background worker: session rehydration after role
// changes and audit retention.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionRehydrate rewrites the permission snapshot stored in every
	// live session from the current role catalog.
	TaskSessionRehydrate = "session:rehydrate"
	// TaskAuditPurge removes audit entries past the retention window.
	TaskAuditPurge = "audit:purge"
)

// SessionRehydratePayload names the trigger for observability.
type SessionRehydratePayload struct {
	Reason string `json:"reason"`
}

// NewSessionRehydrateTask constructs the rehydration task.
func NewSessionRehydrateTask(payload SessionRehydratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionRehydrate, data), nil
}

// AuditPurgePayload carries the retention window in days.
type AuditPurgePayload struct {
	RetentionDays int `json:"retentionDays"`
}

// NewAuditPurgeTask constructs the purge task.
func NewAuditPurgeTask(payload AuditPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}
