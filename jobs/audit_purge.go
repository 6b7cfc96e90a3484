package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/payintrack/payintrack/internal/jobs"
)

// Purger removes audit entries older than the cutoff. Satisfied by the audit
// service.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// HandleAuditPurge returns the handler for TaskAuditPurge.
func HandleAuditPurge(purger Purger, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskAuditPurge)
		cutoff := time.Now().UTC().AddDate(0, 0, -payload.RetentionDays)
		deleted, err := purger.Purge(ctx, cutoff)
		if err != nil {
			logger.Error("audit purge failed", slog.Any("error", err))
			return tracker.End(err)
		}
		_ = tracker.End(nil)
		logger.Info("audit purge",
			slog.Int("retentionDays", payload.RetentionDays),
			slog.Int("deleted", deleted))
		return nil
	}
}
