package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/payintrack/payintrack/internal/jobs"
)

// Rehydrator rewrites session permission snapshots. Satisfied by the session
// manager.
type Rehydrator interface {
	Rehydrate(ctx context.Context) (int, error)
}

// HandleSessionRehydrate returns the handler for TaskSessionRehydrate.
func HandleSessionRehydrate(rehydrator Rehydrator, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionRehydratePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskSessionRehydrate)
		updated, err := rehydrator.Rehydrate(ctx)
		if err != nil {
			logger.Error("session rehydrate failed", slog.Any("error", err))
			return tracker.End(err)
		}
		_ = tracker.End(nil)
		logger.Info("session rehydrate",
			slog.String("reason", payload.Reason),
			slog.Int("updated", updated))
		return nil
	}
}
