package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SessionPruner removes session audit rows that expired before the cutoff.
type SessionPruner interface {
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
}

// NewSessionPruneHandler returns the Asynq handler for TaskTypeSessionPrune.
func NewSessionPruneHandler(pruner SessionPruner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		removed, err := pruner.PruneSessions(ctx, time.Now().UTC())
		if err != nil {
			if logger != nil {
				logger.Error("session prune", slog.Any("error", err))
			}
			return err
		}
		if logger != nil {
			logger.Info("session prune complete",
				slog.String("job", "session_prune"),
				slog.Int64("removed", removed),
			)
		}
		return nil
	}
}
