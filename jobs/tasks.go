package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionPrune triggers removal of expired session audit rows.
	TaskTypeSessionPrune = "session:prune"
)

// SessionPrunePayload carries scheduling metadata for a prune run.
type SessionPrunePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionPruneTask constructs an Asynq task for session pruning.
func NewSessionPruneTask(at time.Time) (*asynq.Task, error) {
	payload := SessionPrunePayload{ScheduledFor: at}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionPrune, body, asynq.Queue(QueueDefault)), nil
}
