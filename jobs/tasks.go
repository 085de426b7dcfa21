package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRBACWarmup re-resolves and caches permission sets after an invalidation.
	TaskRBACWarmup = "rbac:warmup"
	// TaskRBACAudit scans for assignments referencing missing roles.
	TaskRBACAudit = "rbac:audit"
)

// RBACWarmupPayload lists the users whose permission sets should be re-resolved.
type RBACWarmupPayload struct {
	UserIDs []int64 `json:"user_ids"`
}

// NewRBACWarmupTask constructs an Asynq task.
func NewRBACWarmupTask(payload RBACWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRBACWarmup, data), nil
}

// NewRBACAuditTask constructs the assignment-audit task. It carries no payload.
func NewRBACAuditTask() *asynq.Task {
	return asynq.NewTask(TaskRBACAudit, nil)
}
