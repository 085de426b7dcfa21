package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixflow/fixflow/internal/jobs"
	"github.com/fixflow/fixflow/internal/rbac"
)

// RBACWarmupJob repopulates the permission cache for the listed users after a
// cache bump. Resolution through the service writes each user's effective set
// back under the current cache version.
type RBACWarmupJob struct {
	Service *rbac.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRBACWarmupJob wires dependencies for the warmup handler.
func NewRBACWarmupJob(service *rbac.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *RBACWarmupJob {
	return &RBACWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskRBACWarmup tasks.
func (j *RBACWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("rbac warmup: handler not configured")
	}
	tracker := j.Metrics.Track("rbac_warmup")
	var payload RBACWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	for _, userID := range payload.UserIDs {
		if _, err := j.Service.EffectivePermissions(ctx, userID); err != nil {
			if j.Logger != nil {
				j.Logger.Warn("rbac warmup resolve", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return tracker.End(err)
		}
	}
	return tracker.End(nil)
}
