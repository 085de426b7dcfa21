package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixflow/fixflow/internal/jobs"
	"github.com/fixflow/fixflow/internal/rbac"
)

// RBACAuditJob reports assignments and parent links that reference roles no
// longer present in the store. The resolver tolerates such dead edges at read
// time; this job surfaces them so an operator can repair the data.
type RBACAuditJob struct {
	Store   rbac.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRBACAuditJob wires dependencies for the audit handler.
func NewRBACAuditJob(store rbac.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *RBACAuditJob {
	return &RBACAuditJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskRBACAudit tasks.
func (j *RBACAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("rbac audit: handler not configured")
	}
	tracker := j.Metrics.Track("rbac_audit")

	roles, err := j.Store.ListRoles(ctx)
	if err != nil {
		return tracker.End(err)
	}
	known := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		known[role.Name] = struct{}{}
	}
	for _, role := range roles {
		for _, parent := range role.ParentRoles {
			if _, ok := known[rbac.NormalizeRoleName(parent)]; !ok && j.Logger != nil {
				j.Logger.Warn("rbac audit dead parent edge",
					slog.String("role", role.Name), slog.String("parent", parent))
			}
		}
	}

	assignments, err := j.Store.ListAssignments(ctx)
	if err != nil {
		return tracker.End(err)
	}
	stale := 0
	for _, a := range assignments {
		if _, ok := known[a.RoleName]; ok {
			continue
		}
		stale++
		if j.Logger != nil {
			j.Logger.Warn("rbac audit stale assignment",
				slog.Int64("user_id", a.UserID), slog.String("role", a.RoleName))
		}
	}
	j.Metrics.AddStaleAssignments(stale)
	return tracker.End(nil)
}
