package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/fixflow/fixflow/internal/jobs"
	"github.com/fixflow/fixflow/internal/rbac"
	_ "github.com/fixflow/fixflow/testing"
)

func TestWarmupJobResolvesUsers(t *testing.T) {
	store := rbac.NewMemoryStore()
	catalog := rbac.DefaultCatalog()
	ctx := context.Background()
	require.NoError(t, rbac.Seed(ctx, store, catalog))
	svc := rbac.NewService(catalog, store, nil, nil)
	_, err := svc.Assign(ctx, 7, "CUSTOMER", nil)
	require.NoError(t, err)

	job := NewRBACWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewRBACWarmupTask(RBACWarmupPayload{UserIDs: []int64{7}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))
}

func TestWarmupJobSkipsRetryOnBadPayload(t *testing.T) {
	svc := rbac.NewService(rbac.DefaultCatalog(), rbac.NewMemoryStore(), nil, nil)
	job := NewRBACWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task := asynq.NewTask(TaskRBACWarmup, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAuditJobToleratesStaleData(t *testing.T) {
	store := rbac.NewMemoryStore()
	catalog := rbac.DefaultCatalog()
	ctx := context.Background()
	require.NoError(t, rbac.Seed(ctx, store, catalog))

	// A binding to a role that no longer exists must be reported, not fatal.
	_, err := store.CreateAssignment(ctx, 9, "GHOST", nil)
	require.NoError(t, err)

	job := NewRBACAuditJob(store, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(ctx, NewRBACAuditTask()))
}
