package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"training-orchestrator/core/audit"
	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
	"training-orchestrator/core/monitoring"
	"training-orchestrator/core/repository"
)

type testRegistry struct {
	reg        *Registry
	store      *repository.MemoryModelStore
	auditStore *repository.MemoryAuditStore
}

func newTestRegistry(t *testing.T) *testRegistry {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryModelStore()
	auditStore := repository.NewMemoryAuditStore()
	metrics := monitoring.New(prometheus.NewRegistry())
	trail := audit.NewTrail(auditStore, logger)
	return &testRegistry{
		reg:        New(store, trail, metrics, logger),
		store:      store,
		auditStore: auditStore,
	}
}

func (tr *testRegistry) newModel(t *testing.T) *models.Model {
	t.Helper()
	job := &models.TrainingJob{
		ID:          fmt.Sprintf("job-%d", time.Now().UnixNano()),
		ModelType:   models.ModelTypeRLAgent,
		Algorithm:   "PPO",
		SubmittedBy: "alice",
		Experiment:  models.Experiment{ExperimentID: "exp-1"},
		Metrics: &models.PerformanceMetrics{
			WinRatio: 0.6, TotalTrades: 40, MaxDrawdown: 0.08, SharpeRatio: 1.3,
		},
	}
	m, err := tr.reg.CreateFromJob(context.Background(), job)
	require.NoError(t, err)
	return m
}

func (tr *testRegistry) status(t *testing.T, id string) models.ModelStatus {
	t.Helper()
	m, err := tr.store.Get(context.Background(), id)
	require.NoError(t, err)
	return m.Status
}

func TestCreateFromJobMintsTrainedModel(t *testing.T) {
	tr := newTestRegistry(t)

	m1 := tr.newModel(t)
	assert.Equal(t, models.ModelStatusTrained, m1.Status)
	assert.Equal(t, "rl_agent-PPO", m1.Name)
	assert.Equal(t, "v1.1.0", m1.Version)
	assert.Equal(t, "exp-1", m1.Experiment.ExperimentID)
	assert.NotEmpty(t, m1.Experiment.RunID)
	assert.InDelta(t, 0.6, m1.Performance.WinRatio, 1e-9)

	m2 := tr.newModel(t)
	assert.Equal(t, "v1.2.0", m2.Version)
	assert.NotEqual(t, m1.ID, m2.ID)
}

func TestDeployRequiresApproval(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m.ID, false, "alice")
	var aerr *errs.ApprovalRequiredError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "deploy", aerr.Operation)

	// nothing changed
	assert.Equal(t, models.ModelStatusTrained, tr.status(t, m.ID))
	entries, err := tr.auditStore.List(context.Background(), 0)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, models.AuditModelDeployed, entry.Action)
	}
}

func TestDeployUnknownModelReturnsNotFound(t *testing.T) {
	tr := newTestRegistry(t)

	_, err := tr.reg.Deploy(context.Background(), "missing", true, "alice")
	var nerr *errs.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestDeployArchivesIncumbent(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	deployed, err := tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusDeployed, deployed.Status)
	assert.NotNil(t, deployed.DeployedAt)

	_, err = tr.reg.Deploy(context.Background(), m2.ID, true, "alice")
	require.NoError(t, err)

	assert.Equal(t, models.ModelStatusArchived, tr.status(t, m1.ID))
	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m2.ID))

	// at most one model is ever deployed
	deployed2 := models.ModelStatusDeployed
	list, err := tr.store.List(context.Background(), repository.ModelFilter{Status: &deployed2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m2.ID, list[0].ID)
}

func TestDeployAlreadyDeployedReturnsConflict(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m.ID, true, "alice")
	require.NoError(t, err)

	_, err = tr.reg.Deploy(context.Background(), m.ID, true, "alice")
	var cerr *errs.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, m.ID, cerr.ID)
	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m.ID))
}

func TestRollbackRequiresApproval(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	_, err := tr.reg.Rollback(context.Background(), m2.ID, m1.ID, false, "alice")
	var aerr *errs.ApprovalRequiredError
	require.ErrorAs(t, err, &aerr)
}

func TestRollbackRestoresArchivedModel(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	require.NoError(t, err)
	_, err = tr.reg.Deploy(context.Background(), m2.ID, true, "alice")
	require.NoError(t, err)
	// m1 is now archived, m2 deployed

	res, err := tr.reg.Rollback(context.Background(), m2.ID, m1.ID, true, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusArchived, res.From.Status)
	assert.Equal(t, models.ModelStatusDeployed, res.To.Status)

	assert.Equal(t, models.ModelStatusArchived, tr.status(t, m2.ID))
	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m1.ID))

	deployed, err := tr.reg.Deployed(context.Background())
	require.NoError(t, err)
	require.NotNil(t, deployed)
	assert.Equal(t, m1.ID, deployed.ID)
}

func TestDeployRejectsArchivedModel(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	require.NoError(t, err)
	_, err = tr.reg.Deploy(context.Background(), m2.ID, true, "alice")
	require.NoError(t, err)
	// m1 is archived; deploying it again must go through rollback
	require.Equal(t, models.ModelStatusArchived, tr.status(t, m1.ID))

	_, err = tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, string(models.ModelStatusArchived), serr.Status)

	// nothing moved
	assert.Equal(t, models.ModelStatusArchived, tr.status(t, m1.ID))
	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m2.ID))
}

func TestDeployRejectsShadowModel(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.StartShadow(context.Background(), m.ID, "alice")
	require.NoError(t, err)

	_, err = tr.reg.Deploy(context.Background(), m.ID, true, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ModelStatusShadow, tr.status(t, m.ID))
}

func TestRollbackRequiresDeployedIncumbent(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)
	m3 := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	require.NoError(t, err)

	// from names a trained model, not the incumbent
	_, err = tr.reg.Rollback(context.Background(), m2.ID, m3.ID, true, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, m2.ID, serr.ID)

	// the incumbent is untouched and still the only deployed model
	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m1.ID))
	assert.Equal(t, models.ModelStatusTrained, tr.status(t, m2.ID))
	assert.Equal(t, models.ModelStatusTrained, tr.status(t, m3.ID))

	deployedStatus := models.ModelStatusDeployed
	list, err := tr.store.List(context.Background(), repository.ModelFilter{Status: &deployedStatus})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m1.ID, list[0].ID)
}

func TestRollbackRequiresArchivedTarget(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m1.ID, true, "alice")
	require.NoError(t, err)

	// restoring a trained model is a deploy, not a rollback
	_, err = tr.reg.Rollback(context.Background(), m1.ID, m2.ID, true, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, m2.ID, serr.ID)

	assert.Equal(t, models.ModelStatusDeployed, tr.status(t, m1.ID))
	assert.Equal(t, models.ModelStatusTrained, tr.status(t, m2.ID))
}

func TestShadowLifecycle(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	started, err := tr.reg.StartShadow(context.Background(), m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusShadow, started.Status)
	assert.NotNil(t, started.ShadowStart)
	assert.Nil(t, started.ShadowEnd)

	// starting again conflicts
	_, err = tr.reg.StartShadow(context.Background(), m.ID, "alice")
	var cerr *errs.ConflictError
	require.ErrorAs(t, err, &cerr)

	stopped, err := tr.reg.StopShadow(context.Background(), m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusTrained, stopped.Status)
	assert.NotNil(t, stopped.ShadowEnd)
}

func TestStartShadowRejectsDeployedModel(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.Deploy(context.Background(), m.ID, true, "alice")
	require.NoError(t, err)

	_, err = tr.reg.StartShadow(context.Background(), m.ID, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, string(models.ModelStatusDeployed), serr.Status)
}

func TestStopShadowRejectsNonShadowModel(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.StopShadow(context.Background(), m.ID, "alice")
	var serr *errs.StateError
	require.ErrorAs(t, err, &serr)
}

func TestEveryMutationLandsInAuditTrail(t *testing.T) {
	tr := newTestRegistry(t)
	m1 := tr.newModel(t)
	m2 := tr.newModel(t)

	ctx := context.Background()
	_, err := tr.reg.Deploy(ctx, m1.ID, true, "alice")
	require.NoError(t, err)
	_, err = tr.reg.Deploy(ctx, m2.ID, true, "alice")
	require.NoError(t, err)
	_, err = tr.reg.Rollback(ctx, m2.ID, m1.ID, true, "bob")
	require.NoError(t, err)

	entries, err := tr.auditStore.List(ctx, 0)
	require.NoError(t, err)

	counts := make(map[models.AuditAction]int)
	for _, entry := range entries {
		counts[entry.Action]++
	}
	assert.Equal(t, 2, counts[models.AuditModelCreated])
	assert.Equal(t, 2, counts[models.AuditModelDeployed])
	assert.Equal(t, 1, counts[models.AuditModelRollback])

	// the second deploy names both touched models
	for _, entry := range entries {
		if entry.Action == models.AuditModelRollback {
			assert.ElementsMatch(t, []string{m1.ID, m2.ID}, entry.Subjects)
			assert.Equal(t, "bob", entry.Actor)
		}
	}
}

func TestShadowTestsEmptyBeforeAnyRun(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	tests, err := tr.reg.ShadowTests(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Empty(t, tests)

	_, err = tr.reg.ShadowTests(context.Background(), "missing")
	var nerr *errs.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestShadowTestsAfterRun(t *testing.T) {
	tr := newTestRegistry(t)
	m := tr.newModel(t)

	_, err := tr.reg.StartShadow(context.Background(), m.ID, "alice")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = tr.reg.StopShadow(context.Background(), m.ID, "alice")
	require.NoError(t, err)

	tests, err := tr.reg.ShadowTests(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotEmpty(t, tests)

	for _, row := range tests {
		assert.Equal(t, m.ID, row.ModelID)
		assert.Equal(t, row.LiveDecision == row.ShadowDecision, row.Agreement)
		assert.NotEmpty(t, row.Symbol)
	}

	// rows are deterministic per model
	again, err := tr.reg.ShadowTests(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, tests, again)
}
