package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
)

func makeJob(id string, mt models.ModelType, status models.JobStatus) *models.TrainingJob {
	return &models.TrainingJob{
		ID:        id,
		ModelType: mt,
		Coins:     []string{"BTC"},
		Status:    status,
		Stages:    models.NewStageStates(mt),
		CreatedAt: time.Now(),
	}
}

func TestMemoryJobStoreCreateAndGet(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	job := makeJob("j1", models.ModelTypeRLAgent, models.JobStatusPending)
	require.NoError(t, s.Create(ctx, job))

	err := s.Create(ctx, job)
	var cerr *errs.ConflictError
	require.ErrorAs(t, err, &cerr)

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)

	_, err = s.Get(ctx, "missing")
	var nerr *errs.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestMemoryJobStoreHandsOutCopies(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	job := makeJob("j1", models.ModelTypeRLAgent, models.JobStatusPending)
	require.NoError(t, s.Create(ctx, job))

	// mutating the caller's struct must not leak into the store
	job.Status = models.JobStatusFailed
	job.Coins[0] = "DOGE"
	job.Stages[models.StageDataPrep].Status = models.StageCompleted

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, "BTC", got.Coins[0])
	assert.Equal(t, models.StagePending, got.Stages[models.StageDataPrep].Status)

	// and neither must mutating a fetched copy
	got.Status = models.JobStatusCancelled
	again, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, again.Status)
}

func TestMemoryJobStoreUpdate(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	err := s.Update(ctx, makeJob("ghost", models.ModelTypeRLAgent, models.JobStatusPending))
	var nerr *errs.NotFoundError
	require.ErrorAs(t, err, &nerr)

	job := makeJob("j1", models.ModelTypeRLAgent, models.JobStatusPending)
	require.NoError(t, s.Create(ctx, job))

	job.Status = models.JobStatusDataPrep
	require.NoError(t, s.Update(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDataPrep, got.Status)
}

func TestMemoryJobStoreListNewestFirstWithFilters(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, makeJob("j1", models.ModelTypeRLAgent, models.JobStatusCompleted)))
	require.NoError(t, s.Create(ctx, makeJob("j2", models.ModelTypeSentiment, models.JobStatusFailed)))
	require.NoError(t, s.Create(ctx, makeJob("j3", models.ModelTypeRLAgent, models.JobStatusPending)))

	all, err := s.List(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "j3", all[0].ID)
	assert.Equal(t, "j1", all[2].ID)

	rl := models.ModelTypeRLAgent
	byType, err := s.List(ctx, JobFilter{ModelType: &rl})
	require.NoError(t, err)
	require.Len(t, byType, 2)

	failed := models.JobStatusFailed
	byStatus, err := s.List(ctx, JobFilter{Status: &failed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "j2", byStatus[0].ID)

	limited, err := s.List(ctx, JobFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryJobStoreActive(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	active, err := s.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, s.Create(ctx, makeJob("j1", models.ModelTypeRLAgent, models.JobStatusCompleted)))
	require.NoError(t, s.Create(ctx, makeJob("j2", models.ModelTypeRLAgent, models.JobStatusRLTraining)))

	active, err = s.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "j2", active.ID)

	// terminal statuses never count as active
	active.Status = models.JobStatusCancelled
	require.NoError(t, s.Update(ctx, active))
	active, err = s.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func makeModel(id string, status models.ModelStatus) *models.Model {
	return &models.Model{
		ID:        id,
		Name:      "rl_agent-PPO",
		Version:   "v1.1.0",
		Type:      models.ModelTypeRLAgent,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

func TestMemoryModelStoreDeployedAndCount(t *testing.T) {
	s := NewMemoryModelStore()
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Create(ctx, makeModel("m1", models.ModelStatusArchived)))
	require.NoError(t, s.Create(ctx, makeModel("m2", models.ModelStatusDeployed)))
	require.NoError(t, s.Create(ctx, makeModel("m3", models.ModelStatusTrained)))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deployed, err := s.Deployed(ctx)
	require.NoError(t, err)
	require.NotNil(t, deployed)
	assert.Equal(t, "m2", deployed.ID)

	trained := models.ModelStatusTrained
	list, err := s.List(ctx, ModelFilter{Status: &trained})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m3", list[0].ID)
}

func TestMemoryAuditStoreAppendOnly(t *testing.T) {
	s := NewMemoryAuditStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &models.AuditEntry{
			ID:       fmt.Sprintf("a%d", i),
			Action:   models.AuditJobSubmitted,
			Actor:    "alice",
			Subjects: []string{"j1"},
			At:       time.Now(),
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "a0", all[0].ID)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	// mutating a listed entry must not touch the store
	all[0].Actor = "mallory"
	again, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", again[0].Actor)
}
