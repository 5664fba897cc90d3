package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"training-orchestrator/core/models"
)

func TestSimRunnerProducesMetricsForMeasuredStages(t *testing.T) {
	r := NewSimRunner(zap.NewNop(), time.Millisecond, 42)
	job := &models.TrainingJob{ID: "j1", ModelType: models.ModelTypeRLAgent}

	res, err := r.Run(context.Background(), job, models.StageDataPrep)
	require.NoError(t, err)
	assert.Nil(t, res.Metrics)
	assert.Contains(t, res.Message, "data_prep")
	assert.Greater(t, res.Duration, time.Duration(0))

	res, err = r.Run(context.Background(), job, models.StageRLTraining)
	require.NoError(t, err)
	require.NotNil(t, res.Metrics)
	assert.Greater(t, res.Metrics.WinRatio, 0.0)
	assert.Greater(t, res.Metrics.TotalTrades, 0)
}

func TestSimRunnerHonorsContextCancellation(t *testing.T) {
	r := NewSimRunner(zap.NewNop(), time.Minute, 1)
	job := &models.TrainingJob{ID: "j1", ModelType: models.ModelTypeRLAgent}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, job, models.StageDataPrep)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSimRunnerSeedIsReproducible(t *testing.T) {
	job := &models.TrainingJob{ID: "j1", ModelType: models.ModelTypeRLAgent}

	a := NewSimRunner(zap.NewNop(), 0, 7)
	b := NewSimRunner(zap.NewNop(), 0, 7)

	resA, err := a.Run(context.Background(), job, models.StageValidation)
	require.NoError(t, err)
	resB, err := b.Run(context.Background(), job, models.StageValidation)
	require.NoError(t, err)

	assert.Equal(t, resA.Metrics, resB.Metrics)
}
