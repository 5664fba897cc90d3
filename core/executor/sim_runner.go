package executor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"training-orchestrator/core/models"
)

// SimRunner is a stand-in for real training backends. It sleeps for a
// configured per-stage duration and produces randomized metrics that trend
// upward through the pipeline, the way the mock training service behaves.
type SimRunner struct {
	logger        *zap.Logger
	stageDuration time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimRunner creates a simulated runner. stageDuration is how long each
// stage takes; seed fixes the metric stream for reproducible runs.
func NewSimRunner(logger *zap.Logger, stageDuration time.Duration, seed int64) *SimRunner {
	return &SimRunner{
		logger:        logger,
		stageDuration: stageDuration,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Run simulates the execution of one stage
func (r *SimRunner) Run(ctx context.Context, job *models.TrainingJob, stage models.Stage) (StageResult, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return StageResult{}, ctx.Err()
	case <-time.After(r.stageDuration):
	}

	res := StageResult{
		Message:  fmt.Sprintf("%s finished", stage),
		Duration: time.Since(start),
	}

	switch stage {
	case models.StageRLTraining, models.StageBacktesting, models.StageValidation:
		res.Metrics = r.sampleMetrics(stage)
	}

	r.logger.Debug("stage simulated",
		zap.String("job_id", job.ID),
		zap.String("stage", string(stage)),
		zap.Duration("duration", res.Duration))

	return res, nil
}

// sampleMetrics draws a randomized performance snapshot. Later stages draw
// from slightly better ranges so metrics improve as the pipeline advances.
func (r *SimRunner) sampleMetrics(stage models.Stage) *models.PerformanceMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	lift := 0.0
	switch stage {
	case models.StageBacktesting:
		lift = 0.03
	case models.StageValidation:
		lift = 0.05
	}

	return &models.PerformanceMetrics{
		WinRatio:     0.50 + lift + r.rng.Float64()*0.15,
		TotalTrades:  20 + r.rng.Intn(60),
		MaxDrawdown:  0.05 + r.rng.Float64()*0.12,
		SharpeRatio:  0.8 + lift*10 + r.rng.Float64()*0.9,
		ProfitFactor: 1.0 + r.rng.Float64()*0.8,
		Accuracy:     0.55 + lift + r.rng.Float64()*0.2,
	}
}
