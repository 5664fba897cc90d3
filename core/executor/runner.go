// Package executor defines the pluggable per-stage execution seam. The
// orchestrator drives stages through the StageRunner interface so real
// training backends can be substituted without touching the progression
// logic.
package executor

import (
	"context"
	"time"

	"training-orchestrator/core/models"
)

// StageResult is what a runner reports back for one executed stage
type StageResult struct {
	// Metrics measured during the stage, nil when the stage produces none
	Metrics *models.PerformanceMetrics
	// Message is a one-line summary appended to the job log
	Message string
	// Duration the stage actually took
	Duration time.Duration
}

// StageRunner executes one pipeline stage of a job. Run blocks until the
// stage finishes or ctx is done; the orchestrator applies a per-stage
// deadline through ctx.
type StageRunner interface {
	Run(ctx context.Context, job *models.TrainingJob, stage models.Stage) (StageResult, error)
}
