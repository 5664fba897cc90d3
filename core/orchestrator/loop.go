package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"training-orchestrator/core/curriculum"
	"training-orchestrator/core/models"
)

// Start runs the progression loop until ctx is done or Stop is called. One
// tick advances the active job by at most one stage; a job failure is
// absorbed into the job record and never stops the loop.
func (o *Orchestrator) Start(ctx context.Context) {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	o.logger.Info("progression loop started", zap.Duration("tick", o.tick))

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-o.wakeCh:
		case <-ticker.C:
		}
		o.step(ctx)
	}
}

// Stop stops the progression loop
func (o *Orchestrator) Stop() {
	close(o.stopCh)
}

// step performs one unit of pending work for the active job, if any
func (o *Orchestrator) step(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("progression step panicked", zap.Any("panic", rec))
		}
	}()

	o.mu.Lock()
	job, err := o.jobs.Active(ctx)
	o.mu.Unlock()
	if err != nil {
		o.logger.Error("failed to look up active job", zap.Error(err))
		return
	}
	if job == nil {
		return
	}

	stage, ok := job.NextStage()
	if !ok {
		o.complete(ctx, job.ID)
		return
	}

	if finished := o.runStage(ctx, job.ID, stage); finished {
		o.complete(ctx, job.ID)
	}

	// push a snapshot so watchers see progress even between transitions
	if snap, err := o.jobs.Get(ctx, job.ID); err == nil {
		o.broadcast(snap)
	}
}

// runStage executes one stage against the runner and applies the resulting
// transition. It returns true when the stage it completed was the last one
// in the pipeline.
func (o *Orchestrator) runStage(ctx context.Context, jobID string, stage models.Stage) bool {
	// transition into the stage
	o.mu.Lock()
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		o.mu.Unlock()
		o.logger.Error("failed to fetch job", zap.String("job_id", jobID), zap.Error(err))
		return false
	}
	// cancellation is checked before every transition
	if job.Status.Terminal() {
		o.mu.Unlock()
		return false
	}

	now := time.Now()
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	job.Status = models.StatusForStage(stage)
	job.CurrentStage = models.StageLabel(stage)
	if st := job.Stages[stage]; st != nil {
		st.Status = models.StageRunning
	}
	job.Progress = job.OverallProgress()
	job.UpdatedAt = now
	job.AppendLog("info", string(stage), fmt.Sprintf("%s started", stage))
	if err := o.jobs.Update(ctx, job); err != nil {
		o.mu.Unlock()
		o.logger.Error("failed to persist stage start", zap.String("job_id", jobID), zap.Error(err))
		return false
	}
	o.metrics.StageTransitions.WithLabelValues(string(stage)).Inc()
	snapshot := job.Clone()
	o.mu.Unlock()
	o.broadcast(snapshot)

	// the in-flight unit of work; the watchdog deadline bounds a stuck stage
	runCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	res, runErr := o.runner.Run(runCtx, snapshot, stage)
	cancel()

	// apply the outcome against fresh state
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err = o.jobs.Get(ctx, jobID)
	if err != nil {
		o.logger.Error("failed to refetch job", zap.String("job_id", jobID), zap.Error(err))
		return false
	}
	// cancelled while the stage was in flight: discard the result
	if job.Status.Terminal() {
		return false
	}

	if runErr != nil {
		o.failLocked(ctx, job, stage, runErr)
		return false
	}

	if st := job.Stages[stage]; st != nil {
		st.Status = models.StageCompleted
		st.Progress = 100
		st.Duration = res.Duration
	}
	if res.Metrics != nil {
		job.Metrics = res.Metrics
	}
	job.Progress = job.OverallProgress()
	job.UpdatedAt = time.Now()
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("%s completed", stage)
	}
	job.AppendLog("info", string(stage), msg)

	if stage == models.StageRLTraining {
		o.evaluateCurriculum(job)
	}

	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Error("failed to persist stage completion", zap.String("job_id", jobID), zap.Error(err))
		return false
	}
	o.metrics.StageDuration.WithLabelValues(string(stage)).Observe(res.Duration.Seconds())
	o.broadcast(job)

	_, more := job.NextStage()
	return !more
}

// evaluateCurriculum feeds the freshly measured metrics to the gate. The
// verdict is advisory: it flags the job, it never changes the level or
// blocks advancement.
func (o *Orchestrator) evaluateCurriculum(job *models.TrainingJob) {
	if job.Curriculum == nil || job.Metrics == nil {
		return
	}

	job.Curriculum.Measured = models.CurriculumMeasurement{
		WinRatio:    job.Metrics.WinRatio,
		Trades:      job.Metrics.TotalTrades,
		MaxDrawdown: job.Metrics.MaxDrawdown,
		SharpeRatio: job.Metrics.SharpeRatio,
	}

	res, err := curriculum.Evaluate(job)
	if err != nil {
		o.logger.Warn("curriculum evaluation failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if res.TargetMet {
		job.Curriculum.Passed = true
		job.Curriculum.NextLevel = res.NextLevel
		job.AppendLog("info", string(models.StageRLTraining),
			fmt.Sprintf("curriculum target for level %s met", job.Curriculum.Level))
	}
}

// complete finalizes a job whose pipeline is done: create the registry
// model, stamp the terminal state and fire the callback.
func (o *Orchestrator) complete(ctx context.Context, jobID string) {
	o.mu.Lock()

	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		o.mu.Unlock()
		o.logger.Error("failed to fetch job for completion", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if job.Status.Terminal() {
		o.mu.Unlock()
		return
	}

	model, err := o.registry.CreateFromJob(ctx, job)
	if err != nil {
		o.failLocked(ctx, job, "", fmt.Errorf("model registration failed: %w", err))
		o.mu.Unlock()
		return
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.CurrentStage = "Completed"
	job.Progress = 100
	job.ModelID = model.ID
	job.Experiment.RunID = model.Experiment.RunID
	job.EndedAt = &now
	job.UpdatedAt = now
	job.AppendLog("info", "", fmt.Sprintf("training completed, model %s registered", model.ID))
	if err := o.jobs.Update(ctx, job); err != nil {
		o.mu.Unlock()
		o.logger.Error("failed to persist completion", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	o.metrics.JobsCompleted.Inc()
	o.metrics.ActiveJobs.Set(0)
	o.trail.Record(ctx, models.AuditJobCompleted, job.SubmittedBy,
		fmt.Sprintf("training job completed, produced model %s", model.ID), job.ID, model.ID)

	o.logger.Info("job completed",
		zap.String("job_id", job.ID),
		zap.String("model_id", model.ID))

	snapshot := job.Clone()
	o.mu.Unlock()
	o.broadcast(snapshot)

	// best effort: a failed callback is logged, never fatal
	if o.notifier != nil && snapshot.CallbackURL != "" {
		if err := o.notifier.JobCompleted(ctx, snapshot.CallbackURL, snapshot); err != nil {
			o.logger.Warn("completion callback failed",
				zap.String("job_id", snapshot.ID),
				zap.Error(err))
		}
	}
}

// failLocked transitions a job to failed. Callers hold o.mu.
func (o *Orchestrator) failLocked(ctx context.Context, job *models.TrainingJob, stage models.Stage, cause error) {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.CurrentStage = "Failed"
	job.EndedAt = &now
	job.UpdatedAt = now
	if stage != "" {
		if st := job.Stages[stage]; st != nil {
			st.Status = models.StageFailed
		}
	}
	job.AppendLog("error", string(stage), fmt.Sprintf("stage execution failed: %v", cause))
	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Error("failed to persist job failure", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	o.metrics.JobsFailed.Inc()
	o.metrics.ActiveJobs.Set(0)
	o.trail.Record(ctx, models.AuditJobFailed, job.SubmittedBy, cause.Error(), job.ID)

	o.logger.Error("job failed",
		zap.String("job_id", job.ID),
		zap.String("stage", string(stage)),
		zap.Error(cause))

	o.broadcast(job)
}
