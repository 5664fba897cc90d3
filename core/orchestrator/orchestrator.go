// Package orchestrator drives training jobs through the stage pipeline. It
// owns the single-active-job invariant: at most one job system-wide is in a
// non-terminal status at any instant.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"training-orchestrator/core/audit"
	"training-orchestrator/core/curriculum"
	"training-orchestrator/core/errs"
	"training-orchestrator/core/executor"
	"training-orchestrator/core/models"
	"training-orchestrator/core/monitoring"
	"training-orchestrator/core/registry"
	"training-orchestrator/core/repository"
)

// Notifier posts best-effort completion callbacks
type Notifier interface {
	JobCompleted(ctx context.Context, url string, job *models.TrainingJob) error
}

// Options tune the progression loop
type Options struct {
	// TickInterval is how often the loop looks for pending work
	TickInterval time.Duration
	// StageTimeout is the watchdog deadline per stage; a job exceeding it
	// is failed, freeing the active slot
	StageTimeout time.Duration
}

// Orchestrator accepts submissions, runs the background progression loop and
// hands completed jobs to the model registry.
type Orchestrator struct {
	jobs     repository.JobStore
	registry *registry.Registry
	runner   executor.StageRunner
	notifier Notifier
	trail    *audit.Trail
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	tick         time.Duration
	stageTimeout time.Duration

	// mu guards the single-active-job invariant and every job
	// read-modify-write, so submit, cancel and the loop never interleave
	// partial updates
	mu sync.Mutex

	stopCh chan struct{}
	wakeCh chan struct{}

	watchMu   sync.Mutex
	watchers  map[int]chan *models.TrainingJob
	nextWatch int
}

// New creates an orchestrator. notifier may be nil when no callback
// transport is wired.
func New(
	jobs repository.JobStore,
	reg *registry.Registry,
	runner executor.StageRunner,
	notifier Notifier,
	trail *audit.Trail,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 30 * time.Minute
	}
	return &Orchestrator{
		jobs:         jobs,
		registry:     reg,
		runner:       runner,
		notifier:     notifier,
		trail:        trail,
		metrics:      metrics,
		logger:       logger,
		tick:         opts.TickInterval,
		stageTimeout: opts.StageTimeout,
		stopCh:       make(chan struct{}),
		wakeCh:       make(chan struct{}, 1),
		watchers:     make(map[int]chan *models.TrainingJob),
	}
}

// SubmitRequest is the submission payload accepted by Submit
type SubmitRequest struct {
	ModelType       models.ModelType         `json:"model_type"`
	Coins           []string                 `json:"coins"`
	LookbackDays    int                      `json:"lookback_days"`
	Interval        string                   `json:"interval"`
	Algorithm       string                   `json:"algorithm"`
	Architecture    models.ArchitectureSpec  `json:"architecture"`
	Tune            bool                     `json:"tune"`
	CallbackURL     string                   `json:"callback_url,omitempty"`
	Environment     models.EnvironmentConfig `json:"environment_config,omitempty"`
	RiskProfile     string                   `json:"risk_profile,omitempty"`
	DatasetVersion  string                   `json:"dataset_version,omitempty"`
	CurriculumLevel models.CurriculumLevel   `json:"curriculum_level,omitempty"`
}

// Validate checks every field and reports all offending ones at once
func (req *SubmitRequest) Validate() *errs.ValidationError {
	verr := &errs.ValidationError{}

	if !models.KnownModelType(req.ModelType) {
		verr.Add("modelType", fmt.Sprintf("unknown model type %q", req.ModelType))
	}
	if len(req.Coins) == 0 {
		verr.Add("coins", "at least one coin is required")
	}
	if req.LookbackDays < 1 || req.LookbackDays > 365 {
		verr.Add("lookbackDays", fmt.Sprintf("%d outside [1,365]", req.LookbackDays))
	}
	if req.Algorithm == "" {
		verr.Add("algorithm", "algorithm is required")
	}
	if models.KnownModelType(req.ModelType) {
		if _, other := req.Architecture.SectionFor(req.ModelType); other {
			verr.Add("architecture", fmt.Sprintf("architecture section does not match model type %q", req.ModelType))
		}
	}
	if req.CurriculumLevel != "" {
		if _, ok := curriculum.StageFor(req.CurriculumLevel); !ok {
			verr.Add("curriculumLevel", fmt.Sprintf("unknown curriculum level %q", req.CurriculumLevel))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Submit validates the request, enforces the single-active-job invariant and
// persists the new job in status pending. Stage progression happens on the
// background loop; the caller gets the created job immediately.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest, actor string) (*models.TrainingJob, error) {
	if verr := req.Validate(); verr != nil {
		o.metrics.JobsRejected.WithLabelValues("validation").Inc()
		return nil, verr
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	active, err := o.jobs.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check active job: %w", err)
	}
	if active != nil {
		o.metrics.JobsRejected.WithLabelValues("conflict").Inc()
		return nil, &errs.ConflictError{
			Resource: "job",
			ID:       active.ID,
			Reason:   fmt.Sprintf("job %s is still %s", active.ID, active.Status),
		}
	}

	job := o.buildJob(req, actor)
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	o.metrics.JobsSubmitted.Inc()
	o.metrics.ActiveJobs.Set(1)
	o.trail.Record(ctx, models.AuditJobSubmitted, actor,
		fmt.Sprintf("%s training job submitted", job.ModelType), job.ID)

	o.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("model_type", string(job.ModelType)),
		zap.String("actor", actor))

	o.wake()
	o.broadcast(job)
	return job.Clone(), nil
}

func (o *Orchestrator) buildJob(req SubmitRequest, actor string) *models.TrainingJob {
	now := time.Now()
	job := &models.TrainingJob{
		ID:              uuid.NewString(),
		ModelType:       req.ModelType,
		Coins:           append([]string(nil), req.Coins...),
		LookbackDays:    req.LookbackDays,
		Interval:        req.Interval,
		Algorithm:       req.Algorithm,
		Architecture:    req.Architecture,
		Environment:     req.Environment,
		Tune:            req.Tune,
		RiskProfile:     req.RiskProfile,
		DatasetVersion:  req.DatasetVersion,
		CurriculumLevel: req.CurriculumLevel,
		CallbackURL:     req.CallbackURL,
		SubmittedBy:     actor,
		Status:          models.JobStatusPending,
		CurrentStage:    "Queued",
		Stages:          models.NewStageStates(req.ModelType),
		Experiment: models.Experiment{
			ExperimentID: uuid.NewString(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.Interval == "" {
		job.Interval = "1h"
	}

	// RL jobs carry curriculum sub-state; the level defaults to the first
	// catalog tier when the submitter names none
	if hasRLStage(job.ModelType) {
		level := job.CurriculumLevel
		if level == "" {
			level = models.CurriculumSimple
		}
		job.CurriculumLevel = level
		if stage, ok := curriculum.StageFor(level); ok {
			job.Curriculum = &models.CurriculumState{
				Level:  level,
				Target: stage.Criteria,
			}
		}
	}

	job.AppendLog("info", "", "job accepted, waiting for the pipeline")
	return job
}

func hasRLStage(mt models.ModelType) bool {
	for _, s := range models.StagesFor(mt) {
		if s == models.StageRLTraining {
			return true
		}
	}
	return false
}

// Cancel marks a non-terminal job cancelled. Cancellation is cooperative:
// work already dispatched for the current tick finishes, but its result is
// discarded and no further transition is applied.
func (o *Orchestrator) Cancel(ctx context.Context, jobID, actor string) (*models.TrainingJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, &errs.StateError{
			Resource: "job",
			ID:       jobID,
			Status:   string(job.Status),
			Reason:   "job already reached a terminal status",
		}
	}

	now := time.Now()
	job.Status = models.JobStatusCancelled
	job.CurrentStage = "Cancelled"
	job.EndedAt = &now
	job.UpdatedAt = now
	job.AppendLog("warn", job.CurrentStage, fmt.Sprintf("cancelled by %s", actor))
	if err := o.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist cancellation: %w", err)
	}

	o.metrics.JobsCancelled.Inc()
	o.metrics.ActiveJobs.Set(0)
	o.trail.Record(ctx, models.AuditJobCancelled, actor, "training job cancelled", job.ID)

	o.logger.Info("job cancelled",
		zap.String("job_id", job.ID),
		zap.String("actor", actor))

	o.broadcast(job)
	return job.Clone(), nil
}

// Get returns one job by id; a pure read
func (o *Orchestrator) Get(ctx context.Context, jobID string) (*models.TrainingJob, error) {
	return o.jobs.Get(ctx, jobID)
}

// List returns jobs matching the filter, newest first; a pure read
func (o *Orchestrator) List(ctx context.Context, filter repository.JobFilter) ([]*models.TrainingJob, error) {
	return o.jobs.List(ctx, filter)
}

// wake nudges the loop without waiting for the next tick
func (o *Orchestrator) wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}
