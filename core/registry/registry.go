// Package registry governs the model lifecycle: deploy, rollback and shadow
// operations over the model store. One mutex serializes every mutation so no
// caller can observe an intermediate state with zero or two deployed models.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"training-orchestrator/core/audit"
	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
	"training-orchestrator/core/monitoring"
	"training-orchestrator/core/repository"
)

// Registry applies lifecycle operations to registry models
type Registry struct {
	store   repository.ModelStore
	trail   *audit.Trail
	metrics *monitoring.Metrics
	logger  *zap.Logger

	// mu guards the deployed-uniqueness invariant across all mutations
	mu sync.Mutex
}

// New creates a model registry
func New(store repository.ModelStore, trail *audit.Trail, metrics *monitoring.Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		store:   store,
		trail:   trail,
		metrics: metrics,
		logger:  logger,
	}
}

// RollbackResult carries both models touched by a rollback
type RollbackResult struct {
	From *models.Model
	To   *models.Model
}

// CreateFromJob mints a registry model for a completed training job. The
// model enters the lifecycle at trained and is never deleted afterwards.
func (r *Registry) CreateFromJob(ctx context.Context, job *models.TrainingJob) (*models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count models: %w", err)
	}

	m := &models.Model{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("%s-%s", job.ModelType, job.Algorithm),
		Version:     fmt.Sprintf("v1.%d.0", seq+1),
		Type:        job.ModelType,
		Status:      models.ModelStatusTrained,
		Experiment: models.Experiment{
			ExperimentID: job.Experiment.ExperimentID,
			RunID:        uuid.NewString(),
		},
		RiskProfile: job.RiskProfile,
		SourceJobID: job.ID,
		CreatedAt:   time.Now(),
		Algorithm: models.AlgorithmInfo{
			Name: job.Algorithm,
		},
	}
	if job.Metrics != nil {
		m.Performance = *job.Metrics
	}

	if err := r.store.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to persist model: %w", err)
	}

	r.metrics.RegistryOps.WithLabelValues("create").Inc()
	r.trail.Record(ctx, models.AuditModelCreated, job.SubmittedBy,
		fmt.Sprintf("model %s %s created from job", m.Name, m.Version), m.ID, job.ID)

	r.logger.Info("model registered",
		zap.String("model_id", m.ID),
		zap.String("version", m.Version),
		zap.String("job_id", job.ID))

	return m, nil
}

// Deploy makes the target model the single deployed one, archiving any
// incumbent in the same critical section. The promote API alias shares this
// contract.
func (r *Registry) Deploy(ctx context.Context, modelID string, approved bool, actor string) (*models.Model, error) {
	if !approved {
		return nil, &errs.ApprovalRequiredError{Operation: "deploy"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target, err := r.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if target.Status == models.ModelStatusDeployed {
		return nil, &errs.ConflictError{Resource: "model", ID: modelID, Reason: "already deployed"}
	}
	// archived models come back only through rollback, shadow models leave
	// shadow first
	if target.Status != models.ModelStatusTrained {
		return nil, &errs.StateError{
			Resource: "model", ID: modelID, Status: string(target.Status),
			Reason: "only trained models can be deployed",
		}
	}

	incumbent, err := r.store.Deployed(ctx)
	if err != nil {
		return nil, err
	}
	if incumbent != nil {
		incumbent.Status = models.ModelStatusArchived
		if err := r.store.Update(ctx, incumbent); err != nil {
			return nil, fmt.Errorf("failed to archive incumbent: %w", err)
		}
	}

	now := time.Now()
	target.Status = models.ModelStatusDeployed
	target.DeployedAt = &now
	if err := r.store.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to deploy model: %w", err)
	}

	r.metrics.RegistryOps.WithLabelValues("deploy").Inc()
	r.metrics.DeployedModels.Set(1)

	detail := fmt.Sprintf("model %s %s deployed", target.Name, target.Version)
	subjects := []string{target.ID}
	if incumbent != nil {
		detail += fmt.Sprintf(", archived %s", incumbent.ID)
		subjects = append(subjects, incumbent.ID)
	}
	r.trail.Record(ctx, models.AuditModelDeployed, actor, detail, subjects...)

	r.logger.Info("model deployed",
		zap.String("model_id", target.ID),
		zap.String("actor", actor))

	return target, nil
}

// Rollback archives the currently deployed model and re-deploys a previous
// one. This is the only operation that may move a model out of archived.
func (r *Registry) Rollback(ctx context.Context, fromID, toID string, approved bool, actor string) (RollbackResult, error) {
	if !approved {
		return RollbackResult{}, &errs.ApprovalRequiredError{Operation: "rollback"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from, err := r.store.Get(ctx, fromID)
	if err != nil {
		return RollbackResult{}, err
	}
	to, err := r.store.Get(ctx, toID)
	if err != nil {
		return RollbackResult{}, err
	}
	// a rollback swaps the deployed incumbent for a previously archived
	// model; anything else would leave two models deployed or sneak a
	// fresh model past the deploy approval path
	if from.Status != models.ModelStatusDeployed {
		return RollbackResult{}, &errs.StateError{
			Resource: "model", ID: fromID, Status: string(from.Status),
			Reason: "rollback must name the currently deployed model",
		}
	}
	if to.Status != models.ModelStatusArchived {
		return RollbackResult{}, &errs.StateError{
			Resource: "model", ID: toID, Status: string(to.Status),
			Reason: "only archived models can be restored by rollback",
		}
	}

	now := time.Now()
	from.Status = models.ModelStatusArchived
	if err := r.store.Update(ctx, from); err != nil {
		return RollbackResult{}, fmt.Errorf("failed to archive model: %w", err)
	}

	to.Status = models.ModelStatusDeployed
	to.DeployedAt = &now
	if err := r.store.Update(ctx, to); err != nil {
		return RollbackResult{}, fmt.Errorf("failed to redeploy model: %w", err)
	}

	r.metrics.RegistryOps.WithLabelValues("rollback").Inc()
	r.metrics.DeployedModels.Set(1)
	r.trail.Record(ctx, models.AuditModelRollback, actor,
		fmt.Sprintf("rolled back %s in favor of %s", from.ID, to.ID), from.ID, to.ID)

	r.logger.Warn("model rolled back",
		zap.String("from", from.ID),
		zap.String("to", to.ID),
		zap.String("actor", actor))

	return RollbackResult{From: from, To: to}, nil
}

// StartShadow puts a trained model into shadow testing
func (r *Registry) StartShadow(ctx context.Context, modelID, actor string) (*models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.ModelStatusShadow {
		return nil, &errs.ConflictError{Resource: "model", ID: modelID, Reason: "already in shadow"}
	}
	if m.Status != models.ModelStatusTrained {
		return nil, &errs.StateError{
			Resource: "model", ID: modelID, Status: string(m.Status),
			Reason: "only trained models can enter shadow",
		}
	}

	now := time.Now()
	m.Status = models.ModelStatusShadow
	m.ShadowStart = &now
	m.ShadowEnd = nil
	if err := r.store.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to start shadow: %w", err)
	}

	r.metrics.RegistryOps.WithLabelValues("shadow_start").Inc()
	r.trail.Record(ctx, models.AuditShadowStarted, actor,
		fmt.Sprintf("model %s %s entered shadow", m.Name, m.Version), m.ID)

	return m, nil
}

// StopShadow returns a shadow model to trained
func (r *Registry) StopShadow(ctx context.Context, modelID, actor string) (*models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.ModelStatusShadow {
		return nil, &errs.StateError{
			Resource: "model", ID: modelID, Status: string(m.Status),
			Reason: "model is not in shadow",
		}
	}

	now := time.Now()
	m.Status = models.ModelStatusTrained
	m.ShadowEnd = &now
	if err := r.store.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to stop shadow: %w", err)
	}

	r.metrics.RegistryOps.WithLabelValues("shadow_stop").Inc()
	r.trail.Record(ctx, models.AuditShadowStopped, actor,
		fmt.Sprintf("model %s %s left shadow", m.Name, m.Version), m.ID)

	return m, nil
}

// Get returns one model by id
func (r *Registry) Get(ctx context.Context, modelID string) (*models.Model, error) {
	return r.store.Get(ctx, modelID)
}

// List returns models matching the filter, newest first
func (r *Registry) List(ctx context.Context, filter repository.ModelFilter) ([]*models.Model, error) {
	return r.store.List(ctx, filter)
}

// Deployed returns the currently deployed model, or nil
func (r *Registry) Deployed(ctx context.Context) (*models.Model, error) {
	return r.store.Deployed(ctx)
}
