// Package repository holds the keyed entity stores for jobs, models and
// audit entries. Stores guarantee thread-safe access to individual records;
// cross-record invariants (single active job, single deployed model) are
// enforced by the orchestrator and registry on top of them.
package repository

import (
	"context"

	"training-orchestrator/core/models"
)

// JobFilter narrows a job listing
type JobFilter struct {
	Status    *models.JobStatus
	ModelType *models.ModelType
	Limit     int
}

// ModelFilter narrows a model listing
type ModelFilter struct {
	Status *models.ModelStatus
	Type   *models.ModelType
	Limit  int
}

// JobStore is keyed entity storage for TrainingJob records
type JobStore interface {
	Create(ctx context.Context, job *models.TrainingJob) error
	Get(ctx context.Context, id string) (*models.TrainingJob, error)
	Update(ctx context.Context, job *models.TrainingJob) error
	List(ctx context.Context, filter JobFilter) ([]*models.TrainingJob, error)
	// Active returns the single non-terminal job, or nil when none exists
	Active(ctx context.Context) (*models.TrainingJob, error)
}

// ModelStore is keyed entity storage for Model records
type ModelStore interface {
	Create(ctx context.Context, m *models.Model) error
	Get(ctx context.Context, id string) (*models.Model, error)
	Update(ctx context.Context, m *models.Model) error
	List(ctx context.Context, filter ModelFilter) ([]*models.Model, error)
	// Deployed returns the single deployed model, or nil when none exists
	Deployed(ctx context.Context) (*models.Model, error)
	// Count returns the number of stored models
	Count(ctx context.Context) (int, error)
}

// AuditStore is append-only storage for audit entries
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, limit int) ([]models.AuditEntry, error)
}
