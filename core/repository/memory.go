package repository

import (
	"context"
	"sync"

	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
)

// MemoryJobStore is a mutex-guarded in-memory JobStore. It hands out deep
// copies so callers never share record memory with the store.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.TrainingJob
	ids  []string // insertion order
}

// NewMemoryJobStore creates an empty in-memory job store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*models.TrainingJob)}
}

func (s *MemoryJobStore) Create(_ context.Context, job *models.TrainingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return &errs.ConflictError{Resource: "job", ID: job.ID, Reason: "already exists"}
	}
	s.jobs[job.ID] = job.Clone()
	s.ids = append(s.ids, job.ID)
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, &errs.NotFoundError{Resource: "job", ID: id}
	}
	return job.Clone(), nil
}

func (s *MemoryJobStore) Update(_ context.Context, job *models.TrainingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return &errs.NotFoundError{Resource: "job", ID: job.ID}
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryJobStore) List(_ context.Context, filter JobFilter) ([]*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TrainingJob, 0, len(s.ids))
	// newest first, matching the SQL stores' ORDER BY created_at DESC
	for i := len(s.ids) - 1; i >= 0; i-- {
		job := s.jobs[s.ids[i]]
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		if filter.ModelType != nil && job.ModelType != *filter.ModelType {
			continue
		}
		out = append(out, job.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryJobStore) Active(_ context.Context) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.ids {
		if job := s.jobs[id]; !job.Status.Terminal() {
			return job.Clone(), nil
		}
	}
	return nil, nil
}

// MemoryModelStore is a mutex-guarded in-memory ModelStore
type MemoryModelStore struct {
	mu     sync.RWMutex
	models map[string]*models.Model
	ids    []string
}

// NewMemoryModelStore creates an empty in-memory model store
func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{models: make(map[string]*models.Model)}
}

func (s *MemoryModelStore) Create(_ context.Context, m *models.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[m.ID]; ok {
		return &errs.ConflictError{Resource: "model", ID: m.ID, Reason: "already exists"}
	}
	s.models[m.ID] = m.Clone()
	s.ids = append(s.ids, m.ID)
	return nil
}

func (s *MemoryModelStore) Get(_ context.Context, id string) (*models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[id]
	if !ok {
		return nil, &errs.NotFoundError{Resource: "model", ID: id}
	}
	return m.Clone(), nil
}

func (s *MemoryModelStore) Update(_ context.Context, m *models.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[m.ID]; !ok {
		return &errs.NotFoundError{Resource: "model", ID: m.ID}
	}
	s.models[m.ID] = m.Clone()
	return nil
}

func (s *MemoryModelStore) List(_ context.Context, filter ModelFilter) ([]*models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Model, 0, len(s.ids))
	for i := len(s.ids) - 1; i >= 0; i-- {
		m := s.models[s.ids[i]]
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		out = append(out, m.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryModelStore) Deployed(_ context.Context) (*models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.ids {
		if m := s.models[id]; m.Status == models.ModelStatusDeployed {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryModelStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models), nil
}

// MemoryAuditStore is a mutex-guarded append-only in-memory AuditStore
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

// NewMemoryAuditStore creates an empty in-memory audit store
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Append(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	cp.Subjects = append([]string(nil), entry.Subjects...)
	s.entries = append(s.entries, cp)
	return nil
}

func (s *MemoryAuditStore) List(_ context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.AuditEntry, n)
	copy(out, s.entries[:n])
	return out, nil
}
