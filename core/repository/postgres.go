package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"training-orchestrator/core/errs"
	"training-orchestrator/core/models"
)

// PostgresJobStore persists jobs in Postgres. Frequently queried fields are
// promoted to columns; the rest of the record rides in a JSONB payload.
type PostgresJobStore struct {
	db *DB
}

// NewPostgresJobStore creates a Postgres-backed job store
func NewPostgresJobStore(db *DB) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

func (s *PostgresJobStore) Create(ctx context.Context, job *models.TrainingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	query := `
		INSERT INTO training_jobs (
			id, model_type, status, current_stage, progress, model_id,
			submitted_by, payload, created_at, started_at, ended_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.ModelType,
		job.Status,
		job.CurrentStage,
		job.Progress,
		job.ModelID,
		job.SubmittedBy,
		payload,
		job.CreatedAt,
		job.StartedAt,
		job.EndedAt,
		job.UpdatedAt,
	)
	return err
}

func (s *PostgresJobStore) Get(ctx context.Context, id string) (*models.TrainingJob, error) {
	query := `SELECT payload FROM training_jobs WHERE id = $1`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, &errs.NotFoundError{Resource: "job", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return decodeJob(payload)
}

func (s *PostgresJobStore) Update(ctx context.Context, job *models.TrainingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	query := `
		UPDATE training_jobs
		SET status = $1, current_stage = $2, progress = $3, model_id = $4,
			payload = $5, started_at = $6, ended_at = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := s.db.ExecContext(ctx, query,
		job.Status,
		job.CurrentStage,
		job.Progress,
		job.ModelID,
		payload,
		job.StartedAt,
		job.EndedAt,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errs.NotFoundError{Resource: "job", ID: job.ID}
	}
	return nil
}

func (s *PostgresJobStore) List(ctx context.Context, filter JobFilter) ([]*models.TrainingJob, error) {
	query := `SELECT payload FROM training_jobs WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.ModelType != nil {
		query += fmt.Sprintf(" AND model_type = $%d", argIndex)
		args = append(args, *filter.ModelType)
		argIndex++
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.TrainingJob
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		job, err := decodeJob(payload)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *PostgresJobStore) Active(ctx context.Context) (*models.TrainingJob, error) {
	query := `
		SELECT payload FROM training_jobs
		WHERE status NOT IN ('completed', 'failed', 'cancelled')
		ORDER BY created_at ASC
		LIMIT 1
	`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeJob(payload)
}

func decodeJob(payload []byte) (*models.TrainingJob, error) {
	var job models.TrainingJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// PostgresModelStore persists registry models in Postgres
type PostgresModelStore struct {
	db *DB
}

// NewPostgresModelStore creates a Postgres-backed model store
func NewPostgresModelStore(db *DB) *PostgresModelStore {
	return &PostgresModelStore{db: db}
}

func (s *PostgresModelStore) Create(ctx context.Context, m *models.Model) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	query := `
		INSERT INTO registry_models (
			id, name, version, model_type, status, source_job_id, payload,
			created_at, deployed_at, shadow_start, shadow_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Version, m.Type, m.Status, m.SourceJobID, payload,
		m.CreatedAt, m.DeployedAt, m.ShadowStart, m.ShadowEnd,
	)
	return err
}

func (s *PostgresModelStore) Get(ctx context.Context, id string) (*models.Model, error) {
	query := `SELECT payload FROM registry_models WHERE id = $1`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, &errs.NotFoundError{Resource: "model", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return decodeModel(payload)
}

func (s *PostgresModelStore) Update(ctx context.Context, m *models.Model) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	query := `
		UPDATE registry_models
		SET status = $1, payload = $2, deployed_at = $3, shadow_start = $4, shadow_end = $5
		WHERE id = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		m.Status, payload, m.DeployedAt, m.ShadowStart, m.ShadowEnd, m.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errs.NotFoundError{Resource: "model", ID: m.ID}
	}
	return nil
}

func (s *PostgresModelStore) List(ctx context.Context, filter ModelFilter) ([]*models.Model, error) {
	query := `SELECT payload FROM registry_models WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Type != nil {
		query += fmt.Sprintf(" AND model_type = $%d", argIndex)
		args = append(args, *filter.Type)
		argIndex++
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Model
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		m, err := decodeModel(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresModelStore) Deployed(ctx context.Context) (*models.Model, error) {
	query := `SELECT payload FROM registry_models WHERE status = 'deployed' LIMIT 1`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeModel(payload)
}

func (s *PostgresModelStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_models`).Scan(&n)
	return n, err
}

func decodeModel(payload []byte) (*models.Model, error) {
	var m models.Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &m, nil
}

// PostgresAuditStore persists the append-only audit trail in Postgres
type PostgresAuditStore struct {
	db *DB
}

// NewPostgresAuditStore creates a Postgres-backed audit store
func NewPostgresAuditStore(db *DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

func (s *PostgresAuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, action, subjects, actor, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Action, pq.Array(entry.Subjects), entry.Actor, entry.Detail, entry.At,
	)
	return err
}

func (s *PostgresAuditStore) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `SELECT id, action, subjects, actor, detail, at FROM audit_entries ORDER BY seq ASC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var subjects pq.StringArray
		if err := rows.Scan(&entry.ID, &entry.Action, &subjects, &entry.Actor, &entry.Detail, &entry.At); err != nil {
			return nil, err
		}
		entry.Subjects = []string(subjects)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
