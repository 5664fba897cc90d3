// Package audit records every mutating orchestrator and registry action in
// an append-only trail with actor attribution.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"training-orchestrator/core/models"
	"training-orchestrator/core/repository"
)

// Trail appends audit entries to the underlying store
type Trail struct {
	store  repository.AuditStore
	logger *zap.Logger
}

// NewTrail creates an audit trail over the given store
func NewTrail(store repository.AuditStore, logger *zap.Logger) *Trail {
	return &Trail{store: store, logger: logger}
}

// Record appends one entry. The state change it describes has already
// happened, so a failed append is logged and reported but never rolls the
// mutation back.
func (t *Trail) Record(ctx context.Context, action models.AuditAction, actor, detail string, subjects ...string) error {
	entry := &models.AuditEntry{
		ID:       uuid.NewString(),
		Action:   action,
		Subjects: subjects,
		Actor:    actor,
		Detail:   detail,
		At:       time.Now(),
	}
	if err := t.store.Append(ctx, entry); err != nil {
		t.logger.Error("failed to append audit entry",
			zap.String("action", string(action)),
			zap.Strings("subjects", subjects),
			zap.Error(err))
		return err
	}
	return nil
}

// Entries lists recorded entries in insertion order
func (t *Trail) Entries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return t.store.List(ctx, limit)
}
