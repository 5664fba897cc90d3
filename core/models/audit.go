package models

import "time"

// AuditAction identifies the kind of mutating action an audit entry records
type AuditAction string

const (
	AuditJobSubmitted  AuditAction = "job_submitted"
	AuditJobCancelled  AuditAction = "job_cancelled"
	AuditJobCompleted  AuditAction = "job_completed"
	AuditJobFailed     AuditAction = "job_failed"
	AuditModelCreated  AuditAction = "model_created"
	AuditModelDeployed AuditAction = "model_deployed"
	AuditModelRollback AuditAction = "model_rollback"
	AuditShadowStarted AuditAction = "shadow_started"
	AuditShadowStopped AuditAction = "shadow_stopped"
)

// AuditEntry is one append-only record of a mutating action with actor
// attribution. Entries are causally ordered by insertion and never mutated.
type AuditEntry struct {
	ID       string
	Action   AuditAction
	Subjects []string
	Actor    string
	Detail   string
	At       time.Time
}
