// Package errs defines the error taxonomy shared by the orchestrator and the
// model registry. Every mutating operation returns one of these types
// synchronously; callers branch with errors.As.
package errs

import (
	"fmt"
	"strings"
)

// FieldError is one field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every offending field of a request, not just the
// first. It is returned before any mutation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field failure and returns the receiver for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ConflictError reports an operation that would violate a uniqueness
// invariant: a second active job, or deploying an already-deployed model.
type ConflictError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Reason   string `json:"reason"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Resource, e.ID, e.Reason)
}

// NotFoundError reports an unknown job or model id
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ApprovalRequiredError reports a high-impact registry mutation attempted
// without the approval flag
type ApprovalRequiredError struct {
	Operation string `json:"operation"`
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("operation %s requires approval", e.Operation)
}

// StateError reports an operation invalid for the subject's current state,
// such as cancelling a terminal job or stopping shadow on a non-shadow model
type StateError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s %s in status %s: %s", e.Resource, e.ID, e.Status, e.Reason)
}
