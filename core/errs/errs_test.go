package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorCollectsFields(t *testing.T) {
	verr := (&ValidationError{}).
		Add("coins", "at least one coin is required").
		Add("algorithm", "algorithm is required")

	require.True(t, verr.HasErrors())
	require.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Error(), "coins")
	assert.Contains(t, verr.Error(), "algorithm")

	assert.False(t, (&ValidationError{}).HasErrors())
}

func TestTaxonomyWorksThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("submit failed: %w", &ConflictError{
		Resource: "job", ID: "j1", Reason: "still running",
	})

	var cerr *ConflictError
	require.True(t, errors.As(wrapped, &cerr))
	assert.Equal(t, "j1", cerr.ID)

	var nerr *NotFoundError
	assert.False(t, errors.As(wrapped, &nerr))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "model m1 not found",
		(&NotFoundError{Resource: "model", ID: "m1"}).Error())
	assert.Equal(t, "operation deploy requires approval",
		(&ApprovalRequiredError{Operation: "deploy"}).Error())
	assert.Contains(t,
		(&StateError{Resource: "job", ID: "j1", Status: "completed", Reason: "terminal"}).Error(),
		"completed")
}
