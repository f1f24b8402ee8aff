package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindtuner/mindtuner-go/pkg/errs"
)

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "ErrValidation", err: errs.ErrValidation, expected: "validation failed"},
		{name: "ErrNotFound", err: errs.ErrNotFound, expected: "not found"},
		{name: "ErrGenerationFailed", err: errs.ErrGenerationFailed, expected: "generation failed"},
		{name: "ErrSynthesisDegraded", err: errs.ErrSynthesisDegraded, expected: "speech synthesis degraded"},
		{name: "ErrPersistence", err: errs.ErrPersistence, expected: "persistence failed"},
		{name: "ErrInvalidConfig", err: errs.ErrInvalidConfig, expected: "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", errs.NewValidationError("score", "must be between 1 and 5"), errs.ErrValidation},
		{"not found", errs.NewNotFoundError("rating", "42"), errs.ErrNotFound},
		{"generation", errs.NewGenerationFailedError("timeout", "context deadline exceeded"), errs.ErrGenerationFailed},
		{"persistence", errs.NewPersistenceError("Upsert", errors.New("disk full")), errs.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := errs.Wrap("Op", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestValidationErrorAs(t *testing.T) {
	err := errs.Wrap("Ledger.Create", errs.NewValidationError("score", "must be between 1 and 5"))

	var target *errs.ValidationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "score", target.Field)
	assert.Contains(t, err.Error(), "mindtuner: Ledger.Create")
}

func TestPersistenceErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := errs.NewPersistenceError("Query", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, errs.ErrPersistence)
	assert.Nil(t, errs.NewPersistenceError("Query", nil))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errs.Wrap("Op", nil))
}

func TestGenerationFailedMessage(t *testing.T) {
	assert.Equal(t, "generation failed: empty response", errs.NewGenerationFailedError("empty response", "").Error())
	assert.Equal(t, "generation failed: timeout: deadline", errs.NewGenerationFailedError("timeout", "deadline").Error())
}
