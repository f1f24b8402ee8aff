package core

import "github.com/mindtuner/mindtuner-go/pkg/errs"

// Sentinel errors, re-exported from package errs.
var (
	// ErrValidation indicates bad caller input.
	ErrValidation = errs.ErrValidation

	// ErrNotFound indicates that an operation targeted a missing identity.
	ErrNotFound = errs.ErrNotFound

	// ErrGenerationFailed indicates that the text generator failed.
	ErrGenerationFailed = errs.ErrGenerationFailed

	// ErrSynthesisDegraded marks a logged, absorbed speech synthesis failure.
	ErrSynthesisDegraded = errs.ErrSynthesisDegraded

	// ErrPersistence indicates that a record store call failed.
	ErrPersistence = errs.ErrPersistence

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errs.ErrInvalidConfig
)

// Typed errors, re-exported from package errs.
type (
	OpError               = errs.OpError
	ValidationError       = errs.ValidationError
	NotFoundError         = errs.NotFoundError
	GenerationFailedError = errs.GenerationFailedError
	PersistenceError      = errs.PersistenceError
)

// NewError creates an OpError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewError("NewClient", err)
//	}
func NewError(op string, err error) error {
	return errs.Wrap(op, err)
}
