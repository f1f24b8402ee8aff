// Package errs defines the error taxonomy shared by every MindTuner component.
//
// It is a leaf package so that storage adapters, the rating ledger, the
// feedback analyzer and the orchestrator can all return the same typed errors
// without importing each other. The core package re-exports everything here.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of these, so
// callers can branch with errors.Is without caring about the concrete type.
var (
	// ErrValidation indicates bad caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that an operation targeted a missing identity.
	ErrNotFound = errors.New("not found")

	// ErrGenerationFailed indicates that the text generator was unavailable
	// or returned unusable content.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrSynthesisDegraded marks a speech synthesis failure. It is logged and
	// counted but never returned from a public operation.
	ErrSynthesisDegraded = errors.New("speech synthesis degraded")

	// ErrPersistence indicates that a record store call failed.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// OpError wraps errors with operation context.
//
// Example:
//
//	err := &OpError{Op: "Ledger.Create", Err: ErrPersistence}
//	// Error() returns: "mindtuner: Ledger.Create: persistence failed"
type OpError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns "mindtuner: <Op>: <Err>".
func (e *OpError) Error() string {
	return fmt.Sprintf("mindtuner: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap creates an OpError wrapping err. It returns nil if err is nil, so it
// can be used directly in return statements.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// ValidationError reports a caller input that failed validation.
type ValidationError struct {
	// Field names the offending input, e.g. "score" or "mood".
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports that an entity of Kind with ID does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, ErrNotFound)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// GenerationFailedError carries a short reason and the raw detail of a text
// generator failure.
type GenerationFailedError struct {
	// Reason is a short classification such as "timeout" or "empty response".
	Reason string

	// Detail is the raw error detail from the generator call, if any.
	Detail string
}

// NewGenerationFailedError creates a GenerationFailedError.
func NewGenerationFailedError(reason, detail string) *GenerationFailedError {
	return &GenerationFailedError{Reason: reason, Detail: detail}
}

func (e *GenerationFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrGenerationFailed, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrGenerationFailed, e.Reason, e.Detail)
}

// Unwrap returns ErrGenerationFailed.
func (e *GenerationFailedError) Unwrap() error { return ErrGenerationFailed }

// PersistenceError reports a failed record store call.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err as a PersistenceError. It returns nil if err
// is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

// Is reports whether target is ErrPersistence. The wrapped store error stays
// reachable through Unwrap.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Unwrap returns the underlying store error.
func (e *PersistenceError) Unwrap() error { return e.Err }
