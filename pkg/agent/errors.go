package agent

import (
	"context"
	"errors"
	"fmt"

	"ai-research-be/internal/entity"
)

// ValidationError rejects malformed input before a job is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RetrievalError marks a single section's retrieval failure. It is absorbed
// per section (the job continues with zero evidence for that section).
type RetrievalError struct {
	Section string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for section %q: %v", e.Section, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// GenerationError marks a model call that exhausted its retries. It aborts
// the current stage and the job.
type GenerationError struct {
	Stage    entity.JobStage
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed in stage %s after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// CancelledError marks a cooperative cancellation observed at a yield point.
// Terminal, but not a failure. Unwraps to context.Canceled so callers can
// keep using errors.Is.
type CancelledError struct {
	Stage entity.JobStage
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("job cancelled during stage %s", e.Stage)
}

func (e *CancelledError) Unwrap() error {
	return context.Canceled
}

// IsCancelled reports whether err represents a cancellation rather than a
// genuine failure.
func IsCancelled(err error) bool {
	var ce *CancelledError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// VerificationInconclusive explains a zero-score verification. It is a valid
// terminal outcome, never a pipeline fault.
type VerificationInconclusive struct {
	Reason string
}

func (e *VerificationInconclusive) Error() string {
	return fmt.Sprintf("verification inconclusive: %s", e.Reason)
}
