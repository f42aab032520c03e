package processor

import (
	"errors"
	"fmt"
)

// The engine's error taxonomy. Callers of Process receive either a
// RetryableError (re-invoke with the same inputs; the dedup key makes
// retries safe even after a partial success) or a ClassificationError
// (caller bug or corrupt upstream data; retrying blindly will not help).
// Duplicates are not errors at all: they surface as a successful Outcome
// with StatusDuplicate.

// RetryableError wraps a transient failure: indexer timeout, facts not
// yet indexed, storage timeout.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return fmt.Sprintf("retryable: %s", e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// ClassificationError wraps a terminal failure: unparseable address,
// unknown kind, missing proposal reference fields.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string { return fmt.Sprintf("classification: %s", e.Err) }
func (e *ClassificationError) Unwrap() error { return e.Err }

// Terminal wraps err as a non-retryable classification failure.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &ClassificationError{Err: err}
}

// IsTerminal reports whether err is a classification failure.
func IsTerminal(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
