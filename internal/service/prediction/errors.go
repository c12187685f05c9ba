package prediction

import (
	"errors"
	"fmt"
)

// Sentinel errors for the prediction service layer.
var (
	ErrInvalidRequest      = errors.New("invalid prediction request")
	ErrNotFound            = errors.New("prediction not found")
	ErrDuplicateKey        = errors.New("idempotency key already used")
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	ErrInProgress          = errors.New("a request with this idempotency key is in progress")
)

// ErrorKind says which part of the pipeline failed.
type ErrorKind string

const (
	KindExtraction     ErrorKind = "extraction"
	KindClassification ErrorKind = "classification"
	KindComposition    ErrorKind = "composition"
	KindPersistence    ErrorKind = "persistence"
)

// Retryable reports whether a caller may reasonably retry the same request.
func (k ErrorKind) Retryable() bool {
	return k == KindClassification
}

// PipelineError is returned for any failure after a request is accepted.
// Reason is safe to show to callers; Err holds the internal cause.
type PipelineError struct {
	Stage  Stage
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("Failed to generate prediction: %s", e.Reason)
}

func (e *PipelineError) Unwrap() error { return e.Err }
