package classifier

import "errors"

var (
	// ErrUnavailable covers transport errors, timeouts, non-2xx responses and
	// malformed bodies. It is retryable from the caller's point of view.
	ErrUnavailable = errors.New("risk classifier unavailable")

	// ErrModelNotFound is returned by the model catalog for unknown versions.
	ErrModelNotFound = errors.New("model version not found")
)
