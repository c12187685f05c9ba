package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// =============================================================================
// ERROR SANITIZER
// Internal errors (database details, classifier bodies, stack traces) never
// reach API consumers. Pipeline failures carry a public reason; everything
// else is mapped to a generic message while the full error is logged.
// =============================================================================

var apiLog = logger.Component("api")

// Machine-readable error codes.
const (
	CodeInvalidInput          = "invalid_input"
	CodeIdempotencyConflict   = "idempotency_conflict"
	CodeRequestInProgress     = "request_in_progress"
	CodeExtractionFailed      = "extraction_failed"
	CodeClassifierUnavailable = "classifier_unavailable"
	CodeCompositionFailed     = "composition_failed"
	CodePersistenceFailed     = "persistence_failed"
	CodeModelNotFound         = "model_not_found"
	CodeInternal              = "internal_error"
)

// writeServiceError maps an error returned by the prediction service or the
// model catalog onto a status code and a sanitized body.
func writeServiceError(w http.ResponseWriter, err error) {
	var pe *prediction.PipelineError
	switch {
	case errors.Is(err, prediction.ErrInvalidRequest):
		httputil.ErrorWithCode(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	case errors.Is(err, prediction.ErrIdempotencyConflict):
		httputil.ErrorWithCode(w, http.StatusConflict, CodeIdempotencyConflict, err.Error())
	case errors.Is(err, prediction.ErrInProgress):
		httputil.ErrorWithCode(w, http.StatusConflict, CodeRequestInProgress, err.Error())
	case errors.Is(err, classifier.ErrModelNotFound):
		httputil.ErrorWithCode(w, http.StatusNotFound, CodeModelNotFound, "model version not found")
	case errors.As(err, &pe):
		status, code := pipelineStatus(pe.Kind)
		apiLog.Error("prediction pipeline failed", "stage", pe.Stage, "kind", pe.Kind, "status", status, "error", pe.Err)
		if pe.Kind.Retryable() {
			w.Header().Set("Retry-After", "5")
		}
		httputil.ErrorWithCode(w, status, code, pe.Error())
	case errors.Is(err, classifier.ErrUnavailable):
		apiLog.Error("classifier call failed", "error", err)
		httputil.ErrorWithCode(w, http.StatusServiceUnavailable, CodeClassifierUnavailable, "Risk classifier unavailable")
	default:
		apiLog.Error("request failed", "error", err)
		httputil.ErrorWithCode(w, http.StatusInternalServerError, CodeInternal, safeErrorMessage(http.StatusInternalServerError, err))
	}
}

func pipelineStatus(kind prediction.ErrorKind) (int, string) {
	switch kind {
	case prediction.KindExtraction:
		return http.StatusBadGateway, CodeExtractionFailed
	case prediction.KindClassification:
		return http.StatusServiceUnavailable, CodeClassifierUnavailable
	case prediction.KindComposition:
		return http.StatusInternalServerError, CodeCompositionFailed
	default:
		return http.StatusInternalServerError, CodePersistenceFailed
	}
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
// For 4xx errors the original message is returned; for 5xx a generic one.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "dynamodb") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "transaction") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	case strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access denied"):
		return "Access denied"

	default:
		return "An internal error occurred"
	}
}
