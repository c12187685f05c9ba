package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// IdempotencyHeader carries the caller's idempotency key.
const IdempotencyHeader = "Idempotency-Key"

const (
	minSelfReported = 1.0
	maxSelfReported = 10.0
	maxKeyLength    = 128
)

// CreatePredictionRequest is the body of POST /api/predictions.
type CreatePredictionRequest struct {
	SubjectID    string                  `json:"subject_id"`
	StartDate    string                  `json:"start_date"`
	EndDate      string                  `json:"end_date"`
	SelfReported prediction.SelfReported `json:"self_reported"`
	ModelVersion string                  `json:"model_version,omitempty"`
}

// HistoryResponse is the body of GET /api/predictions.
type HistoryResponse struct {
	SubjectID   string                    `json:"subject_id"`
	Count       int                       `json:"count"`
	Predictions []domain.PredictionResult `json:"predictions"`
}

// CreatePrediction runs the pipeline for one subject and date range.
//
//	POST /api/predictions
func (h *Handlers) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	var body CreatePredictionRequest
	if !httputil.Decode(w, r, &body) {
		return
	}

	req, err := body.toServiceRequest()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(key) > maxKeyLength {
		httputil.BadRequest(w, fmt.Sprintf("%s must be at most %d characters", IdempotencyHeader, maxKeyLength))
		return
	}
	req.IdempotencyKey = key

	result, err := h.predictions.Predict(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, result)
}

// ListPredictions returns a subject's prediction history, newest first.
//
//	GET /api/predictions?subject_id=...&limit=...
func (h *Handlers) ListPredictions(w http.ResponseWriter, r *http.Request) {
	subjectID := strings.TrimSpace(r.URL.Query().Get("subject_id"))
	if subjectID == "" {
		httputil.BadRequest(w, "subject_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.predictions.History(r.Context(), subjectID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []domain.PredictionResult{}
	}
	httputil.OK(w, HistoryResponse{SubjectID: subjectID, Count: len(results), Predictions: results})
}

func (b CreatePredictionRequest) toServiceRequest() (prediction.Request, error) {
	subjectID := strings.TrimSpace(b.SubjectID)
	if subjectID == "" {
		return prediction.Request{}, fmt.Errorf("subject_id is required")
	}
	from, err := parseDate(b.StartDate, false)
	if err != nil {
		return prediction.Request{}, fmt.Errorf("start_date: %v", err)
	}
	to, err := parseDate(b.EndDate, true)
	if err != nil {
		return prediction.Request{}, fmt.Errorf("end_date: %v", err)
	}
	if to.Before(from) {
		return prediction.Request{}, fmt.Errorf("end_date must not be before start_date")
	}
	if err := validateSelfReported(b.SelfReported); err != nil {
		return prediction.Request{}, err
	}
	return prediction.Request{
		SubjectID:    subjectID,
		From:         from,
		To:           to,
		SelfReported: b.SelfReported,
		ModelVersion: strings.TrimSpace(b.ModelVersion),
	}, nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A date-only end bound covers the
// whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func validateSelfReported(s prediction.SelfReported) error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"sleep_quality", s.SleepQuality},
		{"exercise_frequency", s.ExerciseFrequency},
		{"nutrition_quality", s.NutritionQuality},
		{"social_support", s.SocialSupport},
		{"job_satisfaction", s.JobSatisfaction},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if *f.v < minSelfReported || *f.v > maxSelfReported {
			return fmt.Errorf("self_reported.%s must be between %g and %g", f.name, minSelfReported, maxSelfReported)
		}
	}
	return nil
}
