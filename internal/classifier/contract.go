package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// LatestModel is the model version hint meaning "whatever is newest".
const LatestModel = "latest"

// Classifier produces a risk classification for a feature vector.
type Classifier interface {
	Classify(ctx context.Context, req Request) (*Classification, error)
}

// Catalog lists the models a classifier backend can serve.
type Catalog interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
	ModelInfo(ctx context.Context, version string) (*ModelInfo, error)
}

// Request is one classification call.
type Request struct {
	SubjectID    string
	Features     domain.FeatureVector
	ModelVersion string
}

// Classification is a validated classifier answer.
type Classification struct {
	RiskLevel       domain.RiskLevel
	RiskScore       float64
	Confidence      float64
	Factors         map[string]float64
	Recommendations []string
	ModelVersion    string
	PredictedAt     time.Time
}

// ModelInfo describes one model version.
type ModelInfo struct {
	Version            string             `json:"version"`
	Status             string             `json:"status"`
	Type               string             `json:"type,omitempty"`
	CreatedAt          string             `json:"created_at,omitempty"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics,omitempty"`
}

// PredictRequest is the wire request body.
type PredictRequest struct {
	UserID       string             `json:"user_id"`
	Features     map[string]float64 `json:"features"`
	ModelVersion string             `json:"model_version"`
}

// PredictResponse is the wire response body.
type PredictResponse struct {
	RiskLevel       string             `json:"risk_level"`
	RiskScore       *float64           `json:"risk_score"`
	Confidence      *float64           `json:"confidence"`
	Factors         map[string]float64 `json:"factors"`
	Recommendations []string           `json:"recommendations"`
	ModelVersion    string             `json:"model_version"`
	PredictionDate  string             `json:"prediction_date,omitempty"`
}

func newPredictRequest(req Request) PredictRequest {
	version := req.ModelVersion
	if version == "" {
		version = LatestModel
	}
	return PredictRequest{
		UserID:       req.SubjectID,
		Features:     req.Features.Map(),
		ModelVersion: version,
	}
}

// timestamp layouts seen from model servers; the naive ones are read as UTC.
var predictionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// decodeResponse parses and validates a response body. Every error it
// returns wraps ErrUnavailable.
func decodeResponse(body []byte) (*Classification, error) {
	var resp PredictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	level, err := domain.ParseRiskLevel(resp.RiskLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.RiskScore == nil || !unitInterval(*resp.RiskScore) {
		return nil, fmt.Errorf("%w: risk_score missing or outside [0,1]", ErrUnavailable)
	}
	if resp.Confidence == nil || !unitInterval(*resp.Confidence) {
		return nil, fmt.Errorf("%w: confidence missing or outside [0,1]", ErrUnavailable)
	}

	var predictedAt time.Time
	if resp.PredictionDate != "" {
		predictedAt, err = parsePredictionDate(resp.PredictionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return &Classification{
		RiskLevel:       level,
		RiskScore:       *resp.RiskScore,
		Confidence:      *resp.Confidence,
		Factors:         resp.Factors,
		Recommendations: resp.Recommendations,
		ModelVersion:    resp.ModelVersion,
		PredictedAt:     predictedAt,
	}, nil
}

func parsePredictionDate(s string) (time.Time, error) {
	for _, layout := range predictionDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized prediction_date %q", s)
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
