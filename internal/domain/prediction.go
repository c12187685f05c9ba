package domain

import (
	"fmt"
	"time"
)

// RiskLevel is the ordered four-value burnout classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// ParseRiskLevel validates s against the four defined levels.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if _, ok := riskRank[l]; !ok {
		return "", fmt.Errorf("invalid risk level %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of the four defined levels.
func (l RiskLevel) Valid() bool {
	_, ok := riskRank[l]
	return ok
}

// AtLeast reports whether l is ordered at or above other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one actionable suggestion owned by a PredictionResult.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionItems []string `json:"action_items"`
	Resources   []string `json:"resources,omitempty"`
}

// DataPoints counts the source records behind an assessment.
type DataPoints struct {
	CalendarEvents  int `json:"calendar_events"`
	EmailMessages   int `json:"email_messages"`
	SurveyResponses int `json:"survey_responses"`
	Total           int `json:"total"`
}

// PredictionResult is one completed, immutable risk assessment.
type PredictionResult struct {
	ID              string             `json:"id"`
	SubjectID       string             `json:"subject_id"`
	Timestamp       time.Time          `json:"timestamp"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	RiskScore       float64            `json:"risk_score"`
	Confidence      float64            `json:"confidence"`
	Factors         map[string]float64 `json:"factors"`
	Features        FeatureVector      `json:"features"`
	Recommendations []Recommendation   `json:"recommendations"`
	DataPoints      DataPoints         `json:"data_points"`
	ModelVersion    string             `json:"model_version"`
	PeriodStart     time.Time          `json:"period_start"`
	PeriodEnd       time.Time          `json:"period_end"`
	IdempotencyKey  string             `json:"idempotency_key,omitempty"`

	// RequestHash fingerprints the inputs of a keyed request. It is stored
	// alongside the result and never sent to callers.
	RequestHash string `json:"-"`
}

// FactorNames are the feature slots echoed into every result's factor breakdown.
var FactorNames = []FeatureName{
	FeatureWorkloadLevel,
	FeatureStressLevel,
	FeatureWorkLifeBalance,
	FeatureSleepQuality,
}

// Validate checks the invariants every persisted result must satisfy.
func (p *PredictionResult) Validate() error {
	if p.SubjectID == "" {
		return fmt.Errorf("subject id is required")
	}
	if !p.RiskLevel.Valid() {
		return fmt.Errorf("invalid risk level %q", p.RiskLevel)
	}
	if p.RiskScore < 0 || p.RiskScore > 1 {
		return fmt.Errorf("risk score %v outside [0,1]", p.RiskScore)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", p.Confidence)
	}
	if len(p.Recommendations) == 0 {
		return fmt.Errorf("at least one recommendation is required")
	}
	return nil
}
