// Package refmodel is a deterministic reference burnout classifier that
// speaks the model-serving wire contract. It backs local development and
// end-to-end tests; production deployments point the classifier client at a
// trained model instead.
package refmodel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
)

// Version is the only model version this package serves.
const Version = "heuristic-v1"

// ErrUnknownVersion is returned for any version other than Version or "latest".
var ErrUnknownVersion = errors.New("model version not found")

// Level thresholds: score < 0.3 low, < 0.6 medium, < 0.8 high, else critical.
const (
	mediumThreshold   = 0.3
	highThreshold     = 0.6
	criticalThreshold = 0.8
	baseScore         = 0.25
)

// term is one weighted contribution: ((value - center) / span) clamped to
// [-1,1], times weight. Negative spans invert the direction.
type term struct {
	feature domain.FeatureName
	center  float64
	span    float64
	weight  float64
}

var terms = []term{
	{domain.FeatureWorkloadLevel, 5, 5, 0.25},
	{domain.FeatureStressLevel, 5, 5, 0.25},
	{domain.FeatureWorkLifeBalance, 5, -5, 0.15},
	{domain.FeatureSleepQuality, 5, -5, 0.10},
	{domain.FeatureMeetingHours, 10, 10, 0.10},
	{domain.FeatureEmailCount, 50, 50, 0.05},
	{domain.FeatureExerciseFrequency, 5, -5, 0.05},
	{domain.FeatureSocialInteraction, 5, -5, 0.05},
}

// Model scores feature vectors.
type Model struct {
	createdAt time.Time
	now       func() time.Time
}

// New returns a model whose catalog entry reports createdAt.
func New(createdAt time.Time) *Model {
	return &Model{createdAt: createdAt.UTC(), now: time.Now}
}

// Score maps features to a risk score in [0,1]. Missing features count as 0.
func Score(features map[string]float64) float64 {
	s := baseScore
	for _, t := range terms {
		v := (features[string(t.feature)] - t.center) / t.span
		s += math.Max(-1, math.Min(1, v)) * t.weight
	}
	return math.Max(0, math.Min(1, s))
}

// Level maps a score to the four-level scale.
func Level(score float64) domain.RiskLevel {
	switch {
	case score < mediumThreshold:
		return domain.RiskLow
	case score < highThreshold:
		return domain.RiskMedium
	case score < criticalThreshold:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// Flags are the contributing conditions that add targeted recommendations.
type Flags struct {
	ExcessiveHours      bool
	HighStress          bool
	HeavyWorkload       bool
	PoorWorkLifeBalance bool
}

// Analyze inspects features for contributing conditions.
func Analyze(features map[string]float64) Flags {
	return Flags{
		ExcessiveHours:      features[string(domain.FeatureMeetingHours)] > 25,
		HighStress:          features[string(domain.FeatureStressLevel)] > 7,
		HeavyWorkload:       features[string(domain.FeatureWorkloadLevel)] > 8,
		PoorWorkLifeBalance: features[string(domain.FeatureWorkLifeBalance)] < 3,
	}
}

var levelAdvice = map[domain.RiskLevel][]string{
	domain.RiskLow: {
		"Continue maintaining healthy work habits",
		"Regularly monitor your stress levels",
	},
	domain.RiskMedium: {
		"Consider reducing work hours if possible",
		"Take regular breaks throughout the day",
		"Practice stress management techniques",
	},
	domain.RiskHigh: {
		"Urgent: Reduce workload and work hours",
		"Schedule regular time off",
		"Consider speaking with your manager about workload",
		"Seek professional help if needed",
	},
	domain.RiskCritical: {
		"Immediate action required: Take time off",
		"Contact HR or management immediately",
		"Consider professional counseling",
		"Review and adjust work responsibilities",
	},
}

// Recommend returns the advice for level followed by flag-specific advice.
func Recommend(level domain.RiskLevel, flags Flags) []string {
	out := append([]string(nil), levelAdvice[level]...)
	if flags.ExcessiveHours {
		out = append(out, "Set strict work hour boundaries")
	}
	if flags.HighStress {
		out = append(out, "Implement daily stress reduction activities")
	}
	if flags.PoorWorkLifeBalance {
		out = append(out, "Create clear boundaries between work and personal time")
	}
	return out
}

// Resolve maps "latest" or "" to Version and rejects anything unknown.
func Resolve(version string) (string, error) {
	switch version {
	case "", classifier.LatestModel, Version:
		return Version, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
}

// Predict classifies one request.
func (m *Model) Predict(req classifier.PredictRequest) (*classifier.PredictResponse, error) {
	version, err := Resolve(req.ModelVersion)
	if err != nil {
		return nil, err
	}

	score := Score(req.Features)
	level := Level(score)
	confidence := math.Max(score, 1-score)

	factors := make(map[string]float64, len(domain.FactorNames))
	for _, name := range domain.FactorNames {
		factors[string(name)] = req.Features[string(name)]
	}

	return &classifier.PredictResponse{
		RiskLevel:       string(level),
		RiskScore:       &score,
		Confidence:      &confidence,
		Factors:         factors,
		Recommendations: Recommend(level, Analyze(req.Features)),
		ModelVersion:    version,
		PredictionDate:  m.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Info returns the catalog entry for version.
func (m *Model) Info(version string) (*classifier.ModelInfo, error) {
	v, err := Resolve(version)
	if err != nil {
		return nil, err
	}
	return &classifier.ModelInfo{
		Version:   v,
		Status:    "available",
		Type:      "burnout_risk_classifier",
		CreatedAt: m.createdAt.Format(time.RFC3339),
		PerformanceMetrics: map[string]float64{
			"accuracy":  0.85,
			"precision": 0.82,
			"recall":    0.78,
			"f1_score":  0.80,
		},
	}, nil
}

// Models lists the catalog.
func (m *Model) Models() []classifier.ModelInfo {
	info, _ := m.Info(Version)
	return []classifier.ModelInfo{*info}
}
