package prediction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// SelfReported holds optional caller-supplied values that replace the
// extracted features. Values are by convention on a 1-10 scale; range checks
// belong to the caller.
type SelfReported struct {
	SleepQuality      *float64 `json:"sleep_quality,omitempty"`
	ExerciseFrequency *float64 `json:"exercise_frequency,omitempty"`
	NutritionQuality  *float64 `json:"nutrition_quality,omitempty"`
	SocialSupport     *float64 `json:"social_support,omitempty"`
	JobSatisfaction   *float64 `json:"job_satisfaction,omitempty"`
}

// Overrides maps the supplied values onto feature slots. Social support
// feeds social_interaction and job satisfaction feeds work_life_balance.
func (s SelfReported) Overrides() map[domain.FeatureName]float64 {
	out := make(map[domain.FeatureName]float64)
	set := func(name domain.FeatureName, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	set(domain.FeatureSleepQuality, s.SleepQuality)
	set(domain.FeatureExerciseFrequency, s.ExerciseFrequency)
	set(domain.FeatureNutritionQuality, s.NutritionQuality)
	set(domain.FeatureSocialInteraction, s.SocialSupport)
	set(domain.FeatureWorkLifeBalance, s.JobSatisfaction)
	return out
}

// Request is one prediction call.
type Request struct {
	SubjectID      string       `json:"subject_id"`
	From           time.Time    `json:"from"`
	To             time.Time    `json:"to"`
	SelfReported   SelfReported `json:"self_reported"`
	ModelVersion   string       `json:"model_version,omitempty"`
	IdempotencyKey string       `json:"-"`
}

func (r Request) validate() error {
	if strings.TrimSpace(r.SubjectID) == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidRequest)
	}
	for name, v := range r.SelfReported.Overrides() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: self-reported %s is not a finite number", ErrInvalidRequest, name)
		}
	}
	return nil
}

// hash fingerprints everything that affects the outcome, so a reused
// idempotency key with different inputs is detectable.
func (r Request) hash() string {
	payload, _ := json.Marshal(struct {
		SubjectID    string       `json:"subject_id"`
		From         string       `json:"from"`
		To           string       `json:"to"`
		SelfReported SelfReported `json:"self_reported"`
		ModelVersion string       `json:"model_version"`
	}{
		SubjectID:    r.SubjectID,
		From:         r.From.UTC().Format(time.RFC3339Nano),
		To:           r.To.UTC().Format(time.RFC3339Nano),
		SelfReported: r.SelfReported,
		ModelVersion: r.ModelVersion,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
