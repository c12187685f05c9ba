package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// FeatureName identifies one slot of the classifier's input vector.
type FeatureName string

const (
	FeatureWorkloadLevel       FeatureName = "workload_level"
	FeatureStressLevel         FeatureName = "stress_level"
	FeatureWorkLifeBalance     FeatureName = "work_life_balance"
	FeatureSleepQuality        FeatureName = "sleep_quality"
	FeatureExerciseFrequency   FeatureName = "exercise_frequency"
	FeatureNutritionQuality    FeatureName = "nutrition_quality"
	FeatureSocialInteraction   FeatureName = "social_interaction"
	FeatureTotalCalendarEvents FeatureName = "total_calendar_events"
	FeatureMeetingHours        FeatureName = "meeting_hours"
	FeatureEmailCount          FeatureName = "email_count"
)

// FeatureNames is the fixed, ordered key set of every FeatureVector.
var FeatureNames = []FeatureName{
	FeatureWorkloadLevel,
	FeatureStressLevel,
	FeatureWorkLifeBalance,
	FeatureSleepQuality,
	FeatureExerciseFrequency,
	FeatureNutritionQuality,
	FeatureSocialInteraction,
	FeatureTotalCalendarEvents,
	FeatureMeetingHours,
	FeatureEmailCount,
}

// featureBaselines are the neutral values used when no record contributes to a
// feature. Scales are mid-points for 1-10 ratings and typical weekly volumes
// for counts, so an empty history never looks like an extreme input.
var featureBaselines = map[FeatureName]float64{
	FeatureWorkloadLevel:       5,
	FeatureStressLevel:         5,
	FeatureWorkLifeBalance:     5,
	FeatureSleepQuality:        5,
	FeatureExerciseFrequency:   5,
	FeatureNutritionQuality:    5,
	FeatureSocialInteraction:   5,
	FeatureTotalCalendarEvents: 20,
	FeatureMeetingHours:        10,
	FeatureEmailCount:          50,
}

// Baseline returns the neutral value for name and whether name is known.
func Baseline(name FeatureName) (float64, bool) {
	v, ok := featureBaselines[name]
	return v, ok
}

// IsKnownFeature reports whether name belongs to the fixed key set.
func IsKnownFeature(name FeatureName) bool {
	_, ok := featureBaselines[name]
	return ok
}

// FeatureVector is an immutable mapping over exactly FeatureNames.
// The zero value is not usable; build one with NewFeatureVector or BaselineVector.
type FeatureVector struct {
	values map[FeatureName]float64
}

// BaselineVector returns a vector where every feature holds its baseline.
func BaselineVector() FeatureVector {
	values := make(map[FeatureName]float64, len(featureBaselines))
	for k, v := range featureBaselines {
		values[k] = v
	}
	return FeatureVector{values: values}
}

// NewFeatureVector builds a vector from values. Missing features take their
// baseline; unknown keys and non-finite numbers are rejected.
func NewFeatureVector(values map[FeatureName]float64) (FeatureVector, error) {
	fv := BaselineVector()
	for k, v := range values {
		if !IsKnownFeature(k) {
			return FeatureVector{}, fmt.Errorf("unknown feature %q", k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FeatureVector{}, fmt.Errorf("feature %q is not a finite number", k)
		}
		fv.values[k] = v
	}
	return fv, nil
}

// Get returns the value of name. Unknown names return 0.
func (fv FeatureVector) Get(name FeatureName) float64 {
	return fv.values[name]
}

// IsZero reports whether the vector was never constructed.
func (fv FeatureVector) IsZero() bool {
	return fv.values == nil
}

// With returns a copy of fv where each override replaces the extracted value.
// Overrides are never blended with the original.
func (fv FeatureVector) With(overrides map[FeatureName]float64) (FeatureVector, error) {
	next := make(map[FeatureName]float64, len(fv.values))
	for k, v := range fv.values {
		next[k] = v
	}
	for k, v := range overrides {
		if !IsKnownFeature(k) {
			return FeatureVector{}, fmt.Errorf("unknown feature %q", k)
		}
		next[k] = v
	}
	return FeatureVector{values: next}, nil
}

// Map returns a copy of the values keyed by feature name.
func (fv FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(fv.values))
	for k, v := range fv.values {
		out[string(k)] = v
	}
	return out
}

// MarshalJSON encodes the vector as a flat JSON object.
func (fv FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(fv.Map())
}

// UnmarshalJSON decodes a flat JSON object, applying the same rules as NewFeatureVector.
func (fv *FeatureVector) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	values := make(map[FeatureName]float64, len(raw))
	for k, v := range raw {
		values[FeatureName(k)] = v
	}
	parsed, err := NewFeatureVector(values)
	if err != nil {
		return err
	}
	*fv = parsed
	return nil
}

// Names returns the vector's keys in sorted order.
func (fv FeatureVector) Names() []FeatureName {
	out := make([]FeatureName, 0, len(fv.values))
	for k := range fv.values {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
