package features

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// Extraction is the output of one Extract call.
type Extraction struct {
	Features   domain.FeatureVector
	DataPoints domain.DataPoints
}

// Extractor computes feature vectors from an ActivitySource.
type Extractor struct {
	source ActivitySource
}

// NewExtractor creates an extractor reading from source.
func NewExtractor(source ActivitySource) *Extractor {
	return &Extractor{source: source}
}

// Extract builds the feature vector for subjectID over [from, to].
// It does not check that the subject exists or that from precedes to; an
// empty history yields the baseline vector with zero data points.
func (e *Extractor) Extract(ctx context.Context, subjectID string, from, to time.Time) (*Extraction, error) {
	events, err := e.source.CalendarEvents(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: calendar events: %v", ErrExtractionFailed, err)
	}
	emails, err := e.source.EmailMessages(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: email messages: %v", ErrExtractionFailed, err)
	}
	surveys, err := e.source.SurveyResponses(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: survey responses: %v", ErrExtractionFailed, err)
	}

	fv, err := domain.NewFeatureVector(Compute(events, emails, surveys))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return &Extraction{
		Features: fv,
		DataPoints: domain.DataPoints{
			CalendarEvents:  len(events),
			EmailMessages:   len(emails),
			SurveyResponses: len(surveys),
			Total:           len(events) + len(emails) + len(surveys),
		},
	}, nil
}

// Compute derives feature values from already-loaded records. Features with
// no contributing record are omitted so the vector constructor fills their
// baseline.
func Compute(events []domain.CalendarEvent, emails []domain.EmailMessage, surveys []domain.SurveyResponse) map[domain.FeatureName]float64 {
	out := make(map[domain.FeatureName]float64, len(domain.FeatureNames))

	var (
		workloadSum     float64
		workloadN       int
		meetingHours    float64
		meetings        int
		afterHoursEvent int
	)
	for _, ev := range events {
		if ev.Workload > 0 {
			workloadSum += ev.Workload
			workloadN++
		}
		if ev.Type == domain.EventMeeting {
			meetingHours += ev.Duration().Hours()
			meetings++
		}
		if domain.IsAfterHours(ev.StartTime) {
			afterHoursEvent++
		}
	}

	var urgent, afterHoursEmail int
	for _, m := range emails {
		if m.Urgent {
			urgent++
		}
		if domain.IsAfterHours(m.SentAt) {
			afterHoursEmail++
		}
	}

	if workloadN > 0 {
		out[domain.FeatureWorkloadLevel] = workloadSum / float64(workloadN)
	}
	if len(events) > 0 {
		out[domain.FeatureTotalCalendarEvents] = float64(len(events))
	}
	if meetings > 0 {
		out[domain.FeatureMeetingHours] = meetingHours
	}
	if len(emails) > 0 {
		out[domain.FeatureEmailCount] = float64(len(emails))
	}
	if activity := len(events) + len(emails); activity > 0 {
		total := float64(activity)
		out[domain.FeatureStressLevel] = 1 + 9*float64(urgent+afterHoursEvent)/total
		out[domain.FeatureWorkLifeBalance] = 10 - 9*float64(afterHoursEvent+afterHoursEmail)/total
	}

	surveyMean(out, domain.FeatureSleepQuality, surveys, func(s domain.SurveyResponse) *float64 { return s.SleepQuality })
	surveyMean(out, domain.FeatureExerciseFrequency, surveys, func(s domain.SurveyResponse) *float64 { return s.ExerciseFrequency })
	surveyMean(out, domain.FeatureNutritionQuality, surveys, func(s domain.SurveyResponse) *float64 { return s.NutritionQuality })
	surveyMean(out, domain.FeatureSocialInteraction, surveys, func(s domain.SurveyResponse) *float64 { return s.SocialInteraction })

	return out
}

func surveyMean(out map[domain.FeatureName]float64, name domain.FeatureName, surveys []domain.SurveyResponse, pick func(domain.SurveyResponse) *float64) {
	var sum float64
	var n int
	for _, s := range surveys {
		if v := pick(s); v != nil {
			sum += *v
			n++
		}
	}
	if n > 0 {
		out[name] = sum / float64(n)
	}
}
