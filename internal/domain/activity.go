package domain

import "time"

// EventType classifies a calendar entry.
type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventFocus    EventType = "focus"
	EventDeadline EventType = "deadline"
	EventPersonal EventType = "personal"
	EventOther    EventType = "other"
)

// CalendarEvent is one calendar entry owned by a subject.
// Workload is the 1-10 rating attached by the importer; 0 means unrated.
type CalendarEvent struct {
	ID        string    `json:"id" db:"id"`
	SubjectID string    `json:"subject_id" db:"subject_id"`
	Title     string    `json:"title" db:"title"`
	Type      EventType `json:"type" db:"event_type"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	Workload  float64   `json:"workload" db:"workload"`
}

// Duration returns the event length, never negative.
func (e CalendarEvent) Duration() time.Duration {
	if e.EndTime.Before(e.StartTime) {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// EmailMessage is one sent or received e-mail's metadata. Bodies are never stored.
type EmailMessage struct {
	ID        string    `json:"id" db:"id"`
	SubjectID string    `json:"subject_id" db:"subject_id"`
	Direction string    `json:"direction" db:"direction"` // "sent" or "received"
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
	Urgent    bool      `json:"urgent" db:"urgent"`
}

// SurveyResponse holds one self-reported wellbeing check-in. Each answer is on
// a 1-10 scale; nil means the question was skipped.
type SurveyResponse struct {
	ID                string    `json:"id" db:"id"`
	SubjectID         string    `json:"subject_id" db:"subject_id"`
	SubmittedAt       time.Time `json:"submitted_at" db:"submitted_at"`
	SleepQuality      *float64  `json:"sleep_quality,omitempty" db:"sleep_quality"`
	ExerciseFrequency *float64  `json:"exercise_frequency,omitempty" db:"exercise_frequency"`
	NutritionQuality  *float64  `json:"nutrition_quality,omitempty" db:"nutrition_quality"`
	SocialInteraction *float64  `json:"social_interaction,omitempty" db:"social_interaction"`
}

// IsAfterHours reports whether t falls outside 09:00-18:00 on a weekday (UTC).
func IsAfterHours(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	h := t.Hour()
	return h < 9 || h >= 18
}
