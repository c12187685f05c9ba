package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// ActivityRepo implements features.ActivitySource against PostgreSQL.
type ActivityRepo struct{ db *sql.DB }

// NewActivityRepo creates a Postgres-backed activity repository.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Ping checks the connection; used by the readiness probe.
func (r *ActivityRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ActivityRepo) CalendarEvents(ctx context.Context, subjectID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject_id, COALESCE(title,''), event_type, start_time, end_time, COALESCE(workload, 0)
		FROM calendar_events
		WHERE subject_id = $1 AND start_time BETWEEN $2 AND $3
		ORDER BY start_time
	`, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var out []domain.CalendarEvent
	for rows.Next() {
		var e domain.CalendarEvent
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Title, &e.Type, &e.StartTime, &e.EndTime, &e.Workload); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}
	return out, nil
}

func (r *ActivityRepo) EmailMessages(ctx context.Context, subjectID string, from, to time.Time) ([]domain.EmailMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject_id, direction, sent_at, urgent
		FROM email_messages
		WHERE subject_id = $1 AND sent_at BETWEEN $2 AND $3
		ORDER BY sent_at
	`, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list email messages: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailMessage
	for rows.Next() {
		var m domain.EmailMessage
		if err := rows.Scan(&m.ID, &m.SubjectID, &m.Direction, &m.SentAt, &m.Urgent); err != nil {
			return nil, fmt.Errorf("scan email message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email messages: %w", err)
	}
	return out, nil
}

func (r *ActivityRepo) SurveyResponses(ctx context.Context, subjectID string, from, to time.Time) ([]domain.SurveyResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject_id, submitted_at,
		       sleep_quality, exercise_frequency, nutrition_quality, social_interaction
		FROM survey_responses
		WHERE subject_id = $1 AND submitted_at BETWEEN $2 AND $3
		ORDER BY submitted_at
	`, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list survey responses: %w", err)
	}
	defer rows.Close()

	var out []domain.SurveyResponse
	for rows.Next() {
		var s domain.SurveyResponse
		var sleep, exercise, food, social sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.SubjectID, &s.SubmittedAt, &sleep, &exercise, &food, &social); err != nil {
			return nil, fmt.Errorf("scan survey response: %w", err)
		}
		s.SleepQuality = nullable(sleep)
		s.ExerciseFrequency = nullable(exercise)
		s.NutritionQuality = nullable(food)
		s.SocialInteraction = nullable(social)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate survey responses: %w", err)
	}
	return out, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
