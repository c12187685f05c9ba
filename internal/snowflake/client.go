package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/burnout-monitor/internal/domain"
)

// Warehouse reads subject activity from the Snowflake data warehouse.
// It implements features.ActivitySource.
type Warehouse struct {
	db *sql.DB
}

// Open connects to Snowflake with cfg.
func Open(cfg Config) (*Warehouse, error) {
	db, err := sql.Open("snowflake", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewWarehouse(db), nil
}

// NewWarehouse wraps an existing handle.
func NewWarehouse(db *sql.DB) *Warehouse {
	return &Warehouse{db: db}
}

// Close closes the database connection
func (w *Warehouse) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// CalendarEvents returns the subject's events starting within [from, to].
func (w *Warehouse) CalendarEvents(ctx context.Context, subjectID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	query := `
		SELECT EVENT_ID, SUBJECT_ID, COALESCE(TITLE, ''), EVENT_TYPE, START_TIME, END_TIME, COALESCE(WORKLOAD, 0)
		FROM CALENDAR_EVENTS
		WHERE SUBJECT_ID = ? AND START_TIME BETWEEN ? AND ?
		ORDER BY START_TIME
	`
	rows, err := w.db.QueryContext(ctx, query, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var result []domain.CalendarEvent
	for rows.Next() {
		var e domain.CalendarEvent
		var eventType string
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Title, &eventType, &e.StartTime, &e.EndTime, &e.Workload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Type = normalizeEventType(eventType)
		result = append(result, e)
	}
	return result, rows.Err()
}

// EmailMessages returns the subject's e-mail metadata sent within [from, to].
func (w *Warehouse) EmailMessages(ctx context.Context, subjectID string, from, to time.Time) ([]domain.EmailMessage, error) {
	query := `
		SELECT MESSAGE_ID, SUBJECT_ID, DIRECTION, SENT_AT, COALESCE(IS_URGENT, FALSE)
		FROM EMAIL_MESSAGES
		WHERE SUBJECT_ID = ? AND SENT_AT BETWEEN ? AND ?
		ORDER BY SENT_AT
	`
	rows, err := w.db.QueryContext(ctx, query, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query email messages: %w", err)
	}
	defer rows.Close()

	var result []domain.EmailMessage
	for rows.Next() {
		var m domain.EmailMessage
		if err := rows.Scan(&m.ID, &m.SubjectID, &m.Direction, &m.SentAt, &m.Urgent); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// SurveyResponses returns the subject's wellbeing check-ins submitted within [from, to].
func (w *Warehouse) SurveyResponses(ctx context.Context, subjectID string, from, to time.Time) ([]domain.SurveyResponse, error) {
	query := `
		SELECT RESPONSE_ID, SUBJECT_ID, SUBMITTED_AT,
			SLEEP_QUALITY, EXERCISE_FREQUENCY, NUTRITION_QUALITY, SOCIAL_INTERACTION
		FROM SURVEY_RESPONSES
		WHERE SUBJECT_ID = ? AND SUBMITTED_AT BETWEEN ? AND ?
		ORDER BY SUBMITTED_AT
	`
	rows, err := w.db.QueryContext(ctx, query, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query survey responses: %w", err)
	}
	defer rows.Close()

	var result []domain.SurveyResponse
	for rows.Next() {
		var s domain.SurveyResponse
		var answers [4]sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.SubjectID, &s.SubmittedAt, &answers[0], &answers[1], &answers[2], &answers[3]); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.SleepQuality = floatPtr(answers[0])
		s.ExerciseFrequency = floatPtr(answers[1])
		s.NutritionQuality = floatPtr(answers[2])
		s.SocialInteraction = floatPtr(answers[3])
		result = append(result, s)
	}
	return result, rows.Err()
}

// normalizeEventType maps warehouse labels (upper-case, free text) onto the
// known event types.
func normalizeEventType(s string) domain.EventType {
	switch domain.EventType(strings.ToLower(strings.TrimSpace(s))) {
	case domain.EventMeeting:
		return domain.EventMeeting
	case domain.EventFocus:
		return domain.EventFocus
	case domain.EventDeadline:
		return domain.EventDeadline
	case domain.EventPersonal:
		return domain.EventPersonal
	}
	return domain.EventOther
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
