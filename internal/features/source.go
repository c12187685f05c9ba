package features

import (
	"context"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// ActivitySource is the read contract for a subject's activity history.
// Each method returns records whose timestamp lies in [from, to], inclusive.
// Implementations must be safe for concurrent use.
type ActivitySource interface {
	CalendarEvents(ctx context.Context, subjectID string, from, to time.Time) ([]domain.CalendarEvent, error)
	EmailMessages(ctx context.Context, subjectID string, from, to time.Time) ([]domain.EmailMessage, error)
	SurveyResponses(ctx context.Context, subjectID string, from, to time.Time) ([]domain.SurveyResponse, error)
}
