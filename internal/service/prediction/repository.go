package prediction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/features"
)

// Repository defines the data access contract for prediction results.
// Results are append-only. Implementations must be safe for concurrent use.
type Repository interface {
	// Create stores a new result. If the result carries an idempotency key
	// that was already stored, it returns ErrDuplicateKey and stores nothing.
	Create(ctx context.Context, p *domain.PredictionResult) error

	// GetByIdempotencyKey returns the result stored under key, or ErrNotFound.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.PredictionResult, error)

	// ListBySubject returns up to limit results for a subject, newest first.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.PredictionResult, error)
}

// Extractor computes the feature vector for a subject and time range.
type Extractor interface {
	Extract(ctx context.Context, subjectID string, from, to time.Time) (*features.Extraction, error)
}

// Composer builds the recommendation list for a classification.
type Composer interface {
	Compose(raw []string, fv domain.FeatureVector, level domain.RiskLevel) []domain.Recommendation
}

// IdempotencyRecord is a completed request remembered under its key.
type IdempotencyRecord struct {
	RequestHash string          `json:"request_hash"`
	Result      json.RawMessage `json:"result"`
	CompletedAt time.Time       `json:"completed_at"`
}

// IdempotencyStore remembers completed requests for replay.
type IdempotencyStore interface {
	// Get returns the record for key, or nil if none exists.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Complete stores the record for key.
	Complete(ctx context.Context, key string, rec IdempotencyRecord) error
}

// Observer is told about every persisted result. Observer failures are
// logged and never fail the request.
type Observer interface {
	Name() string
	PredictionCreated(ctx context.Context, p *domain.PredictionResult) error
}
