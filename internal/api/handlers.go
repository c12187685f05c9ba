// Package api exposes the prediction pipeline over HTTP.
package api

import (
	"context"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// PredictionService is the subset of *prediction.Service used by the handlers.
type PredictionService interface {
	Predict(ctx context.Context, req prediction.Request) (*domain.PredictionResult, error)
	History(ctx context.Context, subjectID string, limit int) ([]domain.PredictionResult, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	predictions PredictionService
	models      classifier.Catalog
}

// NewHandlers creates handlers over the prediction service and model catalog.
// A nil catalog disables the /api/models routes.
func NewHandlers(predictions PredictionService, models classifier.Catalog) *Handlers {
	return &Handlers{predictions: predictions, models: models}
}
