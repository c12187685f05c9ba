package refmodel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
)

// The reference server must be consumable by the production HTTP client.
func TestHandler_WithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(Handler(New(time.Now())))
	defer srv.Close()

	client := classifier.NewHTTPClient(classifier.HTTPConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	ctx := context.Background()

	fv, err := domain.NewFeatureVector(map[domain.FeatureName]float64{
		domain.FeatureWorkloadLevel: 9,
		domain.FeatureStressLevel:   9,
	})
	require.NoError(t, err)

	cl, err := client.Classify(ctx, classifier.Request{SubjectID: "u-1", Features: fv})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, cl.RiskLevel)
	assert.InDelta(t, 0.65, cl.RiskScore, 1e-9)
	assert.Equal(t, Version, cl.ModelVersion)
	assert.False(t, cl.PredictedAt.IsZero())
	assert.Contains(t, cl.Recommendations, "Implement daily stress reduction activities")

	models, err := client.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)

	info, err := client.ModelInfo(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, Version, info.Version)

	_, err = client.ModelInfo(ctx, "v0")
	assert.ErrorIs(t, err, classifier.ErrModelNotFound)
}

func TestHandler_BadRequests(t *testing.T) {
	h := Handler(New(time.Now()))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"missing user", `{"features":{}}`, http.StatusBadRequest},
		{"unknown field", `{"user_id":"u","extra":1}`, http.StatusBadRequest},
		{"unknown version", `{"user_id":"u","features":{},"model_version":"v7"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(New(time.Now())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), Version)
}
