package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/burnout-monitor/internal/api"
)

const resultJSON = `{"id":"p-1","subject_id":"u-1","timestamp":"2026-10-16T09:30:00Z","risk_level":"high",
"risk_score":0.71,"confidence":0.8,"factors":{"workload_level":8.5,"sleep_quality":4},
"features":{},"recommendations":[{"priority":"high","category":"workload","title":"Reduce your workload","description":"Too much"}],
"data_points":{"calendar_events":3,"email_messages":2,"survey_responses":1,"total":6},"model_version":"heuristic-v1",
"period_start":"2026-10-02T00:00:00Z","period_end":"2026-10-16T23:59:59Z"}`

func run(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", srvURL, "--retries", "0"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	var gotBody api.CreatePredictionRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predictions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get(api.IdempotencyHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, resultJSON)
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "predict", "--subject", "u-1", "--start", "2026-10-02", "--end", "2026-10-16", "--sleep", "4")
	require.NoError(t, err)

	assert.Equal(t, "u-1", gotBody.SubjectID)
	assert.Equal(t, "2026-10-02", gotBody.StartDate)
	assert.Equal(t, "2026-10-16", gotBody.EndDate)
	require.NotNil(t, gotBody.SelfReported.SleepQuality)
	assert.Equal(t, 4.0, *gotBody.SelfReported.SleepQuality)
	assert.Nil(t, gotBody.SelfReported.SocialSupport)
	assert.Len(t, gotKey, 36, "a random uuid key is sent")

	assert.Contains(t, out, "high (score 0.71, confidence 0.80)")
	assert.Contains(t, out, "workload_level")
	assert.Contains(t, out, "[high] Reduce your workload: Too much")
}

func TestPredictCommand_JSONOutputAndKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(api.IdempotencyHeader)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, resultJSON)
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "-o", "json", "predict", "--subject", "u-1", "--idempotency-key", "retry-me")
	require.NoError(t, err)
	assert.Equal(t, "retry-me", gotKey)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "p-1", decoded["id"])
}

func TestPredictCommand_RetriesWithSameKey(t *testing.T) {
	var calls int32
	keys := make([]string, 0, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(api.IdempotencyHeader))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":"Failed to generate prediction: risk classifier unavailable","code":"classifier_unavailable"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, resultJSON)
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--server", srv.URL, "--retries", "1", "predict", "--subject", "u-1"})
	require.NoError(t, cmd.Execute())

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestPredictCommand_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"end_date must not be before start_date","code":"invalid_input"}`)
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "predict", "--subject", "u-1", "--start", "2026-10-10", "--end", "2026-10-01")
	require.Error(t, err)
	assert.Equal(t, "end_date must not be before start_date (HTTP 400, invalid_input)", err.Error())
}

func TestPredictCommand_RequiresSubject(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}

func TestPredictRequestDefaults(t *testing.T) {
	cmd := newPredictCmd(&rootOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--subject", "u-9", "--days", "7", "--satisfaction", "6"}))

	o := &predictOptions{}
	// Re-bind through the command so Changed() reflects the parsed flags.
	o.subject, _ = cmd.Flags().GetString("subject")
	o.days, _ = cmd.Flags().GetInt("days")
	o.satisfaction, _ = cmd.Flags().GetFloat64("satisfaction")

	body, err := o.request(cmd, time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", body.EndDate)
	assert.Equal(t, "2026-10-09", body.StartDate)
	require.NotNil(t, body.SelfReported.JobSatisfaction)
	assert.Equal(t, 6.0, *body.SelfReported.JobSatisfaction)
	assert.Nil(t, body.SelfReported.SleepQuality)
}

func TestHistoryCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", r.URL.Query().Get("subject_id"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"subject_id":"u-1","count":1,"predictions":[`+resultJSON+`]}`)
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "history", "--subject", "u-1", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "TIMESTAMP")
	assert.Contains(t, out, "2026-10-16 09:30")
	assert.Contains(t, out, "p-1")
}

func TestModelsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models":
			io.WriteString(w, `{"models":[{"version":"heuristic-v1","status":"available","performance_metrics":{"recall":0.78,"accuracy":0.85}}]}`)
		case "/api/models/latest":
			io.WriteString(w, `{"version":"heuristic-v1","status":"available"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"model version not found","code":"model_not_found"}`)
		}
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "accuracy=0.85 recall=0.78")

	out, err = run(t, srv.URL, "models", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "heuristic-v1")

	_, err = run(t, srv.URL, "models", "v0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model_not_found")
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "-o", "yaml", "models")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}
