package tests

// User Story Tests for the Burnout Risk Pipeline
// These tests validate end-to-end behavior for the critical assessment journeys

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/burnout-monitor/internal/api"
	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/events"
	"github.com/ignite/burnout-monitor/internal/features"
	"github.com/ignite/burnout-monitor/internal/idempotency"
	"github.com/ignite/burnout-monitor/internal/pkg/distlock"
	"github.com/ignite/burnout-monitor/internal/recommend"
	"github.com/ignite/burnout-monitor/internal/refmodel"
	"github.com/ignite/burnout-monitor/internal/repository/postgres"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
	"github.com/ignite/burnout-monitor/internal/ses"
	"github.com/ignite/burnout-monitor/internal/storage"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// TestContext holds shared test infrastructure
type TestContext struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	Redis  *redis.Client
	MiniR  *miniredis.Miniredis
	Model  *httptest.Server
	Store  *storage.MemoryStore
	Ctx    context.Context
	Cancel context.CancelFunc
}

func setupTestContext(t *testing.T) *TestContext {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	model := httptest.NewServer(refmodel.Handler(refmodel.New(time.Now())))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	return &TestContext{
		DB:     db,
		Mock:   mock,
		Redis:  redisClient,
		MiniR:  mr,
		Model:  model,
		Store:  storage.NewMemoryStore(),
		Ctx:    ctx,
		Cancel: cancel,
	}
}

func (tc *TestContext) Cleanup() {
	tc.Cancel()
	tc.Model.Close()
	tc.DB.Close()
	tc.Redis.Close()
	tc.MiniR.Close()
}

type pipelineOptions struct {
	source    features.ActivitySource
	observers []prediction.Observer
	onStage   prediction.StageHook
	clock     func() time.Time
}

// newService wires the full pipeline. Activity is read from the sqlmock
// database unless another source is given.
func (tc *TestContext) newService(t *testing.T, opts pipelineOptions) *prediction.Service {
	t.Helper()

	if opts.source == nil {
		opts.source = postgres.NewActivityRepo(tc.DB)
	}
	composer, err := recommend.NewComposer(recommend.Options{})
	require.NoError(t, err)

	var svcOpts []prediction.Option
	if opts.onStage != nil {
		svcOpts = append(svcOpts, prediction.WithStageHook(opts.onStage))
	}
	if opts.clock != nil {
		svcOpts = append(svcOpts, prediction.WithClock(opts.clock))
	}

	return prediction.NewService(prediction.Deps{
		Extractor:   features.NewExtractor(opts.source),
		Classifier:  classifier.NewHTTPClient(classifier.HTTPConfig{BaseURL: tc.Model.URL, Timeout: 2 * time.Second}),
		Composer:    composer,
		Repo:        tc.Store,
		Idempotency: idempotency.NewRedisStore(tc.Redis, time.Hour),
		Locks:       distlock.NewFactory(tc.Redis, nil, time.Minute),
		Observers:   opts.observers,
	}, svcOpts...)
}

var (
	calendarColumns = []string{"id", "subject_id", "title", "event_type", "start_time", "end_time", "workload"}
	emailColumns    = []string{"id", "subject_id", "direction", "sent_at", "urgent"}
	surveyColumns   = []string{"id", "subject_id", "submitted_at", "sleep_quality", "exercise_frequency", "nutrition_quality", "social_interaction"}
)

// week starts on Monday 2026-10-05.
var week = time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return week.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func weekRequest(subject string) prediction.Request {
	return prediction.Request{
		SubjectID: subject,
		From:      week,
		To:        week.AddDate(0, 0, 5).Add(-time.Nanosecond),
	}
}

func ptr(v float64) *float64 { return &v }

// expectOverloadedWeek queues the activity of an employee who worked four
// heavy days with three late sessions and urgent mail every night.
func (tc *TestContext) expectOverloadedWeek(subject string) {
	tc.Mock.ExpectQuery(`FROM calendar_events`).
		WithArgs(subject, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(calendarColumns).
			AddRow("ev-1", subject, "Quarterly planning", "meeting", at(0, 10), at(0, 14), 9.0).
			AddRow("ev-2", subject, "Vendor escalation", "meeting", at(0, 19), at(0, 22), 9.0).
			AddRow("ev-3", subject, "Release cut", "deadline", at(1, 20), at(1, 23), 10.0).
			AddRow("ev-4", subject, "Incident review prep", "focus", at(2, 21), at(2, 23), 10.0))
	tc.Mock.ExpectQuery(`FROM email_messages`).
		WithArgs(subject, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(emailColumns).
			AddRow("m-1", subject, "received", at(0, 22), true).
			AddRow("m-2", subject, "sent", at(1, 22), true).
			AddRow("m-3", subject, "received", at(2, 22), true).
			AddRow("m-4", subject, "sent", at(3, 22), true))
	tc.Mock.ExpectQuery(`FROM survey_responses`).
		WithArgs(subject, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(surveyColumns).
			AddRow("s-1", subject, at(4, 12), 3.0, 2.0, 4.0, 3.0))
}

// expectSurveyOnly queues a subject with no calendar or mail activity and a
// single check-in reporting only sleep quality.
func (tc *TestContext) expectSurveyOnly(subject string, sleep float64) {
	tc.Mock.ExpectQuery(`FROM calendar_events`).
		WillReturnRows(sqlmock.NewRows(calendarColumns))
	tc.Mock.ExpectQuery(`FROM email_messages`).
		WillReturnRows(sqlmock.NewRows(emailColumns))
	tc.Mock.ExpectQuery(`FROM survey_responses`).
		WillReturnRows(sqlmock.NewRows(surveyColumns).
			AddRow("s-9", subject, at(2, 9), sleep, nil, nil, nil))
}

type capturedAlerts struct {
	mu     sync.Mutex
	inputs []*sesv2.SendEmailInput
}

func (c *capturedAlerts) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String(fmt.Sprintf("msg-%d", len(c.inputs)))}, nil
}

type capturedEvents struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (c *capturedEvents) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *capturedEvents) Close() error { return nil }

// countingSource returns an empty history and counts extraction runs.
type countingSource struct {
	calls atomic.Int32
	delay time.Duration
}

func (s *countingSource) CalendarEvents(context.Context, string, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return nil, nil
}

func (s *countingSource) EmailMessages(context.Context, string, time.Time, time.Time) ([]domain.EmailMessage, error) {
	return nil, nil
}

func (s *countingSource) SurveyResponses(context.Context, string, time.Time, time.Time) ([]domain.SurveyResponse, error) {
	return nil, nil
}

// =============================================================================
// US-001: Overloaded Employee Receives a High-Risk Report
// =============================================================================

func TestUS001_OverloadedEmployeeHighRisk(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := tc.newService(t, pipelineOptions{})

	// Given: a week of heavy, late and urgent activity
	tc.expectOverloadedWeek("emp-7")

	// When: the employee's risk is assessed
	result, err := svc.Predict(tc.Ctx, weekRequest("emp-7"))
	require.NoError(t, err)
	require.NoError(t, tc.Mock.ExpectationsWereMet())

	t.Run("Criterion1_FeaturesReflectActivity", func(t *testing.T) {
		assert.Equal(t, 9.5, result.Features.Get(domain.FeatureWorkloadLevel))
		assert.Equal(t, 8.875, result.Features.Get(domain.FeatureStressLevel))
		assert.Equal(t, 2.125, result.Features.Get(domain.FeatureWorkLifeBalance))
		assert.Equal(t, 7.0, result.Features.Get(domain.FeatureMeetingHours))
		assert.Equal(t, 4.0, result.Features.Get(domain.FeatureTotalCalendarEvents))
		assert.Equal(t, 4.0, result.Features.Get(domain.FeatureEmailCount))
		assert.Equal(t, 3.0, result.Features.Get(domain.FeatureSleepQuality))
		assert.Equal(t, domain.DataPoints{CalendarEvents: 4, EmailMessages: 4, SurveyResponses: 1, Total: 9}, result.DataPoints)
	})

	t.Run("Criterion2_ClassifiedAsHighRisk", func(t *testing.T) {
		assert.Equal(t, domain.RiskHigh, result.RiskLevel)
		assert.InDelta(t, 0.769, result.RiskScore, 1e-9)
		assert.InDelta(t, 0.769, result.Confidence, 1e-9)
		assert.Equal(t, refmodel.Version, result.ModelVersion)
		assert.Equal(t, 9.5, result.Factors["workload_level"])
		assert.Equal(t, 3.0, result.Factors["sleep_quality"])
	})

	t.Run("Criterion3_RecommendationsIncludeWorkloadAction", func(t *testing.T) {
		require.Len(t, result.Recommendations, 7)
		for _, r := range result.Recommendations {
			assert.Equal(t, domain.PriorityHigh, r.Priority, r.Title)
			assert.NotEmpty(t, r.ActionItems)
		}
		assert.Equal(t, "Urgent: Reduce workload and work hours", result.Recommendations[0].Description)
		assert.Equal(t, "Implement daily stress reduction activities", result.Recommendations[4].Description)
		assert.Equal(t, "Create clear boundaries between work and personal time", result.Recommendations[5].Description)

		workload := result.Recommendations[6]
		assert.Equal(t, "workload", workload.Category)
		assert.Contains(t, workload.Description, "9.5 out of 10")
		assert.Contains(t, workload.Description, "high burnout risk")
		assert.Equal(t, []string{recommend.DefaultWorkloadResource}, workload.Resources)
	})

	t.Run("Criterion4_ResultPersistedInHistory", func(t *testing.T) {
		history, err := svc.History(tc.Ctx, "emp-7", 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, result.ID, history[0].ID)
		assert.Equal(t, week, history[0].PeriodStart)
	})
}

// =============================================================================
// US-002: Retried Requests Never Produce Duplicate Assessments
// =============================================================================

func TestUS002_IdempotentRetries(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	t.Run("Criterion1_RetryReplaysStoredResult", func(t *testing.T) {
		svc := tc.newService(t, pipelineOptions{})

		// Given: one completed assessment under a client key
		tc.expectOverloadedWeek("emp-7")
		req := weekRequest("emp-7")
		req.IdempotencyKey = "weekly-emp-7-2026-41"
		first, err := svc.Predict(tc.Ctx, req)
		require.NoError(t, err)
		require.NoError(t, tc.Mock.ExpectationsWereMet())

		// When: the client retries the same request
		second, err := svc.Predict(tc.Ctx, req)

		// Then: the stored result comes back without touching activity data
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.RiskScore, second.RiskScore)
		_, perr := uuid.Parse(first.ID)
		assert.NoError(t, perr)
		assert.NoError(t, tc.Mock.ExpectationsWereMet())

		stored, err := tc.Store.ListBySubject(tc.Ctx, "emp-7", 10)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("Criterion2_ChangedInputsWithSameKeyRejected", func(t *testing.T) {
		svc := tc.newService(t, pipelineOptions{})

		req := weekRequest("emp-7")
		req.IdempotencyKey = "weekly-emp-7-2026-41"
		req.SelfReported.SleepQuality = ptr(6)

		_, err := svc.Predict(tc.Ctx, req)
		assert.ErrorIs(t, err, prediction.ErrIdempotencyConflict)
	})

	t.Run("Criterion3_ConcurrentDuplicatesStoreOneResult", func(t *testing.T) {
		source := &countingSource{delay: 50 * time.Millisecond}
		svc := tc.newService(t, pipelineOptions{source: source})

		req := weekRequest("emp-8")
		req.IdempotencyKey = "burst-emp-8"

		const callers = 8
		var (
			wg         sync.WaitGroup
			succeeded  atomic.Int32
			inProgress atomic.Int32
			ids        sync.Map
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := svc.Predict(tc.Ctx, req)
				switch {
				case err == nil:
					succeeded.Add(1)
					ids.Store(result.ID, true)
				case errors.Is(err, prediction.ErrInProgress):
					inProgress.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), source.calls.Load(), "pipeline must run once")
		assert.GreaterOrEqual(t, succeeded.Load(), int32(1))
		assert.Equal(t, int32(callers), succeeded.Load()+inProgress.Load())

		distinct := 0
		ids.Range(func(_, _ any) bool {
			distinct++
			return true
		})
		assert.Equal(t, 1, distinct)

		stored, err := tc.Store.ListBySubject(tc.Ctx, "emp-8", 10)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

// =============================================================================
// US-003: Classifier Outage Is Reported as Retryable
// =============================================================================

func TestUS003_ClassifierOutage(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	var stages []prediction.Stage
	alerts := &capturedAlerts{}
	svc := tc.newService(t, pipelineOptions{
		onStage:   func(_ string, st prediction.Stage) { stages = append(stages, st) },
		observers: []prediction.Observer{ses.NewAlertNotifier(alerts, "alerts@example.com", []string{"wellbeing@example.com"}, domain.RiskLow)},
	})

	// Given: the classifier service is down
	tc.Model.Close()
	tc.expectOverloadedWeek("emp-7")

	// When: an assessment is requested
	result, err := svc.Predict(tc.Ctx, weekRequest("emp-7"))

	t.Run("Criterion1_FailsAtClassificationStage", func(t *testing.T) {
		assert.Nil(t, result)
		var pe *prediction.PipelineError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, prediction.KindClassification, pe.Kind)
		assert.Equal(t, prediction.StageClassifying, pe.Stage)
		assert.True(t, pe.Kind.Retryable())
		assert.True(t, strings.HasPrefix(err.Error(), "Failed to generate prediction"))
	})

	t.Run("Criterion2_StagesStopAtFailure", func(t *testing.T) {
		assert.Equal(t, []prediction.Stage{
			prediction.StageExtracting,
			prediction.StageOverriding,
			prediction.StageClassifying,
			prediction.StageFailed,
		}, stages)
	})

	t.Run("Criterion3_NothingStoredOrAnnounced", func(t *testing.T) {
		stored, err := tc.Store.ListBySubject(tc.Ctx, "emp-7", 10)
		require.NoError(t, err)
		assert.Empty(t, stored)
		assert.Empty(t, alerts.inputs)
		assert.NoError(t, tc.Mock.ExpectationsWereMet())
	})
}

// =============================================================================
// US-004: Self-Reported Values Override Extracted Signals
// =============================================================================

func TestUS004_SelfReportedOverrides(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := tc.newService(t, pipelineOptions{})

	// Given: a check-in reporting good sleep
	tc.expectSurveyOnly("emp-3", 8)

	// When: the employee reports poor sleep and high job satisfaction today
	req := weekRequest("emp-3")
	req.SelfReported = prediction.SelfReported{SleepQuality: ptr(2), JobSatisfaction: ptr(9)}
	result, err := svc.Predict(tc.Ctx, req)
	require.NoError(t, err)
	require.NoError(t, tc.Mock.ExpectationsWereMet())

	t.Run("Criterion1_OverridesReplaceExtractedValues", func(t *testing.T) {
		assert.Equal(t, 2.0, result.Features.Get(domain.FeatureSleepQuality))
		assert.Equal(t, 9.0, result.Features.Get(domain.FeatureWorkLifeBalance))
		assert.Equal(t, 2.0, result.Factors["sleep_quality"])
	})

	t.Run("Criterion2_UntouchedFeaturesKeepBaselines", func(t *testing.T) {
		for _, name := range []domain.FeatureName{
			domain.FeatureWorkloadLevel,
			domain.FeatureStressLevel,
			domain.FeatureExerciseFrequency,
			domain.FeatureSocialInteraction,
			domain.FeatureMeetingHours,
		} {
			want, _ := domain.Baseline(name)
			assert.Equal(t, want, result.Features.Get(name), string(name))
		}
		assert.Equal(t, domain.DataPoints{SurveyResponses: 1, Total: 1}, result.DataPoints)
	})

	t.Run("Criterion3_LowRiskWithoutWorkloadAction", func(t *testing.T) {
		assert.Equal(t, domain.RiskLow, result.RiskLevel)
		assert.InDelta(t, 0.19, result.RiskScore, 1e-9)
		require.Len(t, result.Recommendations, 2)
		for _, r := range result.Recommendations {
			assert.Equal(t, "general", r.Category)
		}
	})
}

// =============================================================================
// US-005: Critical Risk Alerts Wellbeing Staff
// =============================================================================

func TestUS005_CriticalRiskAlerts(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	alerts := &capturedAlerts{}
	stream := &capturedEvents{}
	svc := tc.newService(t, pipelineOptions{
		observers: []prediction.Observer{
			ses.NewAlertNotifier(alerts, "alerts@example.com", []string{"wellbeing@example.com"}, domain.RiskHigh),
			events.NewPublisherWithWriter(stream, "burnout.predictions"),
		},
	})

	t.Run("Criterion1_CriticalResultEmailsStaff", func(t *testing.T) {
		// Given: an overloaded week and a self-reported sleep rating of 1
		tc.expectOverloadedWeek("emp-7")
		req := weekRequest("emp-7")
		req.SelfReported.SleepQuality = ptr(1)

		// When: the assessment completes
		result, err := svc.Predict(tc.Ctx, req)
		require.NoError(t, err)

		// Then: staff are e-mailed and the event is published
		assert.Equal(t, domain.RiskCritical, result.RiskLevel)
		assert.InDelta(t, 0.809, result.RiskScore, 1e-9)
		assert.Equal(t, "Immediate action required: Take time off", result.Recommendations[0].Description)

		require.Len(t, alerts.inputs, 1)
		in := alerts.inputs[0]
		assert.Equal(t, "[burnout-monitor] CRITICAL risk for emp-7", aws.ToString(in.Content.Simple.Subject.Data))
		assert.Equal(t, []string{"wellbeing@example.com"}, in.Destination.ToAddresses)
		assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "emp-7")

		require.Len(t, stream.msgs, 1)
		msg := stream.msgs[0]
		assert.Equal(t, []byte("emp-7"), msg.Key)

		var env events.Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &env))
		assert.Equal(t, events.EventPredictionCreated, env.EventType)
		var payload events.PredictionCreated
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, result.ID, payload.PredictionID)
		assert.Equal(t, domain.RiskCritical, payload.RiskLevel)
	})

	t.Run("Criterion2_LowRiskIsPublishedButNotEmailed", func(t *testing.T) {
		tc.expectSurveyOnly("emp-3", 8)

		result, err := svc.Predict(tc.Ctx, weekRequest("emp-3"))
		require.NoError(t, err)

		assert.Equal(t, domain.RiskLow, result.RiskLevel)
		assert.Len(t, alerts.inputs, 1, "no new alert expected")
		assert.Len(t, stream.msgs, 2)
	})

	assert.NoError(t, tc.Mock.ExpectationsWereMet())
}

// =============================================================================
// US-006: Managers Browse Assessment History Over HTTP
// =============================================================================

func TestUS006_HistoryOverHTTP(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	now := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	svc := tc.newService(t, pipelineOptions{
		source: &countingSource{},
		clock:  func() time.Time { return now },
	})
	router := api.SetupRoutes(api.NewHandlers(svc, nil), nil, api.RouteOptions{RequestTimeout: 5 * time.Second})

	post := func(h http.Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/predictions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	const body = `{"subject_id":"emp-9","start_date":"2026-10-05","end_date":"2026-10-09"}`

	t.Run("Criterion1_NewestAssessmentsFirst", func(t *testing.T) {
		// Given: three assessments an hour apart
		for i := 0; i < 3; i++ {
			rec := post(router, body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			now = now.Add(time.Hour)
		}

		// When: the manager asks for the latest two
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?subject_id=emp-9&limit=2", nil))

		// Then: the two newest come back in order
		require.Equal(t, http.StatusOK, rec.Code)
		var history api.HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		assert.Equal(t, "emp-9", history.SubjectID)
		require.Equal(t, 2, history.Count)
		assert.Equal(t, time.Date(2026, 10, 12, 11, 0, 0, 0, time.UTC), history.Predictions[0].Timestamp)
		assert.Equal(t, time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC), history.Predictions[1].Timestamp)
	})

	t.Run("Criterion2_UnknownSubjectHasEmptyHistory", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?subject_id=nobody", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"predictions":[]`)
	})

	t.Run("Criterion3_DatabaseFailureIsSanitized", func(t *testing.T) {
		dbRouter := api.SetupRoutes(api.NewHandlers(tc.newService(t, pipelineOptions{}), nil), nil, api.RouteOptions{RequestTimeout: 5 * time.Second})
		tc.Mock.ExpectQuery(`FROM calendar_events`).
			WillReturnError(errors.New("pq: connection reset by peer"))

		rec := post(dbRouter, body)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), api.CodeExtractionFailed)
		assert.NotContains(t, rec.Body.String(), "connection reset")
		assert.NoError(t, tc.Mock.ExpectationsWereMet())
	})
}
