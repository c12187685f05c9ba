package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/pkg/distlock"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

const (
	// DefaultHistoryLimit applies when History is called with limit <= 0.
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps History page size.
	MaxHistoryLimit = 100

	defaultObserverTimeout = 5 * time.Second
)

// idempotencyNamespace derives stable result ids from idempotency keys.
var idempotencyNamespace = uuid.MustParse("6f1d7a52-3c4b-4e0f-9a51-2b8c0e7d9f13")

var log = logger.Component("prediction")

// Deps are the collaborators of a Service. Idempotency, Locks and Observers
// are optional.
type Deps struct {
	Extractor   Extractor
	Classifier  classifier.Classifier
	Composer    Composer
	Repo        Repository
	Idempotency IdempotencyStore
	Locks       distlock.Factory
	Observers   []Observer
}

// Option tunes a Service.
type Option func(*Service)

// WithDefaultModelVersion sets the model hint used when a request names none.
func WithDefaultModelVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.defaultModel = v
		}
	}
}

// WithStageHook registers a callback for stage transitions.
func WithStageHook(h StageHook) Option {
	return func(s *Service) { s.onStage = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserverTimeout bounds each observer call.
func WithObserverTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.observerTimeout = d
		}
	}
}

// Service implements the prediction pipeline. All public methods are safe
// for concurrent use if the injected collaborators are.
type Service struct {
	deps            Deps
	defaultModel    string
	onStage         StageHook
	now             func() time.Time
	observerTimeout time.Duration
}

// NewService creates a prediction service.
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		deps:            deps,
		defaultModel:    classifier.LatestModel,
		now:             time.Now,
		observerTimeout: defaultObserverTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict runs the pipeline for req. When req carries an idempotency key, a
// completed request with the same key and inputs is replayed instead of
// re-run, and at most one result is ever persisted for the key.
func (s *Service) Predict(ctx context.Context, req Request) (*domain.PredictionResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.IdempotencyKey == "" {
		result, err := s.run(ctx, req)
		if errors.Is(err, ErrDuplicateKey) {
			s.stage(req.SubjectID, StageFailed)
		}
		return result, err
	}
	return s.predictOnce(ctx, req)
}

// History returns a subject's persisted results, newest first.
func (s *Service) History(ctx context.Context, subjectID string, limit int) ([]domain.PredictionResult, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject id is required", ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	results, err := s.deps.Repo.ListBySubject(ctx, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return results, nil
}

func (s *Service) predictOnce(ctx context.Context, req Request) (*domain.PredictionResult, error) {
	key := req.IdempotencyKey
	hash := req.hash()

	if s.deps.Locks != nil {
		lock := s.deps.Locks("prediction:" + key)
		acquired, err := lock.Acquire(ctx)
		switch {
		case err != nil:
			// The conditional create still guarantees a single stored result.
			log.Warn("idempotency lock unavailable", "key", key, "error", err)
		case !acquired:
			return nil, ErrInProgress
		default:
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	if s.deps.Idempotency != nil {
		rec, err := s.deps.Idempotency.Get(ctx, key)
		if err != nil {
			log.Warn("idempotency lookup failed", "key", key, "error", err)
		} else if rec != nil {
			if rec.RequestHash != hash {
				return nil, ErrIdempotencyConflict
			}
			var replay domain.PredictionResult
			if err := json.Unmarshal(rec.Result, &replay); err == nil {
				log.Info("replaying prediction", "key", key, "prediction_id", replay.ID)
				return &replay, nil
			}
			log.Warn("discarding unreadable idempotency record", "key", key)
		}
	}

	// The replay record may have expired or never been written; the stored
	// result outlives it.
	stored, err := s.deps.Repo.GetByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		if stored.RequestHash != hash {
			return nil, ErrIdempotencyConflict
		}
		log.Info("replaying stored prediction", "key", key, "prediction_id", stored.ID)
		s.complete(ctx, key, hash, stored)
		return stored, nil
	case !errors.Is(err, ErrNotFound):
		log.Warn("stored prediction lookup failed", "key", key, "error", err)
	}

	result, err := s.run(ctx, req)
	if errors.Is(err, ErrDuplicateKey) {
		result, err = s.loadStored(ctx, key, hash)
		if err != nil {
			s.stage(req.SubjectID, StageFailed)
			return nil, err
		}
		s.stage(req.SubjectID, StageDone)
	}
	if err != nil {
		return nil, err
	}

	s.complete(ctx, key, hash, result)
	return result, nil
}

// loadStored returns the result another request stored under key, provided
// it was produced from the same inputs.
func (s *Service) loadStored(ctx context.Context, key, hash string) (*domain.PredictionResult, error) {
	existing, err := s.deps.Repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, &PipelineError{Stage: StagePersisting, Kind: KindPersistence,
			Reason: "unable to load the stored prediction", Err: err}
	}
	if existing.RequestHash != hash {
		return nil, ErrIdempotencyConflict
	}
	return existing, nil
}

func (s *Service) complete(ctx context.Context, key, hash string, result *domain.PredictionResult) {
	if s.deps.Idempotency == nil {
		return
	}
	body, _ := json.Marshal(result)
	rec := IdempotencyRecord{RequestHash: hash, Result: body, CompletedAt: s.now().UTC()}
	if err := s.deps.Idempotency.Complete(ctx, key, rec); err != nil {
		log.Warn("idempotency record not saved", "key", key, "error", err)
	}
}

func (s *Service) run(ctx context.Context, req Request) (*domain.PredictionResult, error) {
	s.stage(req.SubjectID, StageExtracting)
	ex, err := s.deps.Extractor.Extract(ctx, req.SubjectID, req.From, req.To)
	if err != nil {
		return nil, s.fail(req, StageExtracting, KindExtraction, "unable to read activity data", err)
	}

	s.stage(req.SubjectID, StageOverriding)
	fv, err := ex.Features.With(req.SelfReported.Overrides())
	if err != nil {
		s.stage(req.SubjectID, StageFailed)
		return nil, fmt.Errorf("%w: self-reported values: %v", ErrInvalidRequest, err)
	}

	s.stage(req.SubjectID, StageClassifying)
	version := req.ModelVersion
	if version == "" {
		version = s.defaultModel
	}
	cl, err := s.deps.Classifier.Classify(ctx, classifier.Request{
		SubjectID:    req.SubjectID,
		Features:     fv,
		ModelVersion: version,
	})
	if err != nil {
		return nil, s.fail(req, StageClassifying, KindClassification, "risk classifier unavailable", err)
	}

	s.stage(req.SubjectID, StageComposing)
	result := s.buildResult(req, ex.DataPoints, fv, cl, version)
	result.Recommendations = s.deps.Composer.Compose(cl.Recommendations, fv, cl.RiskLevel)
	if err := result.Validate(); err != nil {
		return nil, s.fail(req, StageComposing, KindComposition, "unable to assemble the risk report", err)
	}

	s.stage(req.SubjectID, StagePersisting)
	if err := s.deps.Repo.Create(ctx, result); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			// The caller decides whether the stored result can be returned.
			return nil, &PipelineError{Stage: StagePersisting, Kind: KindPersistence,
				Reason: "prediction already recorded", Err: err}
		}
		return nil, s.fail(req, StagePersisting, KindPersistence, "unable to save the prediction", err)
	}

	s.stage(req.SubjectID, StageDone)
	log.Info("prediction created", "subject_id", req.SubjectID, "prediction_id", result.ID,
		"risk_level", result.RiskLevel, "model_version", result.ModelVersion)
	s.notify(ctx, result)
	return result, nil
}

func (s *Service) buildResult(req Request, dp domain.DataPoints, fv domain.FeatureVector, cl *classifier.Classification, version string) *domain.PredictionResult {
	factors := make(map[string]float64, len(domain.FactorNames))
	for _, name := range domain.FactorNames {
		if v, ok := cl.Factors[string(name)]; ok {
			factors[string(name)] = v
			continue
		}
		factors[string(name)] = fv.Get(name)
	}

	var requestHash string
	if req.IdempotencyKey != "" {
		requestHash = req.hash()
	}

	modelVersion := cl.ModelVersion
	if modelVersion == "" {
		modelVersion = version
	}

	return &domain.PredictionResult{
		ID:             s.resultID(req.IdempotencyKey),
		SubjectID:      req.SubjectID,
		Timestamp:      s.now().UTC(),
		RiskLevel:      cl.RiskLevel,
		RiskScore:      cl.RiskScore,
		Confidence:     cl.Confidence,
		Factors:        factors,
		Features:       fv,
		DataPoints:     dp,
		ModelVersion:   modelVersion,
		PeriodStart:    req.From,
		PeriodEnd:      req.To,
		IdempotencyKey: req.IdempotencyKey,
		RequestHash:    requestHash,
	}
}

func (s *Service) resultID(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(idempotencyNamespace, []byte(idempotencyKey)).String()
}

func (s *Service) fail(req Request, stage Stage, kind ErrorKind, reason string, err error) error {
	s.stage(req.SubjectID, StageFailed)
	log.Warn("prediction failed", "subject_id", req.SubjectID, "stage", stage, "kind", kind, "error", err)
	return &PipelineError{Stage: stage, Kind: kind, Reason: reason, Err: err}
}

func (s *Service) stage(subjectID string, st Stage) {
	log.Debug("pipeline stage", "subject_id", subjectID, "stage", st)
	if s.onStage != nil {
		s.onStage(subjectID, st)
	}
}

func (s *Service) notify(ctx context.Context, p *domain.PredictionResult) {
	base := context.WithoutCancel(ctx)
	for _, o := range s.deps.Observers {
		octx, cancel := context.WithTimeout(base, s.observerTimeout)
		if err := o.PredictionCreated(octx, p); err != nil {
			log.Warn("observer failed", "observer", o.Name(), "prediction_id", p.ID, "error", err)
		}
		cancel()
	}
}
