package prediction_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/features"
	"github.com/ignite/burnout-monitor/internal/pkg/distlock"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// stubExtractor returns a fixed extraction or error.
type stubExtractor struct {
	out   *features.Extraction
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, string, time.Time, time.Time) (*features.Extraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func baselineExtraction() *features.Extraction {
	return &features.Extraction{Features: domain.BaselineVector()}
}

// stubClassifier records what it was asked and returns a fixed answer.
type stubClassifier struct {
	mu   sync.Mutex
	reqs []classifier.Request
	out  *classifier.Classification
	err  error
}

func (s *stubClassifier) Classify(_ context.Context, req classifier.Request) (*classifier.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.out
	return &cp, nil
}

func (s *stubClassifier) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

// memRepo is an in-memory prediction repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	results   []domain.PredictionResult
	byKey     map[string]domain.PredictionResult
	createErr error
	// hideKeys makes the next lookups miss, as if another replica stored
	// its result between the lookup and the create.
	hideKeys int
}

func newMemRepo() *memRepo {
	return &memRepo{byKey: make(map[string]domain.PredictionResult)}
}

func (m *memRepo) Create(_ context.Context, p *domain.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if p.IdempotencyKey != "" {
		if _, ok := m.byKey[p.IdempotencyKey]; ok {
			return prediction.ErrDuplicateKey
		}
		m.byKey[p.IdempotencyKey] = *p
	}
	m.results = append(m.results, *p)
	return nil
}

func (m *memRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.PredictionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideKeys > 0 {
		m.hideKeys--
		return nil, prediction.ErrNotFound
	}
	p, ok := m.byKey[key]
	if !ok {
		return nil, prediction.ErrNotFound
	}
	return &p, nil
}

func (m *memRepo) ListBySubject(_ context.Context, subjectID string, limit int) ([]domain.PredictionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PredictionResult
	for _, p := range m.results {
		if p.SubjectID == subjectID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// memIdempotency is an in-memory idempotency store.
type memIdempotency struct {
	mu      sync.Mutex
	records map[string]prediction.IdempotencyRecord
	getErr  error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: make(map[string]prediction.IdempotencyRecord)}
}

func (m *memIdempotency) Get(_ context.Context, key string) (*prediction.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, rec prediction.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = rec
	return nil
}

// heldLocks is a lock factory whose keys can be pre-held.
type heldLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (h *heldLocks) factory() distlock.Factory {
	return func(key string) distlock.DistLock { return &heldLock{parent: h, key: key} }
}

type heldLock struct {
	parent *heldLocks
	key    string
}

func (l *heldLock) Acquire(context.Context) (bool, error) {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	if l.parent.held[l.key] {
		return false, nil
	}
	l.parent.held[l.key] = true
	return true, nil
}

func (l *heldLock) Release(context.Context) error {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	delete(l.parent.held, l.key)
	return nil
}

// recordingObserver captures notified results.
type recordingObserver struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (r *recordingObserver) Name() string { return "recorder" }

func (r *recordingObserver) PredictionCreated(_ context.Context, p *domain.PredictionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p.ID)
	return r.err
}

var errNetwork = errors.New("dial tcp 10.0.0.5:5000: connect: connection refused")
