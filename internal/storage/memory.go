package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// MemoryStore keeps prediction results in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	bySubject map[string][]domain.PredictionResult
	byKey     map[string]domain.PredictionResult
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bySubject: make(map[string][]domain.PredictionResult),
		byKey:     make(map[string]domain.PredictionResult),
	}
}

func (m *MemoryStore) Create(_ context.Context, p *domain.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.IdempotencyKey != "" {
		if _, ok := m.byKey[p.IdempotencyKey]; ok {
			return prediction.ErrDuplicateKey
		}
		m.byKey[p.IdempotencyKey] = *p
	}
	m.bySubject[p.SubjectID] = append(m.bySubject[p.SubjectID], *p)
	return nil
}

func (m *MemoryStore) GetByIdempotencyKey(_ context.Context, key string) (*domain.PredictionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byKey[key]
	if !ok {
		return nil, prediction.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListBySubject(_ context.Context, subjectID string, limit int) ([]domain.PredictionResult, error) {
	m.mu.RLock()
	all := append([]domain.PredictionResult(nil), m.bySubject[subjectID]...)
	m.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
