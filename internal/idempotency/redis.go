// Package idempotency remembers completed prediction requests in Redis so a
// retried request with the same Idempotency-Key is answered from the record
// instead of re-running the pipeline.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

const keyPrefix = "idempotency:prediction:"

// DefaultTTL is how long completed requests stay replayable.
const DefaultTTL = 24 * time.Hour

// RedisStore implements prediction.IdempotencyStore.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store; ttl <= 0 selects DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the record for key, or nil if there is none.
func (s *RedisStore) Get(ctx context.Context, key string) (*prediction.IdempotencyRecord, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	var rec prediction.IdempotencyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, nil
}

// Complete stores rec under key with the store's TTL. An existing record
// is kept; the first completion wins.
func (s *RedisStore) Complete(ctx context.Context, key string, rec prediction.IdempotencyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.client.SetNX(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency record: %w", err)
	}
	return nil
}

// Ping checks the Redis connection; used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
