package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
)

var cacheKeyPrefix = domain.KeyPrefix + "res_cache:"

// store is the consumer interface for the shared result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// KV is a result cache backed by the shared key-value store, so every
// replica serving the same corpus sees the same hits. Expiry rides on the
// store's native TTL. Reads and writes fail soft: a broken cache degrades
// to misses, never to failed queries.
type KV struct {
	store  store
	logger *zap.Logger
}

// NewKV creates a store-backed result cache.
func NewKV(s store, logger *zap.Logger) *KV {
	return &KV{store: s, logger: logger}
}

// Get returns the cached result set for key. Malformed entries are
// dropped so the next Put can replace them.
func (c *KV) Get(ctx context.Context, key string) ([]ranking.ScoredResult, bool) {
	data, err := c.store.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read result cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var dtos []resultDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		c.logger.Warn("Dropping malformed result cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.Del(ctx, cacheKeyPrefix+key)
		return nil, false
	}

	results := make([]ranking.ScoredResult, len(dtos))
	for i, d := range dtos {
		results[i] = fromDTO(d)
	}
	return results, true
}

// Put stores a result set for ttl. Non-positive ttl stores nothing.
func (c *KV) Put(ctx context.Context, key string, results []ranking.ScoredResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	dtos := make([]resultDTO, len(results))
	for i, r := range results {
		dtos[i] = toDTO(r)
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		c.logger.Warn("Failed to encode result cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.SetWithTTL(ctx, cacheKeyPrefix+key, data, ttl); err != nil {
		c.logger.Warn("Failed to write result cache", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the entry for key from the shared store.
func (c *KV) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Del(ctx, cacheKeyPrefix+key); err != nil {
		return fmt.Errorf("invalidate result cache: %w", err)
	}
	return nil
}
