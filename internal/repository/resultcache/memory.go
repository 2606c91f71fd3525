package resultcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
)

type entry struct {
	results   []ranking.ScoredResult
	expiresAt time.Time
}

// Memory is an in-process LRU result cache. Capacity bounds memory, TTL
// bounds staleness; an expired entry reads as a miss and is evicted on
// that access.
type Memory struct {
	lru *lru.Cache[string, entry]
}

// NewMemory creates a memory cache holding at most maxEntries result sets.
func NewMemory(maxEntries int) (*Memory, error) {
	c, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Memory{lru: c}, nil
}

// Get returns the cached result set for key, if present and unexpired.
func (m *Memory) Get(_ context.Context, key string) ([]ranking.ScoredResult, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false
	}
	return e.results, true
}

// Put stores a result set for ttl. Non-positive ttl stores nothing.
func (m *Memory) Put(_ context.Context, key string, results []ranking.ScoredResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.lru.Add(key, entry{results: results, expiresAt: time.Now().Add(ttl)})
}

// Invalidate drops the entry for key. Absent keys are not an error.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len reports the number of live entries, expired ones included until
// their next access.
func (m *Memory) Len() int { return m.lru.Len() }
