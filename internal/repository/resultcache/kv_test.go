package resultcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestKV_PutGetRoundTrip(t *testing.T) {
	ms := newMockStore()
	c := NewKV(ms, zap.NewNop())
	want := twoResults()

	c.Put(context.Background(), "abc123", want, 5*time.Minute)

	if len(ms.data) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(ms.data))
	}
	for key := range ms.data {
		if !strings.HasPrefix(key, cacheKeyPrefix) {
			t.Errorf("stored key %q lacks prefix %q", key, cacheKeyPrefix)
		}
	}
	if ms.ttls[cacheKeyPrefix+"abc123"] != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", ms.ttls[cacheKeyPrefix+"abc123"])
	}

	got, ok := c.Get(context.Background(), "abc123")
	if !ok {
		t.Fatal("expected cache hit")
	}
	assertSameResults(t, got, want)
}

func TestKV_MissOnAbsentKey(t *testing.T) {
	c := NewKV(newMockStore(), zap.NewNop())
	if _, ok := c.Get(context.Background(), "absent"); ok {
		t.Error("expected miss")
	}
}

func TestKV_StoreErrorReadsAsMiss(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("connection refused")
	c := NewKV(ms, zap.NewNop())

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("expected miss on store error")
	}
}

func TestKV_MalformedEntryDroppedAndMissed(t *testing.T) {
	ms := newMockStore()
	ms.data[cacheKeyPrefix+"bad"] = []byte("{not json")
	c := NewKV(ms, zap.NewNop())

	if _, ok := c.Get(context.Background(), "bad"); ok {
		t.Fatal("expected miss for malformed entry")
	}
	if len(ms.deleted) != 1 || ms.deleted[0] != cacheKeyPrefix+"bad" {
		t.Errorf("expected malformed entry deleted, deletions = %v", ms.deleted)
	}
}

func TestKV_NonPositiveTTLStoresNothing(t *testing.T) {
	ms := newMockStore()
	c := NewKV(ms, zap.NewNop())

	c.Put(context.Background(), "k", twoResults(), 0)
	if len(ms.data) != 0 {
		t.Errorf("expected nothing stored, got %d entries", len(ms.data))
	}
}

func TestKV_PutSwallowsStoreError(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("readonly replica")
	c := NewKV(ms, zap.NewNop())

	// не должно паниковать и не должно влиять на запрос
	c.Put(context.Background(), "k", twoResults(), time.Minute)
}

func TestKV_Invalidate(t *testing.T) {
	ms := newMockStore()
	c := NewKV(ms, zap.NewNop())
	c.Put(context.Background(), "k", twoResults(), time.Minute)

	if err := c.Invalidate(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("expected entry gone after invalidate")
	}
}

func TestKV_InvalidateError(t *testing.T) {
	ms := newMockStore()
	ms.delErr = errors.New("timeout")
	c := NewKV(ms, zap.NewNop())

	if err := c.Invalidate(context.Background(), "k"); err == nil {
		t.Error("expected error")
	}
}

func TestKV_EmptyResultSetRoundTrips(t *testing.T) {
	ms := newMockStore()
	c := NewKV(ms, zap.NewNop())

	c.Put(context.Background(), "empty", nil, time.Minute)

	got, ok := c.Get(context.Background(), "empty")
	if !ok {
		t.Fatal("expected hit for cached empty set")
	}
	if len(got) != 0 {
		t.Errorf("expected empty set, got %d results", len(got))
	}
}
