package resultcache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemory_PutGet(t *testing.T) {
	m, err := NewMemory(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := twoResults()

	m.Put(context.Background(), "k1", want, time.Minute)

	got, ok := m.Get(context.Background(), "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	assertSameResults(t, got, want)
}

func TestMemory_MissOnUnknownKey(t *testing.T) {
	m, _ := NewMemory(8)
	if _, ok := m.Get(context.Background(), "nope"); ok {
		t.Error("expected miss")
	}
}

func TestMemory_ExpiredEntryIsMiss(t *testing.T) {
	m, _ := NewMemory(8)
	m.Put(context.Background(), "k1", twoResults(), time.Nanosecond)

	// любые две последовательные операции разделяет больше наносекунды
	if _, ok := m.Get(context.Background(), "k1"); ok {
		t.Error("expected expired entry to read as miss")
	}
	if m.Len() != 0 {
		t.Errorf("expected expired entry evicted, Len = %d", m.Len())
	}
}

func TestMemory_NonPositiveTTLStoresNothing(t *testing.T) {
	m, _ := NewMemory(8)
	m.Put(context.Background(), "k1", twoResults(), 0)
	m.Put(context.Background(), "k2", twoResults(), -time.Second)

	if m.Len() != 0 {
		t.Errorf("expected nothing stored, Len = %d", m.Len())
	}
}

func TestMemory_CapacityEvictsOldest(t *testing.T) {
	m, _ := NewMemory(2)
	res := twoResults()

	for i := 0; i < 3; i++ {
		m.Put(context.Background(), fmt.Sprintf("k%d", i), res, time.Minute)
	}

	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if _, ok := m.Get(context.Background(), "k0"); ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := m.Get(context.Background(), "k2"); !ok {
		t.Error("expected newest entry retained")
	}
}

func TestMemory_Invalidate(t *testing.T) {
	m, _ := NewMemory(8)
	m.Put(context.Background(), "k1", twoResults(), time.Minute)

	if err := m.Invalidate(context.Background(), "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.Get(context.Background(), "k1"); ok {
		t.Error("expected entry gone after invalidate")
	}

	// absent key is not an error
	if err := m.Invalidate(context.Background(), "never-stored"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewMemory_InvalidSize(t *testing.T) {
	if _, err := NewMemory(0); err == nil {
		t.Error("expected error for zero capacity")
	}
}
