package embedding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

func TestBudgetTracker_RejectWhenDailySpent(t *testing.T) {
	bt := NewBudgetTracker("openai", 100, 0, BudgetActionReject, zap.NewNop())

	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("err = %v, want ErrEmbeddingQuotaExceeded", err)
	}
}

func TestBudgetTracker_WarnLetsRequestThrough(t *testing.T) {
	bt := NewBudgetTracker("openai", 100, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("warn action returned %v", err)
	}
}

func TestBudgetTracker_MonthlyLimitRejects(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 500, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("err = %v, want ErrEmbeddingQuotaExceeded", err)
	}
}

func TestBudgetTracker_ZeroLimitIsUnlimited(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionReject, zap.NewNop())

	bt.Record(999999999)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("unlimited budget returned %v", err)
	}
}

func TestBudgetTracker_BelowLimitAllows(t *testing.T) {
	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("err = %v, want nil below limit", err)
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(300)

	if got := bt.RemainingDaily(); got != 700 {
		t.Errorf("RemainingDaily = %d, want 700", got)
	}
	if got := bt.RemainingMonthly(); got != 9700 {
		t.Errorf("RemainingMonthly = %d, want 9700", got)
	}
}

func TestBudgetTracker_RemainingClampsAtZero(t *testing.T) {
	bt := NewBudgetTracker("openai", 100, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(250)

	if got := bt.RemainingDaily(); got != 0 {
		t.Errorf("RemainingDaily = %d, want 0 after overspend", got)
	}
}

func TestBudgetTracker_RemainingUnlimited(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop())

	if got := bt.RemainingDaily(); got != -1 {
		t.Errorf("RemainingDaily = %d, want -1 for unlimited", got)
	}
	if got := bt.RemainingMonthly(); got != -1 {
		t.Errorf("RemainingMonthly = %d, want -1 for unlimited", got)
	}
}

func TestBudgetTracker_EstimatedCost(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop()).WithCostRate(20)

	bt.Record(500000)

	if got := bt.EstimatedDailyCostUSD(); got != 10 {
		t.Errorf("EstimatedDailyCostUSD = %v, want 10", got)
	}
	if got := bt.EstimatedMonthlyCostUSD(); got != 10 {
		t.Errorf("EstimatedMonthlyCostUSD = %v, want 10", got)
	}
}

func TestBudgetTracker_EstimatedCostWithoutRate(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(500000)

	if got := bt.EstimatedDailyCostUSD(); got != 0 {
		t.Errorf("EstimatedDailyCostUSD = %v, want 0 without a rate", got)
	}
}

// --- Mock BudgetStore ---

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

// --- Persistence tests ---

func TestBudgetTracker_WithStore_SeedsCounters(t *testing.T) {
	store := newMockBudgetStore()

	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionReject, zap.NewNop())
	store.data[bt.dailyKey(bt.curDay)] = 300
	store.data[bt.monthlyKey(bt.curMonth)] = 5000

	bt.WithStore(context.Background(), store)

	if bt.DailyUsed() != 300 {
		t.Errorf("DailyUsed = %d, want 300", bt.DailyUsed())
	}
	if bt.MonthlyUsed() != 5000 {
		t.Errorf("MonthlyUsed = %d, want 5000", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_Record_WritesBehind(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("openai", 10000, 100000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)
	bt.Record(300)

	if bt.DailyUsed() != 600 {
		t.Errorf("DailyUsed = %d, want 600", bt.DailyUsed())
	}

	dailyKey := bt.dailyKey(bt.curDay)
	monthlyKey := bt.monthlyKey(bt.curMonth)
	store.mu.Lock()
	daily, monthly := store.data[dailyKey], store.data[monthlyKey]
	store.mu.Unlock()
	if daily != 600 {
		t.Errorf("store daily = %d, want 600", daily)
	}
	if monthly != 600 {
		t.Errorf("store monthly = %d, want 600", monthly)
	}
}

func TestBudgetTracker_WithStore_LoadErrorFallsBackToZero(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionReject, zap.NewNop())
	bt.WithStore(context.Background(), store)

	if bt.DailyUsed() != 0 {
		t.Errorf("DailyUsed = %d, want 0 on load error", bt.DailyUsed())
	}
	if bt.MonthlyUsed() != 0 {
		t.Errorf("MonthlyUsed = %d, want 0 on load error", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_Record_SurvivesStoreWriteError(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	store.mu.Lock()
	store.setErr = errors.New("write timeout")
	store.mu.Unlock()

	bt.Record(50)

	if bt.DailyUsed() != 50 {
		t.Errorf("DailyUsed = %d, want 50 despite store error", bt.DailyUsed())
	}
}

func TestBudgetTracker_CheckStaysInMemoryWithStore(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("openai", 100, 0, BudgetActionReject, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("err = %v, want ErrEmbeddingQuotaExceeded", err)
	}
}

func TestBudgetTracker_RecordWithoutStore(t *testing.T) {
	bt := NewBudgetTracker("openai", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(42)

	if bt.DailyUsed() != 42 {
		t.Errorf("DailyUsed = %d, want 42", bt.DailyUsed())
	}
}

func TestBudgetTracker_CounterKeys(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop())

	daily := bt.dailyKey(bt.curDay)
	if !strings.HasPrefix(daily, "relevance:budget:openai:daily:") {
		t.Errorf("daily key = %q", daily)
	}
	monthly := bt.monthlyKey(bt.curMonth)
	if !strings.HasPrefix(monthly, "relevance:budget:openai:monthly:") {
		t.Errorf("monthly key = %q", monthly)
	}
	// date suffixes: YYYY-MM-DD and YYYY-MM
	if len(daily) != len("relevance:budget:openai:daily:")+10 {
		t.Errorf("daily key suffix malformed: %q", daily)
	}
	if len(monthly) != len("relevance:budget:openai:monthly:")+7 {
		t.Errorf("monthly key suffix malformed: %q", monthly)
	}
}
