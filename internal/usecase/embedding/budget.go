package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/metrics"
)

// BudgetAction selects what happens once a token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs the overrun and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists budget counters across restarts. IncrBy must be
// safe to call repeatedly for the same key.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetTracker caps embedding token spend per UTC day and month.
// Check reads in-memory counters only; Record updates them and then
// writes behind to the store, so the provider call path never waits on
// a counter round-trip.
type BudgetTracker struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	costPerMillion float64
	action         BudgetAction
	provider       string
	curDay         time.Time
	curMonth       time.Time
	store          BudgetStore
	logger         *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited on
// that window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		provider:     provider,
		curDay:       dayStart(now),
		curMonth:     monthStart(now),
		logger:       logger,
	}
}

// WithStore attaches persistence and seeds counters from it, so a
// restart mid-day does not grant a fresh budget.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.store = store

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	if val, err := store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = val
	} else {
		b.logger.Warn("failed to load daily budget counter", zap.Error(err))
	}
	if val, err := store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthlyUsed = val
	} else {
		b.logger.Warn("failed to load monthly budget counter", zap.Error(err))
	}
	b.publishCostGauges(b.dailyUsed, b.monthlyUsed)

	b.logger.Info("embedding budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// WithCostRate sets the provider's USD price per million tokens. Once
// set, Record publishes the estimated spend gauge alongside the token
// counters.
func (b *BudgetTracker) WithCostRate(usdPerMillionTokens float64) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.costPerMillion = usdPerMillionTokens
	return b
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, b.provider, t.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", domain.KeyPrefix, b.provider, t.Format("2006-01"))
}

// Check reports whether the budget admits one more provider call.
// In-memory only; never touches the store.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()

	dailyOver := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyOver := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyOver && !monthlyOver {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("embedding token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens to both windows and persists the new
// counters when a store is attached. The write uses its own short
// deadline so a slow store cannot stall the caller's request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	b.publishCostGauges(b.dailyUsed, b.monthlyUsed)
	store := b.store
	now := time.Now().UTC()
	dailyKey := b.dailyKey(now)
	monthlyKey := b.monthlyKey(now)
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		b.logger.Warn("failed to persist daily budget counter", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		b.logger.Warn("failed to persist monthly budget counter", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// RemainingDaily returns tokens left today, or -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	return remaining(b.dailyLimit, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month, or -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	return remaining(b.monthlyLimit, b.monthlyUsed)
}

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.dailyUsed
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.monthlyUsed
}

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.dailyLimit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthlyLimit }

// EstimatedDailyCostUSD returns today's estimated spend, or 0 when no
// cost rate is configured.
func (b *BudgetTracker) EstimatedDailyCostUSD() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return costUSD(b.dailyUsed, b.costPerMillion)
}

// EstimatedMonthlyCostUSD returns this month's estimated spend, or 0
// when no cost rate is configured.
func (b *BudgetTracker) EstimatedMonthlyCostUSD() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return costUSD(b.monthlyUsed, b.costPerMillion)
}

// publishCostGauges updates the estimated-spend gauge. No-op until a
// cost rate is set. Caller holds the mutex.
func (b *BudgetTracker) publishCostGauges(dailyUsed, monthlyUsed int64) {
	if b.costPerMillion <= 0 {
		return
	}
	gauge := metrics.EmbeddingBudgetCostUSD
	gauge.WithLabelValues(b.provider, "daily").Set(costUSD(dailyUsed, b.costPerMillion))
	gauge.WithLabelValues(b.provider, "monthly").Set(costUSD(monthlyUsed, b.costPerMillion))
}

func costUSD(tokens int64, perMillion float64) float64 {
	return float64(tokens) / 1e6 * perMillion
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if left := limit - used; left > 0 {
		return left
	}
	return 0
}

// rollover zeroes counters when the UTC day or month changes. Caller
// holds the mutex.
func (b *BudgetTracker) rollover() {
	now := time.Now().UTC()
	if today := dayStart(now); today.After(b.curDay) {
		b.dailyUsed = 0
		b.curDay = today
	}
	if month := monthStart(now); month.After(b.curMonth) {
		b.monthlyUsed = 0
		b.curMonth = month
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
