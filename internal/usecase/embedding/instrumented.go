package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/metrics"
)

// DefaultMaxAPIBatchSize — максимальный размер батча на один запрос к провайдеру.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local contract for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder wraps an embedder with budget enforcement and
// request logging. Transport-level metrics (requests, duration, tokens)
// live in transport/openai; this layer owns only the budget gauge.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A nil budget disables enforcement.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Embed checks the budget, delegates, then records consumed tokens.
func (e *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := e.checkBudget(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := e.inner.Embed(ctx, text)
	took := time.Since(start)

	if err != nil {
		e.logger.Error("embedding request failed",
			zap.String("provider", e.provider),
			zap.String("model", e.model),
			zap.Duration("duration", took),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	e.recordBudget(result.TotalTokens)

	e.logger.Debug("embedding request completed",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", took),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed checks the budget, splits the input into provider-sized
// sub-batches and delegates each one.
func (e *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	if err := e.checkBudget(ctx, len(texts)); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	start := time.Now()
	result, err := e.embedBatches(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	e.recordBudget(result.TotalTokens)

	e.logger.Debug("batch embedding completed",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// embedBatches walks texts in DefaultMaxAPIBatchSize windows,
// re-checking the budget before every window after the first: один
// гигантский батч не должен проскочить лимит целиком.
func (e *InstrumentedEmbedder) embedBatches(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		if offset > 0 {
			if err := e.checkBudget(ctx, len(texts)-offset); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("sub-batch at %d: %w", offset, err)
			}
		}

		end := offset + DefaultMaxAPIBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		part, err := e.batchInner(ctx, texts[offset:end])
		if err != nil {
			e.logger.Error("batch embedding request failed",
				zap.String("provider", e.provider),
				zap.String("model", e.model),
				zap.Int("offset", offset),
				zap.Int("size", end-offset),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		out.Embeddings = append(out.Embeddings, part.Embeddings...)
		out.PromptTokens += part.PromptTokens
		out.TotalTokens += part.TotalTokens
	}
	return out, nil
}

func (e *InstrumentedEmbedder) batchInner(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := e.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, e.inner, texts)
}

func (e *InstrumentedEmbedder) checkBudget(ctx context.Context, batchSize int) error {
	if e.budget == nil {
		return nil
	}
	if err := e.budget.Check(ctx); err != nil {
		e.logger.Error("embedding budget exhausted",
			zap.String("provider", e.provider),
			zap.String("model", e.model),
			zap.Int("batch_size", batchSize),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (e *InstrumentedEmbedder) recordBudget(totalTokens int) {
	if e.budget == nil || totalTokens <= 0 {
		return
	}
	e.budget.Record(int64(totalTokens))
	gauge := metrics.EmbeddingBudgetTokensRemaining
	gauge.WithLabelValues(e.provider, "daily").Set(float64(e.budget.RemainingDaily()))
	gauge.WithLabelValues(e.provider, "monthly").Set(float64(e.budget.RemainingMonthly()))
}
