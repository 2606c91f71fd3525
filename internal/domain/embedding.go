package domain

import (
	"context"
	"fmt"
)

// Embedder vectorizes a single text. This is the contract every layer of
// the embedding chain (provider, cache, budget, instruction) satisfies.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes many texts in one provider call. Ingestion
// prefers this path: a document split into chunks embeds as one request.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies the embedding provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector plus the token usage the provider
// reported. Cache hits report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries one vector per input text, in input order,
// and the aggregate token usage of the call.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback embeds texts one by one through a plain Embedder.
// Safety net для провайдеров без нативного batch API.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	return out, nil
}

// InstructionEmbedder prepends task instructions before vectorizing.
// Retrieval models score better when queries and passages carry distinct
// prefixes, so the single-text path (queries) and the batch path
// (document chunks) each get their own instruction. Empty instructions
// make this a pass-through.
type InstructionEmbedder struct {
	inner       Embedder
	queryPrefix string
	docPrefix   string
}

// NewInstructionEmbedder wraps inner with asymmetric query/document prefixes.
func NewInstructionEmbedder(inner Embedder, queryPrefix, docPrefix string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, queryPrefix: queryPrefix, docPrefix: docPrefix}
}

// Embed prepends the query instruction. Search queries go through here.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.queryPrefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed prepends the document instruction to every text. Ingested
// chunks go through here. Falls back to one-by-one Embed when inner has
// no batch support.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.docPrefix + t
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed fallback: %w", err)
	}
	return res, nil
}
