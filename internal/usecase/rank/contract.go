package rank

import (
	"context"
	"time"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// CandidateSource fetches raw candidates from the search backend. A nil
// vector means semantic retrieval is off for this call; implementations
// then return keyword-only candidates.
type CandidateSource interface {
	Fetch(
		ctx context.Context,
		text string, vector []float32,
		sources []source.Type, cfg relevance.Config,
	) ([]candidate.Candidate, error)

	SupportsTextSearch(ctx context.Context) bool
}

// ResultCache short-circuits repeated identical queries. Get treats
// expired entries as misses; Put bounds entry lifetime by ttl.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]ranking.ScoredResult, bool)
	Put(ctx context.Context, key string, results []ranking.ScoredResult, ttl time.Duration)
	Invalidate(ctx context.Context, key string) error
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
