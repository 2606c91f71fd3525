package relevance

import (
	"context"
	"time"
)

// Document is a CRM record to index. Body is chunked and vectorized on
// ingestion; Title and Source feed the ranking signals.
type Document struct {
	ID        string
	Source    string
	Title     string
	Body      string
	CreatedAt time.Time // zero means now
}

// Embedder is the text-vectorization provider callers plug in via
// WithEmbedder. Implementations that also satisfy BatchEmbedder get
// their native batch API used during ingestion; otherwise chunks are
// embedded one by one.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is optionally implemented by Embedders whose provider
// has a native multi-input endpoint.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries one vector and the token usage the provider
// reported for it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries one vector per input text, in input
// order, and the aggregate token usage of the call.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// SearchOptions configures a direct Search call. The fluent builder
// returned by Client.Query covers per-call config overrides.
type SearchOptions struct {
	Preset  string   // empty means "default"
	Sources []string // empty means all sources
	Limit   int      // 0 defers to the preset's defaultLimit
}

// SearchResponse is one served search.
type SearchResponse struct {
	Results  []Result
	Excluded []Exclusion
	Total    int
	Preset   string
	CacheHit bool
	Degraded bool // semantic signal was dropped for this request
	// EmbeddingTokens is the provider token spend of this call.
	// Zero with a cache hit means the vector came from cache.
	EmbeddingTokens int
}

// Result is one ranked record.
type Result struct {
	ID         string
	Source     string
	Title      string
	Snippet    string
	Score      float64
	Breakdown  Breakdown
	TitleMatch bool
	ExactMatch bool
}

// Breakdown itemizes the weighted signals behind a result's score.
type Breakdown struct {
	Text         float64
	Semantic     float64
	Recency      float64
	TitleBoost   float64
	ExactBoost   float64
	SourceWeight float64
}

// Exclusion reports a candidate dropped during scoring and why.
type Exclusion struct {
	ID     string
	Source string
	Reason string
}

// PresetConfig is the fully resolved ranking configuration of one preset.
type PresetConfig struct {
	Preset                 string
	MinScore               float64
	TextWeight             float64
	SemanticWeight         float64
	RecencyWeight          float64
	TimeDecayFactor        float64
	TitleBoost             float64
	ExactMatchBoost        float64
	FreshnessThresholdDays int
	MaxPerSource           int
	DefaultLimit           int
	SourceWeights          map[string]float64
	Features               FeatureFlags
	Semantic               SemanticConfig
	FullText               FullTextConfig
	Cache                  CacheConfig
}

// FeatureFlags mirrors a preset's feature switches.
type FeatureFlags struct {
	SemanticSearch  bool
	TimeDecay       bool
	TitleBoost      bool
	ExactMatchBoost bool
}

// SemanticConfig mirrors a preset's vector-search settings.
type SemanticConfig struct {
	MinSimilarity      float64
	EmbeddingModel     string
	EmbeddingDimension int
	TopK               int
}

// FullTextConfig mirrors a preset's keyword-search settings.
type FullTextConfig struct {
	SearchConfig    string
	EnableStemming  bool
	RemoveStopWords bool
	FuzzyDistance   int
}

// CacheConfig mirrors a preset's result-cache settings.
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
	MaxEntries int
}
