package sdk

import "time"

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query     string    `json:"query"`
	Preset    string    `json:"preset,omitempty"`
	Sources   []string  `json:"sources,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Overrides *Override `json:"overrides,omitempty"`
}

// Override tunes individual relevance knobs on top of the chosen
// preset. Nil fields keep the preset's value; the merged configuration
// is validated server-side.
type Override struct {
	MinScore               *float64           `json:"min_score,omitempty"`
	TextWeight             *float64           `json:"text_weight,omitempty"`
	SemanticWeight         *float64           `json:"semantic_weight,omitempty"`
	RecencyWeight          *float64           `json:"recency_weight,omitempty"`
	TimeDecayFactor        *float64           `json:"time_decay_factor,omitempty"`
	TitleBoost             *float64           `json:"title_boost,omitempty"`
	ExactMatchBoost        *float64           `json:"exact_match_boost,omitempty"`
	FreshnessThresholdDays *int               `json:"freshness_threshold_days,omitempty"`
	MaxPerSource           *int               `json:"max_per_source,omitempty"`
	DefaultLimit           *int               `json:"default_limit,omitempty"`
	SourceWeights          map[string]float64 `json:"source_weights,omitempty"`

	Features *FeaturesOverride `json:"features,omitempty"`
	Semantic *SemanticOverride `json:"semantic,omitempty"`
	FullText *FullTextOverride `json:"full_text,omitempty"`
	Cache    *CacheOverride    `json:"cache,omitempty"`
}

// FeaturesOverride toggles scoring features.
type FeaturesOverride struct {
	SemanticSearch  *bool `json:"semantic_search,omitempty"`
	TimeDecay       *bool `json:"time_decay,omitempty"`
	TitleBoost      *bool `json:"title_boost,omitempty"`
	ExactMatchBoost *bool `json:"exact_match_boost,omitempty"`
}

// SemanticOverride tunes the vector retrieval leg.
type SemanticOverride struct {
	MinSimilarity      *float64 `json:"min_similarity,omitempty"`
	EmbeddingModel     *string  `json:"embedding_model,omitempty"`
	EmbeddingDimension *int     `json:"embedding_dimension,omitempty"`
	TopK               *int     `json:"top_k,omitempty"`
}

// FullTextOverride tunes the keyword retrieval leg.
type FullTextOverride struct {
	SearchConfig    *string `json:"search_config,omitempty"`
	EnableStemming  *bool   `json:"enable_stemming,omitempty"`
	RemoveStopWords *bool   `json:"remove_stop_words,omitempty"`
	FuzzyDistance   *int    `json:"fuzzy_distance,omitempty"`
}

// CacheOverride tunes result caching for this query.
type CacheOverride struct {
	Enabled    *bool `json:"enabled,omitempty"`
	TTLSeconds *int  `json:"ttl_seconds,omitempty"`
	MaxEntries *int  `json:"max_entries,omitempty"`
}

// SearchResponse is the ranked answer to a search.
type SearchResponse struct {
	Results  []Result    `json:"results"`
	Excluded []Exclusion `json:"excluded,omitempty"`
	Total    int         `json:"total"`
	Preset   string      `json:"preset"`
	CacheHit bool        `json:"cache_hit"`
	Degraded bool        `json:"degraded,omitempty"`

	// EmbeddingTokens is the provider token spend for this request,
	// read from the X-Embedding-Tokens header. Zero on cache hits and
	// keyword-only searches.
	EmbeddingTokens int `json:"-"`
}

// Result is one ranked hit.
type Result struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Title      string    `json:"title,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
	Score      float64   `json:"score"`
	Breakdown  Breakdown `json:"breakdown"`
	TitleMatch bool      `json:"title_match,omitempty"`
	ExactMatch bool      `json:"exact_match,omitempty"`
}

// Breakdown itemizes the score components.
type Breakdown struct {
	Text         float64 `json:"text"`
	Semantic     float64 `json:"semantic"`
	Recency      float64 `json:"recency"`
	TitleBoost   float64 `json:"title_boost"`
	ExactBoost   float64 `json:"exact_boost"`
	SourceWeight float64 `json:"source_weight"`
}

// Exclusion names a candidate dropped during ranking and why.
type Exclusion struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Document is a CRM record to ingest.
type Document struct {
	ID     string
	Source string // leads, contacts, accounts, opportunities, documents, conversations, messages, tickets
	Title  string
	Body   string
	// CreatedAt drives recency scoring. Zero means "now".
	CreatedAt time.Time
}

// IndexResult reports an ingested document.
type IndexResult struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`

	// EmbeddingTokens is the provider token spend for this ingest,
	// read from the X-Embedding-Tokens header.
	EmbeddingTokens int `json:"-"`
}

// PresetConfig is a fully resolved relevance configuration.
type PresetConfig struct {
	Preset                 string             `json:"preset"`
	MinScore               float64            `json:"min_score"`
	TextWeight             float64            `json:"text_weight"`
	SemanticWeight         float64            `json:"semantic_weight"`
	RecencyWeight          float64            `json:"recency_weight"`
	TimeDecayFactor        float64            `json:"time_decay_factor"`
	TitleBoost             float64            `json:"title_boost"`
	ExactMatchBoost        float64            `json:"exact_match_boost"`
	FreshnessThresholdDays int                `json:"freshness_threshold_days"`
	MaxPerSource           int                `json:"max_per_source"`
	DefaultLimit           int                `json:"default_limit"`
	SourceWeights          map[string]float64 `json:"source_weights"`

	Features PresetFeatures `json:"features"`
	Semantic PresetSemantic `json:"semantic"`
	FullText PresetFullText `json:"full_text"`
	Cache    PresetCache    `json:"cache"`
}

// PresetFeatures is the resolved feature-flag group.
type PresetFeatures struct {
	SemanticSearch  bool `json:"semantic_search"`
	TimeDecay       bool `json:"time_decay"`
	TitleBoost      bool `json:"title_boost"`
	ExactMatchBoost bool `json:"exact_match_boost"`
}

// PresetSemantic is the resolved semantic group.
type PresetSemantic struct {
	MinSimilarity      float64 `json:"min_similarity"`
	EmbeddingModel     string  `json:"embedding_model"`
	EmbeddingDimension int     `json:"embedding_dimension"`
	TopK               int     `json:"top_k"`
}

// PresetFullText is the resolved keyword group.
type PresetFullText struct {
	SearchConfig    string `json:"search_config"`
	EnableStemming  bool   `json:"enable_stemming"`
	RemoveStopWords bool   `json:"remove_stop_words"`
	FuzzyDistance   int    `json:"fuzzy_distance"`
}

// PresetCache is the resolved cache group.
type PresetCache struct {
	Enabled    bool `json:"enabled"`
	TTLSeconds int  `json:"ttl_seconds"`
	MaxEntries int  `json:"max_entries"`
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
