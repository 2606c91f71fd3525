package chi

import (
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
)

// Error codes carried in errorResponse.Code. Stable contract values:
// clients branch on these, not on messages.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeNotFound               = "not_found"
	codeUnknownPreset          = "unknown_preset"
	codeInvalidConfig          = "invalid_config"
	codeRateLimited            = "rate_limited"
	codeQuotaExceeded          = "embedding_quota_exceeded"
	codeProviderError          = "embedding_provider_error"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeKeywordSearcherMissing = "keyword_search_not_supported"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query     string       `json:"query"`
	Preset    string       `json:"preset,omitempty"`
	Sources   []string     `json:"sources,omitempty"`
	Limit     int          `json:"limit,omitempty"`
	Overrides *overrideDTO `json:"overrides,omitempty"`
}

type overrideDTO struct {
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

	Features *featuresDTO `json:"features,omitempty"`
	Semantic *semanticDTO `json:"semantic,omitempty"`
	FullText *fullTextDTO `json:"full_text,omitempty"`
	Cache    *cacheDTO    `json:"cache,omitempty"`
}

type featuresDTO struct {
	SemanticSearch  *bool `json:"semantic_search,omitempty"`
	TimeDecay       *bool `json:"time_decay,omitempty"`
	TitleBoost      *bool `json:"title_boost,omitempty"`
	ExactMatchBoost *bool `json:"exact_match_boost,omitempty"`
}

type semanticDTO struct {
	MinSimilarity      *float64 `json:"min_similarity,omitempty"`
	EmbeddingModel     *string  `json:"embedding_model,omitempty"`
	EmbeddingDimension *int     `json:"embedding_dimension,omitempty"`
	TopK               *int     `json:"top_k,omitempty"`
}

type fullTextDTO struct {
	SearchConfig    *string `json:"search_config,omitempty"`
	EnableStemming  *bool   `json:"enable_stemming,omitempty"`
	RemoveStopWords *bool   `json:"remove_stop_words,omitempty"`
	FuzzyDistance   *int    `json:"fuzzy_distance,omitempty"`
}

type cacheDTO struct {
	Enabled    *bool `json:"enabled,omitempty"`
	TTLSeconds *int  `json:"ttl_seconds,omitempty"`
	MaxEntries *int  `json:"max_entries,omitempty"`
}

// toDomain converts the wire override to the domain one. Unknown source
// weight keys pass through; config validation rejects them.
func (o *overrideDTO) toDomain() *relevance.Override {
	if o == nil {
		return nil
	}
	out := &relevance.Override{
		MinScore:               o.MinScore,
		TextWeight:             o.TextWeight,
		SemanticWeight:         o.SemanticWeight,
		RecencyWeight:          o.RecencyWeight,
		TimeDecayFactor:        o.TimeDecayFactor,
		TitleBoost:             o.TitleBoost,
		ExactMatchBoost:        o.ExactMatchBoost,
		FreshnessThresholdDays: o.FreshnessThresholdDays,
		MaxPerSource:           o.MaxPerSource,
		DefaultLimit:           o.DefaultLimit,
	}
	if len(o.SourceWeights) > 0 {
		out.SourceWeights = make(map[source.Type]float64, len(o.SourceWeights))
		for k, v := range o.SourceWeights {
			out.SourceWeights[source.Type(k)] = v
		}
	}
	if o.Features != nil {
		out.Features = &relevance.FeaturesOverride{
			SemanticSearch:  o.Features.SemanticSearch,
			TimeDecay:       o.Features.TimeDecay,
			TitleBoost:      o.Features.TitleBoost,
			ExactMatchBoost: o.Features.ExactMatchBoost,
		}
	}
	if o.Semantic != nil {
		out.Semantic = &relevance.SemanticOverride{
			MinSimilarity:      o.Semantic.MinSimilarity,
			EmbeddingModel:     o.Semantic.EmbeddingModel,
			EmbeddingDimension: o.Semantic.EmbeddingDimension,
			TopK:               o.Semantic.TopK,
		}
	}
	if o.FullText != nil {
		out.FullText = &relevance.FullTextOverride{
			SearchConfig:    o.FullText.SearchConfig,
			EnableStemming:  o.FullText.EnableStemming,
			RemoveStopWords: o.FullText.RemoveStopWords,
			FuzzyDistance:   o.FullText.FuzzyDistance,
		}
	}
	if o.Cache != nil {
		out.Cache = &relevance.CacheOverride{
			Enabled:    o.Cache.Enabled,
			TTLSeconds: o.Cache.TTLSeconds,
			MaxEntries: o.Cache.MaxEntries,
		}
	}
	return out
}

func sourcesFromStrings(ss []string) []source.Type {
	if len(ss) == 0 {
		return nil
	}
	out := make([]source.Type, len(ss))
	for i, s := range ss {
		out[i] = source.Type(s)
	}
	return out
}

type searchResponse struct {
	Results  []resultItem    `json:"results"`
	Excluded []exclusionItem `json:"excluded,omitempty"`
	Total    int             `json:"total"`
	Preset   string          `json:"preset"`
	CacheHit bool            `json:"cache_hit"`
	Degraded bool            `json:"degraded,omitempty"`
}

type resultItem struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	Title      string       `json:"title,omitempty"`
	Snippet    string       `json:"snippet,omitempty"`
	Score      float64      `json:"score"`
	Breakdown  breakdownDTO `json:"breakdown"`
	TitleMatch bool         `json:"title_match,omitempty"`
	ExactMatch bool         `json:"exact_match,omitempty"`
}

type breakdownDTO struct {
	Text         float64 `json:"text"`
	Semantic     float64 `json:"semantic"`
	Recency      float64 `json:"recency"`
	TitleBoost   float64 `json:"title_boost"`
	ExactBoost   float64 `json:"exact_boost"`
	SourceWeight float64 `json:"source_weight"`
}

type exclusionItem struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

func searchResponseFromDomain(resp *rankuc.Response) searchResponse {
	out := searchResponse{
		Results:  make([]resultItem, len(resp.Results)),
		Total:    len(resp.Results),
		Preset:   resp.Config.Preset(),
		CacheHit: resp.CacheHit,
		Degraded: resp.Degraded,
	}
	for i := range resp.Results {
		out.Results[i] = resultFromDomain(&resp.Results[i])
	}
	if len(resp.Excluded) > 0 {
		out.Excluded = make([]exclusionItem, len(resp.Excluded))
		for i, e := range resp.Excluded {
			out.Excluded[i] = exclusionItem{
				ID:     e.ID(),
				Source: string(e.Source()),
				Reason: e.Reason(),
			}
		}
	}
	return out
}

func resultFromDomain(r *ranking.ScoredResult) resultItem {
	c := r.Candidate()
	b := r.Breakdown()
	return resultItem{
		ID:      c.ID,
		Source:  string(c.Source),
		Title:   c.Title,
		Snippet: c.Snippet,
		Score:   r.Score(),
		Breakdown: breakdownDTO{
			Text:         b.Text(),
			Semantic:     b.Semantic(),
			Recency:      b.Recency(),
			TitleBoost:   b.TitleBoost(),
			ExactBoost:   b.ExactBoost(),
			SourceWeight: b.SourceWeight(),
		},
		TitleMatch: c.TitleMatch,
		ExactMatch: c.ExactMatch,
	}
}

type indexDocumentRequest struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Title     string `json:"title,omitempty"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at,omitempty"` // RFC 3339; empty means "now"
}

type indexDocumentResponse struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}

type presetConfigDTO struct {
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

	Features presetFeaturesDTO `json:"features"`
	Semantic presetSemanticDTO `json:"semantic"`
	FullText presetFullTextDTO `json:"full_text"`
	Cache    presetCacheDTO    `json:"cache"`
}

type presetFeaturesDTO struct {
	SemanticSearch  bool `json:"semantic_search"`
	TimeDecay       bool `json:"time_decay"`
	TitleBoost      bool `json:"title_boost"`
	ExactMatchBoost bool `json:"exact_match_boost"`
}

type presetSemanticDTO struct {
	MinSimilarity      float64 `json:"min_similarity"`
	EmbeddingModel     string  `json:"embedding_model"`
	EmbeddingDimension int     `json:"embedding_dimension"`
	TopK               int     `json:"top_k"`
}

type presetFullTextDTO struct {
	SearchConfig    string `json:"search_config"`
	EnableStemming  bool   `json:"enable_stemming"`
	RemoveStopWords bool   `json:"remove_stop_words"`
	FuzzyDistance   int    `json:"fuzzy_distance"`
}

type presetCacheDTO struct {
	Enabled    bool `json:"enabled"`
	TTLSeconds int  `json:"ttl_seconds"`
	MaxEntries int  `json:"max_entries"`
}

type presetListResponse struct {
	Presets []presetConfigDTO `json:"presets"`
}

func presetConfigFromDomain(cfg relevance.Config) presetConfigDTO {
	weights := make(map[string]float64)
	for t, w := range cfg.SourceWeights() {
		weights[string(t)] = w
	}
	return presetConfigDTO{
		Preset:                 cfg.Preset(),
		MinScore:               cfg.MinScore(),
		TextWeight:             cfg.TextWeight(),
		SemanticWeight:         cfg.SemanticWeight(),
		RecencyWeight:          cfg.RecencyWeight(),
		TimeDecayFactor:        cfg.TimeDecayFactor(),
		TitleBoost:             cfg.TitleBoost(),
		ExactMatchBoost:        cfg.ExactMatchBoost(),
		FreshnessThresholdDays: cfg.FreshnessThresholdDays(),
		MaxPerSource:           cfg.MaxPerSource(),
		DefaultLimit:           cfg.DefaultLimit(),
		SourceWeights:          weights,
		Features: presetFeaturesDTO{
			SemanticSearch:  cfg.Features().SemanticSearch(),
			TimeDecay:       cfg.Features().TimeDecay(),
			TitleBoost:      cfg.Features().TitleBoost(),
			ExactMatchBoost: cfg.Features().ExactMatchBoost(),
		},
		Semantic: presetSemanticDTO{
			MinSimilarity:      cfg.Semantic().MinSimilarity(),
			EmbeddingModel:     cfg.Semantic().EmbeddingModel(),
			EmbeddingDimension: cfg.Semantic().EmbeddingDimension(),
			TopK:               cfg.Semantic().TopK(),
		},
		FullText: presetFullTextDTO{
			SearchConfig:    cfg.FullText().SearchConfig(),
			EnableStemming:  cfg.FullText().EnableStemming(),
			RemoveStopWords: cfg.FullText().RemoveStopWords(),
			FuzzyDistance:   cfg.FullText().FuzzyDistance(),
		},
		Cache: presetCacheDTO{
			Enabled:    cfg.Cache().Enabled(),
			TTLSeconds: cfg.Cache().TTLSeconds(),
			MaxEntries: cfg.Cache().MaxEntries(),
		},
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
