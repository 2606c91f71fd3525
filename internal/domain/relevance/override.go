package relevance

import "github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"

// Override is a partial, per-call adjustment to a preset. Nil fields are
// unchanged. Nested groups merge key-by-key: touching one field of
// Semantic leaves its siblings at preset values, and SourceWeights
// entries add to or replace individual keys, never the whole map.
type Override struct {
	MinScore               *float64
	TextWeight             *float64
	SemanticWeight         *float64
	RecencyWeight          *float64
	TimeDecayFactor        *float64
	TitleBoost             *float64
	ExactMatchBoost        *float64
	FreshnessThresholdDays *int
	MaxPerSource           *int
	DefaultLimit           *int
	SourceWeights          map[source.Type]float64
	Features               *FeaturesOverride
	Semantic               *SemanticOverride
	FullText               *FullTextOverride
	Cache                  *CacheOverride
}

// FeaturesOverride patches individual feature flags.
type FeaturesOverride struct {
	SemanticSearch  *bool
	TimeDecay       *bool
	TitleBoost      *bool
	ExactMatchBoost *bool
}

// SemanticOverride patches individual vector-search fields.
type SemanticOverride struct {
	MinSimilarity      *float64
	EmbeddingModel     *string
	EmbeddingDimension *int
	TopK               *int
}

// FullTextOverride patches individual keyword-search fields.
type FullTextOverride struct {
	SearchConfig    *string
	EnableStemming  *bool
	RemoveStopWords *bool
	FuzzyDistance   *int
}

// CacheOverride patches individual result-cache fields.
type CacheOverride struct {
	Enabled    *bool
	TTLSeconds *int
	MaxEntries *int
}

// merge applies the override onto a copy of the config. Validation happens
// afterwards, on the merged result, so an override may carry any values.
func (c Config) merge(o *Override) Config {
	out := c
	out.sourceWeights = c.SourceWeights()
	if o == nil {
		return out
	}

	if o.MinScore != nil {
		out.minScore = *o.MinScore
	}
	if o.TextWeight != nil {
		out.textWeight = *o.TextWeight
	}
	if o.SemanticWeight != nil {
		out.semanticWeight = *o.SemanticWeight
	}
	if o.RecencyWeight != nil {
		out.recencyWeight = *o.RecencyWeight
	}
	if o.TimeDecayFactor != nil {
		out.timeDecayFactor = *o.TimeDecayFactor
	}
	if o.TitleBoost != nil {
		out.titleBoost = *o.TitleBoost
	}
	if o.ExactMatchBoost != nil {
		out.exactMatchBoost = *o.ExactMatchBoost
	}
	if o.FreshnessThresholdDays != nil {
		out.freshnessThresholdDays = *o.FreshnessThresholdDays
	}
	if o.MaxPerSource != nil {
		out.maxPerSource = *o.MaxPerSource
	}
	if o.DefaultLimit != nil {
		out.defaultLimit = *o.DefaultLimit
	}
	for t, w := range o.SourceWeights {
		out.sourceWeights[t] = w
	}
	if o.Features != nil {
		if o.Features.SemanticSearch != nil {
			out.features.semanticSearch = *o.Features.SemanticSearch
		}
		if o.Features.TimeDecay != nil {
			out.features.timeDecay = *o.Features.TimeDecay
		}
		if o.Features.TitleBoost != nil {
			out.features.titleBoost = *o.Features.TitleBoost
		}
		if o.Features.ExactMatchBoost != nil {
			out.features.exactMatchBoost = *o.Features.ExactMatchBoost
		}
	}
	if o.Semantic != nil {
		if o.Semantic.MinSimilarity != nil {
			out.semantic.minSimilarity = *o.Semantic.MinSimilarity
		}
		if o.Semantic.EmbeddingModel != nil {
			out.semantic.embeddingModel = *o.Semantic.EmbeddingModel
		}
		if o.Semantic.EmbeddingDimension != nil {
			out.semantic.embeddingDimension = *o.Semantic.EmbeddingDimension
		}
		if o.Semantic.TopK != nil {
			out.semantic.topK = *o.Semantic.TopK
		}
	}
	if o.FullText != nil {
		if o.FullText.SearchConfig != nil {
			out.fullText.searchConfig = *o.FullText.SearchConfig
		}
		if o.FullText.EnableStemming != nil {
			out.fullText.enableStemming = *o.FullText.EnableStemming
		}
		if o.FullText.RemoveStopWords != nil {
			out.fullText.removeStopWords = *o.FullText.RemoveStopWords
		}
		if o.FullText.FuzzyDistance != nil {
			out.fullText.fuzzyDistance = *o.FullText.FuzzyDistance
		}
	}
	if o.Cache != nil {
		if o.Cache.Enabled != nil {
			out.cache.enabled = *o.Cache.Enabled
		}
		if o.Cache.TTLSeconds != nil {
			out.cache.ttlSeconds = *o.Cache.TTLSeconds
		}
		if o.Cache.MaxEntries != nil {
			out.cache.maxEntries = *o.Cache.MaxEntries
		}
	}
	return out
}
