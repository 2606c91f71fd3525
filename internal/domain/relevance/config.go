package relevance

import (
	"fmt"
	"math"
	"strings"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// Config is the effective ranking configuration for one query. Built from
// a named preset plus an optional override, validated once, then read-only
// for its lifetime. Weights are independent dials: they are linear
// combination coefficients and are not required to sum to 1.
type Config struct {
	preset                 string
	minScore               float64
	textWeight             float64
	semanticWeight         float64
	recencyWeight          float64
	timeDecayFactor        float64
	titleBoost             float64
	exactMatchBoost        float64
	freshnessThresholdDays int
	maxPerSource           int
	defaultLimit           int
	sourceWeights          map[source.Type]float64
	features               Features
	semantic               Semantic
	fullText               FullText
	cache                  Cache
}

// Features is the per-config signal switchboard.
type Features struct {
	semanticSearch  bool
	timeDecay       bool
	titleBoost      bool
	exactMatchBoost bool
}

// SemanticSearch reports whether the semantic contribution is enabled.
func (f Features) SemanticSearch() bool { return f.semanticSearch }

// TimeDecay reports whether the recency contribution is enabled.
func (f Features) TimeDecay() bool { return f.timeDecay }

// TitleBoost reports whether the title-match boost is applied.
func (f Features) TitleBoost() bool { return f.titleBoost }

// ExactMatchBoost reports whether the exact-match boost is applied.
func (f Features) ExactMatchBoost() bool { return f.exactMatchBoost }

// Semantic holds the vector-search sub-config.
type Semantic struct {
	minSimilarity      float64
	embeddingModel     string
	embeddingDimension int
	topK               int
}

// MinSimilarity returns the minimum cosine similarity for a semantic hit.
func (s Semantic) MinSimilarity() float64 { return s.minSimilarity }

// EmbeddingModel returns the embedding model identifier.
func (s Semantic) EmbeddingModel() string { return s.embeddingModel }

// EmbeddingDimension returns the expected vector dimension.
func (s Semantic) EmbeddingDimension() int { return s.embeddingDimension }

// TopK returns the number of nearest neighbours fetched per query.
func (s Semantic) TopK() int { return s.topK }

// FullText holds the keyword-search sub-config.
type FullText struct {
	searchConfig    string
	enableStemming  bool
	removeStopWords bool
	fuzzyDistance   int
}

// SearchConfig returns the text-analysis profile name (index language).
func (f FullText) SearchConfig() string { return f.searchConfig }

// EnableStemming reports whether terms are stemmed at query time.
func (f FullText) EnableStemming() bool { return f.enableStemming }

// RemoveStopWords reports whether stop words are stripped from queries.
func (f FullText) RemoveStopWords() bool { return f.removeStopWords }

// FuzzyDistance returns the max Levenshtein distance for fuzzy terms (0 = exact).
func (f FullText) FuzzyDistance() int { return f.fuzzyDistance }

// Cache holds the result-cache sub-config.
type Cache struct {
	enabled    bool
	ttlSeconds int
	maxEntries int
}

// Enabled reports whether ranked results are cached.
func (c Cache) Enabled() bool { return c.enabled }

// TTLSeconds returns the entry lifetime.
func (c Cache) TTLSeconds() int { return c.ttlSeconds }

// MaxEntries returns the capacity bound (LRU beyond it).
func (c Cache) MaxEntries() int { return c.maxEntries }

// Preset returns the name of the preset this config was resolved from.
func (c Config) Preset() string { return c.preset }

// MinScore returns the post-boost score cutoff.
func (c Config) MinScore() float64 { return c.minScore }

// TextWeight returns the keyword-score coefficient.
func (c Config) TextWeight() float64 { return c.textWeight }

// SemanticWeight returns the similarity-score coefficient.
func (c Config) SemanticWeight() float64 { return c.semanticWeight }

// RecencyWeight returns the recency-score coefficient.
func (c Config) RecencyWeight() float64 { return c.recencyWeight }

// TimeDecayFactor returns the exponential decay rate per day of age.
func (c Config) TimeDecayFactor() float64 { return c.timeDecayFactor }

// TitleBoost returns the multiplier applied on a title match.
func (c Config) TitleBoost() float64 { return c.titleBoost }

// ExactMatchBoost returns the multiplier applied on an exact phrase match.
func (c Config) ExactMatchBoost() float64 { return c.exactMatchBoost }

// FreshnessThresholdDays returns the age past which the stale penalty kicks in.
func (c Config) FreshnessThresholdDays() int { return c.freshnessThresholdDays }

// MaxPerSource returns the per-source-type result cap.
func (c Config) MaxPerSource() int { return c.maxPerSource }

// DefaultLimit returns the result limit used when the caller supplies none.
func (c Config) DefaultLimit() int { return c.defaultLimit }

// SourceWeight returns the multiplier for a source type, 1.0 if unset.
func (c Config) SourceWeight(t source.Type) float64 {
	if w, ok := c.sourceWeights[t]; ok {
		return w
	}
	return 1.0
}

// SourceWeights returns a copy of the explicit per-source multipliers.
func (c Config) SourceWeights() map[source.Type]float64 {
	out := make(map[source.Type]float64, len(c.sourceWeights))
	for k, v := range c.sourceWeights {
		out[k] = v
	}
	return out
}

// Features returns the signal switchboard.
func (c Config) Features() Features { return c.features }

// Semantic returns the vector-search sub-config.
func (c Config) Semantic() Semantic { return c.semantic }

// FullText returns the keyword-search sub-config.
func (c Config) FullText() FullText { return c.fullText }

// Cache returns the result-cache sub-config.
func (c Config) Cache() Cache { return c.cache }

// WithoutSemanticSearch derives a copy with the semantic signal switched
// off. Weights stay as they are: the signal is dropped, not redistributed.
func (c Config) WithoutSemanticSearch() Config {
	out := c
	out.sourceWeights = c.SourceWeights()
	out.features.semanticSearch = false
	return out
}

// Fingerprint renders every field in a fixed order. Two configs with the
// same fingerprint rank identically, so it is safe to key caches on it.
func (c Config) Fingerprint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ms=%g;tw=%g;sw=%g;rw=%g;tdf=%g;tb=%g;emb=%g;fresh=%d;mps=%d;lim=%d",
		c.minScore, c.textWeight, c.semanticWeight, c.recencyWeight,
		c.timeDecayFactor, c.titleBoost, c.exactMatchBoost,
		c.freshnessThresholdDays, c.maxPerSource, c.defaultLimit)
	sb.WriteString(";src=")
	for _, t := range source.All() {
		if w, ok := c.sourceWeights[t]; ok {
			fmt.Fprintf(&sb, "%s:%g,", t, w)
		}
	}
	fmt.Fprintf(&sb, ";feat=%t,%t,%t,%t",
		c.features.semanticSearch, c.features.timeDecay,
		c.features.titleBoost, c.features.exactMatchBoost)
	fmt.Fprintf(&sb, ";sem=%g,%s,%d,%d",
		c.semantic.minSimilarity, c.semantic.embeddingModel,
		c.semantic.embeddingDimension, c.semantic.topK)
	fmt.Fprintf(&sb, ";ft=%s,%t,%t,%d",
		c.fullText.searchConfig, c.fullText.enableStemming,
		c.fullText.removeStopWords, c.fullText.fuzzyDistance)
	fmt.Fprintf(&sb, ";cache=%t,%d,%d",
		c.cache.enabled, c.cache.ttlSeconds, c.cache.maxEntries)
	return sb.String()
}

// validate enforces the §3-style range invariants. First violation wins;
// nothing is clamped.
func (c Config) validate() error {
	if c.minScore < 0 || c.minScore > 1 {
		return domain.NewFieldError("minScore", c.minScore, 0, 1)
	}
	if c.textWeight < 0 || c.textWeight > 1 {
		return domain.NewFieldError("textWeight", c.textWeight, 0, 1)
	}
	if c.semanticWeight < 0 || c.semanticWeight > 1 {
		return domain.NewFieldError("semanticWeight", c.semanticWeight, 0, 1)
	}
	if c.recencyWeight < 0 || c.recencyWeight > 1 {
		return domain.NewFieldError("recencyWeight", c.recencyWeight, 0, 1)
	}
	if c.timeDecayFactor < 0 || c.timeDecayFactor > 1 {
		return domain.NewFieldError("timeDecayFactor", c.timeDecayFactor, 0, 1)
	}
	if c.titleBoost < 1 || c.titleBoost > 5 {
		return domain.NewFieldError("titleBoost", c.titleBoost, 1, 5)
	}
	if c.exactMatchBoost < 1 || c.exactMatchBoost > 5 {
		return domain.NewFieldError("exactMatchBoost", c.exactMatchBoost, 1, 5)
	}
	if c.freshnessThresholdDays < 1 {
		return domain.NewFieldError("freshnessThresholdDays", float64(c.freshnessThresholdDays), 1, math.Inf(1))
	}
	if c.maxPerSource < 1 || c.maxPerSource > 100 {
		return domain.NewFieldError("maxPerSource", float64(c.maxPerSource), 1, 100)
	}
	if c.defaultLimit < 1 || c.defaultLimit > 100 {
		return domain.NewFieldError("defaultLimit", float64(c.defaultLimit), 1, 100)
	}
	for t, w := range c.sourceWeights {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown source type %q in sourceWeights", domain.ErrConfigInvalid, t)
		}
		if w < 0 || w > 2 {
			return domain.NewFieldError("sourceWeights."+string(t), w, 0, 2)
		}
	}
	if c.semantic.minSimilarity < 0 || c.semantic.minSimilarity > 1 {
		return domain.NewFieldError("semantic.minSimilarity", c.semantic.minSimilarity, 0, 1)
	}
	if c.semantic.embeddingModel == "" {
		return fmt.Errorf("%w: semantic.embeddingModel is required", domain.ErrConfigInvalid)
	}
	if c.semantic.embeddingDimension < 1 {
		return domain.NewFieldError("semantic.embeddingDimension", float64(c.semantic.embeddingDimension), 1, math.Inf(1))
	}
	if c.semantic.topK < 1 || c.semantic.topK > 100 {
		return domain.NewFieldError("semantic.topK", float64(c.semantic.topK), 1, 100)
	}
	if c.fullText.fuzzyDistance < 0 || c.fullText.fuzzyDistance > 5 {
		return domain.NewFieldError("fullText.fuzzyDistance", float64(c.fullText.fuzzyDistance), 0, 5)
	}
	if c.cache.ttlSeconds < 0 {
		return domain.NewFieldError("cache.ttlSeconds", float64(c.cache.ttlSeconds), 0, math.Inf(1))
	}
	if c.cache.maxEntries < 0 {
		return domain.NewFieldError("cache.maxEntries", float64(c.cache.maxEntries), 0, math.Inf(1))
	}
	return nil
}
