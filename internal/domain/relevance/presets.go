package relevance

import (
	"fmt"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// Preset names. The set is closed: resolving anything else fails.
const (
	PresetDefault       = "default"
	PresetHighPrecision = "highPrecision"
	PresetHighRecall    = "highRecall"
	PresetRealtime      = "realtime"
	PresetAgent         = "agent"
)

// PresetNames lists every preset in canonical order.
func PresetNames() []string {
	return []string{PresetDefault, PresetHighPrecision, PresetHighRecall, PresetRealtime, PresetAgent}
}

// Resolve merges an optional override onto the named preset and validates
// the result. Pure function: neither the preset table nor the override is
// mutated, and the same inputs always yield the same config.
func Resolve(presetName string, o *Override) (Config, error) {
	base, err := PresetByName(presetName)
	if err != nil {
		return Config{}, err
	}
	merged := base.merge(o)
	if err := merged.validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// PresetByName returns the named preset without overrides applied.
func PresetByName(name string) (Config, error) {
	switch name {
	case PresetDefault:
		return presetDefault(), nil
	case PresetHighPrecision:
		return presetHighPrecision(), nil
	case PresetHighRecall:
		return presetHighRecall(), nil
	case PresetRealtime:
		return presetRealtime(), nil
	case PresetAgent:
		return presetAgent(), nil
	}
	return Config{}, fmt.Errorf("%w: %q", domain.ErrUnknownPreset, name)
}

// Preset factories return fresh values so a caller can never alias the
// table through the sourceWeights map.

// presetDefault balances keyword and semantic signals for interactive
// CRM search.
func presetDefault() Config {
	return Config{
		preset:                 PresetDefault,
		minScore:               0.1,
		textWeight:             0.4,
		semanticWeight:         0.4,
		recencyWeight:          0.2,
		timeDecayFactor:        0.01,
		titleBoost:             2.0,
		exactMatchBoost:        1.5,
		freshnessThresholdDays: 30,
		maxPerSource:           10,
		defaultLimit:           20,
		sourceWeights: map[source.Type]float64{
			source.Documents:     1.5,
			source.Opportunities: 1.2,
			source.Contacts:      1.1,
			source.Messages:      0.8,
		},
		features: Features{semanticSearch: true, timeDecay: true, titleBoost: true, exactMatchBoost: true},
		semantic: Semantic{minSimilarity: 0.7, embeddingModel: "text-embedding-3-small", embeddingDimension: 1536, topK: 50},
		fullText: FullText{searchConfig: "english", enableStemming: true, removeStopWords: true, fuzzyDistance: 1},
		cache:    Cache{enabled: true, ttlSeconds: 300, maxEntries: 1000},
	}
}

// presetHighPrecision favours exact, confident matches: tighter cutoffs,
// no fuzziness, stronger boosts.
func presetHighPrecision() Config {
	return Config{
		preset:                 PresetHighPrecision,
		minScore:               0.4,
		textWeight:             0.5,
		semanticWeight:         0.4,
		recencyWeight:          0.1,
		timeDecayFactor:        0.005,
		titleBoost:             2.5,
		exactMatchBoost:        2.0,
		freshnessThresholdDays: 90,
		maxPerSource:           5,
		defaultLimit:           10,
		sourceWeights: map[source.Type]float64{
			source.Documents: 1.5,
		},
		features: Features{semanticSearch: true, timeDecay: true, titleBoost: true, exactMatchBoost: true},
		semantic: Semantic{minSimilarity: 0.85, embeddingModel: "text-embedding-3-small", embeddingDimension: 1536, topK: 20},
		fullText: FullText{searchConfig: "english", enableStemming: false, removeStopWords: false, fuzzyDistance: 0},
		cache:    Cache{enabled: true, ttlSeconds: 600, maxEntries: 1000},
	}
}

// presetHighRecall casts the widest net: low cutoffs, fuzzy keywords,
// generous per-source caps.
func presetHighRecall() Config {
	return Config{
		preset:                 PresetHighRecall,
		minScore:               0.02,
		textWeight:             0.35,
		semanticWeight:         0.5,
		recencyWeight:          0.15,
		timeDecayFactor:        0.01,
		titleBoost:             1.5,
		exactMatchBoost:        1.2,
		freshnessThresholdDays: 180,
		maxPerSource:           20,
		defaultLimit:           50,
		sourceWeights:          map[source.Type]float64{},
		features:               Features{semanticSearch: true, timeDecay: true, titleBoost: true, exactMatchBoost: true},
		semantic:               Semantic{minSimilarity: 0.5, embeddingModel: "text-embedding-3-small", embeddingDimension: 1536, topK: 100},
		fullText:               FullText{searchConfig: "english", enableStemming: true, removeStopWords: true, fuzzyDistance: 2},
		cache:                  Cache{enabled: true, ttlSeconds: 300, maxEntries: 2000},
	}
}

// presetRealtime drops the semantic signal entirely (no embedding call on
// the hot path) and leans on recency. Weights stay as listed: disabling a
// signal never redistributes its share.
func presetRealtime() Config {
	return Config{
		preset:                 PresetRealtime,
		minScore:               0.05,
		textWeight:             0.5,
		semanticWeight:         0.3,
		recencyWeight:          0.4,
		timeDecayFactor:        0.05,
		titleBoost:             2.0,
		exactMatchBoost:        1.5,
		freshnessThresholdDays: 7,
		maxPerSource:           10,
		defaultLimit:           20,
		sourceWeights: map[source.Type]float64{
			source.Conversations: 1.3,
			source.Messages:      1.2,
			source.Tickets:       1.2,
		},
		features: Features{semanticSearch: false, timeDecay: true, titleBoost: true, exactMatchBoost: true},
		semantic: Semantic{minSimilarity: 0.7, embeddingModel: "text-embedding-3-small", embeddingDimension: 1536, topK: 50},
		fullText: FullText{searchConfig: "english", enableStemming: true, removeStopWords: true, fuzzyDistance: 1},
		cache:    Cache{enabled: true, ttlSeconds: 30, maxEntries: 500},
	}
}

// presetAgent tunes retrieval for LLM context building: semantic-heavy,
// small diverse result sets.
func presetAgent() Config {
	return Config{
		preset:                 PresetAgent,
		minScore:               0.15,
		textWeight:             0.25,
		semanticWeight:         0.6,
		recencyWeight:          0.15,
		timeDecayFactor:        0.01,
		titleBoost:             1.5,
		exactMatchBoost:        1.5,
		freshnessThresholdDays: 60,
		maxPerSource:           4,
		defaultLimit:           12,
		sourceWeights: map[source.Type]float64{
			source.Documents:     1.4,
			source.Conversations: 1.2,
		},
		features: Features{semanticSearch: true, timeDecay: true, titleBoost: true, exactMatchBoost: true},
		semantic: Semantic{minSimilarity: 0.75, embeddingModel: "text-embedding-3-small", embeddingDimension: 1536, topK: 30},
		fullText: FullText{searchConfig: "english", enableStemming: true, removeStopWords: true, fuzzyDistance: 1},
		cache:    Cache{enabled: true, ttlSeconds: 120, maxEntries: 1000},
	}
}
