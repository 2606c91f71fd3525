package relevance

import (
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	domrel "github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
)

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

func searchResponseFromDomain(resp *rankuc.Response, tokens int) *SearchResponse {
	out := &SearchResponse{
		Results:         make([]Result, len(resp.Results)),
		Total:           len(resp.Results),
		Preset:          resp.Config.Preset(),
		CacheHit:        resp.CacheHit,
		Degraded:        resp.Degraded,
		EmbeddingTokens: tokens,
	}
	for i, r := range resp.Results {
		out.Results[i] = resultFromDomain(r)
	}
	if len(resp.Excluded) > 0 {
		out.Excluded = make([]Exclusion, len(resp.Excluded))
		for i, ex := range resp.Excluded {
			out.Excluded[i] = Exclusion{
				ID:     ex.ID(),
				Source: string(ex.Source()),
				Reason: ex.Reason(),
			}
		}
	}
	return out
}

func resultFromDomain(r ranking.ScoredResult) Result {
	c := r.Candidate()
	b := r.Breakdown()
	return Result{
		ID:         c.ID,
		Source:     string(c.Source),
		Title:      c.Title,
		Snippet:    c.Snippet,
		Score:      r.Score(),
		TitleMatch: c.TitleMatch,
		ExactMatch: c.ExactMatch,
		Breakdown: Breakdown{
			Text:         b.Text(),
			Semantic:     b.Semantic(),
			Recency:      b.Recency(),
			TitleBoost:   b.TitleBoost(),
			ExactBoost:   b.ExactBoost(),
			SourceWeight: b.SourceWeight(),
		},
	}
}

func presetConfigFromDomain(cfg domrel.Config) PresetConfig {
	weights := make(map[string]float64)
	for t, w := range cfg.SourceWeights() {
		weights[string(t)] = w
	}
	return PresetConfig{
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
		Features: FeatureFlags{
			SemanticSearch:  cfg.Features().SemanticSearch(),
			TimeDecay:       cfg.Features().TimeDecay(),
			TitleBoost:      cfg.Features().TitleBoost(),
			ExactMatchBoost: cfg.Features().ExactMatchBoost(),
		},
		Semantic: SemanticConfig{
			MinSimilarity:      cfg.Semantic().MinSimilarity(),
			EmbeddingModel:     cfg.Semantic().EmbeddingModel(),
			EmbeddingDimension: cfg.Semantic().EmbeddingDimension(),
			TopK:               cfg.Semantic().TopK(),
		},
		FullText: FullTextConfig{
			SearchConfig:    cfg.FullText().SearchConfig(),
			EnableStemming:  cfg.FullText().EnableStemming(),
			RemoveStopWords: cfg.FullText().RemoveStopWords(),
			FuzzyDistance:   cfg.FullText().FuzzyDistance(),
		},
		Cache: CacheConfig{
			Enabled:    cfg.Cache().Enabled(),
			TTLSeconds: cfg.Cache().TTLSeconds(),
			MaxEntries: cfg.Cache().MaxEntries(),
		},
	}
}
