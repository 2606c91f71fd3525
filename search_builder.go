package relevance

import (
	"context"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	domrel "github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
)

// Query starts a fluent search. Builder knobs become per-call config
// overrides on top of the chosen preset; untouched settings keep their
// preset values.
func (c *Client) Query(text string) *SearchBuilder {
	return &SearchBuilder{client: c, text: text}
}

// SearchBuilder is a fluent builder for search queries.
type SearchBuilder struct {
	client *Client

	text    string
	preset  string
	sources []string
	limit   int

	minScore       *float64
	minSimilarity  *float64
	topK           *int
	textWeight     *float64
	semanticWeight *float64
	recencyWeight  *float64
	noSemantic     bool
	noCache        bool
}

// Preset selects the base configuration preset.
func (b *SearchBuilder) Preset(name string) *SearchBuilder {
	b.preset = name
	return b
}

// Sources restricts retrieval to the given CRM source types.
func (b *SearchBuilder) Sources(sources ...string) *SearchBuilder {
	b.sources = append(b.sources, sources...)
	return b
}

// Limit caps the number of returned results.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// MinScore overrides the preset's relevance cutoff.
func (b *SearchBuilder) MinScore(v float64) *SearchBuilder {
	b.minScore = &v
	return b
}

// MinSimilarity overrides the cosine threshold below which vector hits
// are discarded.
func (b *SearchBuilder) MinSimilarity(v float64) *SearchBuilder {
	b.minSimilarity = &v
	return b
}

// TopK overrides how many nearest neighbours the vector search retrieves.
func (b *SearchBuilder) TopK(k int) *SearchBuilder {
	b.topK = &k
	return b
}

// Weights overrides the text/semantic/recency signal weights. Each is an
// independent coefficient in [0,1]; they are not required to sum to 1.
func (b *SearchBuilder) Weights(text, semantic, recency float64) *SearchBuilder {
	b.textWeight = &text
	b.semanticWeight = &semantic
	b.recencyWeight = &recency
	return b
}

// WithoutSemanticSearch turns off embedding retrieval for this call.
func (b *SearchBuilder) WithoutSemanticSearch() *SearchBuilder {
	b.noSemantic = true
	return b
}

// WithoutCache bypasses the result cache for this call.
func (b *SearchBuilder) WithoutCache() *SearchBuilder {
	b.noCache = true
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*SearchResponse, error) {
	q, err := ranking.New(b.text, b.preset, b.override(), sourcesFromStrings(b.sources), b.limit)
	if err != nil {
		return nil, err
	}
	return b.client.run(ctx, q)
}

// override assembles the config patch, nil when no knob was touched.
func (b *SearchBuilder) override() *domrel.Override {
	var o domrel.Override
	touched := false

	if b.minScore != nil {
		o.MinScore = b.minScore
		touched = true
	}
	if b.textWeight != nil {
		o.TextWeight = b.textWeight
		o.SemanticWeight = b.semanticWeight
		o.RecencyWeight = b.recencyWeight
		touched = true
	}
	if b.topK != nil || b.minSimilarity != nil {
		o.Semantic = &domrel.SemanticOverride{TopK: b.topK, MinSimilarity: b.minSimilarity}
		touched = true
	}
	if b.noSemantic {
		off := false
		o.Features = &domrel.FeaturesOverride{SemanticSearch: &off}
		touched = true
	}
	if b.noCache {
		off := false
		o.Cache = &domrel.CacheOverride{Enabled: &off}
		touched = true
	}

	if !touched {
		return nil
	}
	return &o
}
