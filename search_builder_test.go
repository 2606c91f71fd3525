package relevance

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	domrel "github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
)

func TestSearchBuilder_OverrideNilWhenUntouched(t *testing.T) {
	b := (&Client{}).Query("acme").Preset("agent").Sources("documents").Limit(5)
	if o := b.override(); o != nil {
		t.Errorf("expected nil override, got %+v", o)
	}
}

func TestSearchBuilder_OverrideShape(t *testing.T) {
	b := (&Client{}).Query("acme").
		MinScore(0.25).
		MinSimilarity(0.4).
		TopK(17).
		Weights(0.5, 0.3, 0.2).
		WithoutSemanticSearch().
		WithoutCache()

	o := b.override()
	if o == nil {
		t.Fatal("expected override")
	}
	if o.MinScore == nil || *o.MinScore != 0.25 {
		t.Errorf("minScore = %v", o.MinScore)
	}
	if o.TextWeight == nil || *o.TextWeight != 0.5 ||
		o.SemanticWeight == nil || *o.SemanticWeight != 0.3 ||
		o.RecencyWeight == nil || *o.RecencyWeight != 0.2 {
		t.Errorf("weights = %v/%v/%v", o.TextWeight, o.SemanticWeight, o.RecencyWeight)
	}
	if o.Semantic == nil || o.Semantic.TopK == nil || *o.Semantic.TopK != 17 {
		t.Errorf("semantic override = %+v", o.Semantic)
	}
	if o.Semantic.MinSimilarity == nil || *o.Semantic.MinSimilarity != 0.4 {
		t.Errorf("minSimilarity = %v", o.Semantic.MinSimilarity)
	}
	if o.Semantic.EmbeddingModel != nil || o.Semantic.EmbeddingDimension != nil {
		t.Errorf("untouched semantic siblings must stay nil: %+v", o.Semantic)
	}
	if o.Features == nil || o.Features.SemanticSearch == nil || *o.Features.SemanticSearch {
		t.Errorf("features override = %+v", o.Features)
	}
	if o.Cache == nil || o.Cache.Enabled == nil || *o.Cache.Enabled {
		t.Errorf("cache override = %+v", o.Cache)
	}
}

// --- end-to-end over stubbed retrieval ---

type builderStubSource struct {
	candidates []candidate.Candidate
	gotSources []source.Type
	gotVector  []float32
}

func (s *builderStubSource) Fetch(
	_ context.Context, _ string, vector []float32,
	sources []source.Type, _ domrel.Config,
) ([]candidate.Candidate, error) {
	s.gotSources = sources
	s.gotVector = vector
	return s.candidates, nil
}

func (s *builderStubSource) SupportsTextSearch(_ context.Context) bool { return true }

type builderNopCache struct{}

func (builderNopCache) Get(_ context.Context, _ string) ([]ranking.ScoredResult, bool) {
	return nil, false
}
func (builderNopCache) Put(_ context.Context, _ string, _ []ranking.ScoredResult, _ time.Duration) {}
func (builderNopCache) Invalidate(_ context.Context, _ string) error                              { return nil }

type builderStubEmbedder struct {
	calls int
}

func (e *builderStubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	return domain.EmbeddingResult{Embedding: make([]float32, 1536), TotalTokens: 4}, nil
}

func newBuilderTestClient(src *builderStubSource, emb *builderStubEmbedder) *Client {
	return &Client{
		rank: rankuc.New(src, builderNopCache{}, emb, zap.NewNop()),
		log:  zap.NewNop(),
	}
}

func TestSearchBuilder_Do(t *testing.T) {
	sem := 0.9
	src := &builderStubSource{candidates: []candidate.Candidate{
		{
			ID: "msg-7", Source: source.Messages,
			RawTextScore: 0.3, AgeDays: 200,
		},
		{
			ID: "doc-1", Source: source.Documents, Title: "Acme renewal",
			RawTextScore: 0.9, RawSemanticScore: &sem, AgeDays: 1,
			TitleMatch: true, ExactMatch: true,
		},
	}}
	emb := &builderStubEmbedder{}
	c := newBuilderTestClient(src, emb)

	resp, err := c.Query("acme renewal").
		Sources("documents", "messages").
		Limit(10).
		Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", emb.calls)
	}
	if len(src.gotVector) != 1536 {
		t.Errorf("vector len = %d, want 1536", len(src.gotVector))
	}
	if len(src.gotSources) != 2 {
		t.Errorf("source filter = %v", src.gotSources)
	}
	if resp.Preset != domrel.PresetDefault {
		t.Errorf("preset = %q, want default", resp.Preset)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID != "doc-1" {
		t.Fatalf("expected doc-1 ranked first, got %+v", resp.Results)
	}
	if resp.EmbeddingTokens != 4 {
		t.Errorf("tokens = %d, want 4", resp.EmbeddingTokens)
	}
	if resp.Degraded {
		t.Error("unexpected degraded flag")
	}
}

func TestSearchBuilder_Do_WithoutSemanticSkipsEmbedder(t *testing.T) {
	src := &builderStubSource{candidates: []candidate.Candidate{
		{ID: "doc-1", Source: source.Documents, RawTextScore: 0.9, AgeDays: 1},
	}}
	emb := &builderStubEmbedder{}
	c := newBuilderTestClient(src, emb)

	resp, err := c.Query("acme").WithoutSemanticSearch().Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder calls = %d, want 0", emb.calls)
	}
	if src.gotVector != nil {
		t.Errorf("expected nil vector, got len %d", len(src.gotVector))
	}
	if resp.EmbeddingTokens != 0 {
		t.Errorf("tokens = %d, want 0", resp.EmbeddingTokens)
	}
}

func TestSearchBuilder_Do_InvalidOverride(t *testing.T) {
	src := &builderStubSource{}
	c := newBuilderTestClient(src, &builderStubEmbedder{})

	// textWeight outside [0,1]; the merged config fails validation.
	_, err := c.Query("acme").Weights(1.4, 0.3, 0.2).Do(context.Background())
	if err == nil {
		t.Fatal("expected config validation error")
	}
}
