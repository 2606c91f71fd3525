package relevance

import (
	"errors"
	"testing"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func b(v bool) *bool         { return &v }
func str(v string) *string   { return &v }

func TestResolve_AllPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Resolve(name, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Preset() != name {
				t.Errorf("Preset() = %q, want %q", cfg.Preset(), name)
			}
		})
	}
}

func TestResolve_UnknownPreset(t *testing.T) {
	_, err := Resolve("turbo", nil)
	if !errors.Is(err, domain.ErrUnknownPreset) {
		t.Fatalf("error = %v, want ErrUnknownPreset", err)
	}
}

func TestResolve_DefaultPresetValues(t *testing.T) {
	cfg, err := Resolve(PresetDefault, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TextWeight() != 0.4 {
		t.Errorf("TextWeight() = %v, want 0.4", cfg.TextWeight())
	}
	if cfg.SemanticWeight() != 0.4 {
		t.Errorf("SemanticWeight() = %v, want 0.4", cfg.SemanticWeight())
	}
	if cfg.RecencyWeight() != 0.2 {
		t.Errorf("RecencyWeight() = %v, want 0.2", cfg.RecencyWeight())
	}
	if cfg.TitleBoost() != 2.0 {
		t.Errorf("TitleBoost() = %v, want 2.0", cfg.TitleBoost())
	}
	if cfg.SourceWeight(source.Documents) != 1.5 {
		t.Errorf("SourceWeight(documents) = %v, want 1.5", cfg.SourceWeight(source.Documents))
	}
	if cfg.SourceWeight(source.Tickets) != 1.0 {
		t.Errorf("SourceWeight(tickets) = %v, want 1.0 default", cfg.SourceWeight(source.Tickets))
	}
}

func TestResolve_RealtimeDisablesSemantic(t *testing.T) {
	cfg, err := Resolve(PresetRealtime, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Features().SemanticSearch() {
		t.Error("realtime preset must disable semantic search")
	}
	// the semantic weight is kept as a dial, just unused
	if cfg.SemanticWeight() == 0 {
		t.Error("disabling the signal must not zero its weight")
	}
}

func TestResolve_NestedOverrideKeepsSiblings(t *testing.T) {
	base, _ := Resolve(PresetDefault, nil)
	cfg, err := Resolve(PresetDefault, &Override{
		Semantic: &SemanticOverride{MinSimilarity: f64(0.9)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Semantic().MinSimilarity() != 0.9 {
		t.Errorf("MinSimilarity = %v, want 0.9", cfg.Semantic().MinSimilarity())
	}
	if cfg.Semantic().TopK() != base.Semantic().TopK() {
		t.Errorf("TopK changed: %d vs %d", cfg.Semantic().TopK(), base.Semantic().TopK())
	}
	if cfg.Semantic().EmbeddingModel() != base.Semantic().EmbeddingModel() {
		t.Error("EmbeddingModel changed")
	}
	if cfg.FullText() != base.FullText() {
		t.Error("FullText group changed by a semantic override")
	}
	if cfg.Cache() != base.Cache() {
		t.Error("Cache group changed by a semantic override")
	}
	if cfg.Features() != base.Features() {
		t.Error("Features group changed by a semantic override")
	}
	for typ, w := range base.SourceWeights() {
		if cfg.SourceWeight(typ) != w {
			t.Errorf("SourceWeight(%s) changed: %v vs %v", typ, cfg.SourceWeight(typ), w)
		}
	}
}

func TestResolve_FeatureFlagOverride(t *testing.T) {
	cfg, err := Resolve(PresetDefault, &Override{
		Features: &FeaturesOverride{TimeDecay: b(false)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Features().TimeDecay() {
		t.Error("TimeDecay still enabled after override")
	}
	if !cfg.Features().SemanticSearch() || !cfg.Features().TitleBoost() || !cfg.Features().ExactMatchBoost() {
		t.Error("sibling flags changed by a single-flag override")
	}
}

func TestResolve_SourceWeightsMergeByKey(t *testing.T) {
	cfg, err := Resolve(PresetDefault, &Override{
		SourceWeights: map[source.Type]float64{source.Tickets: 1.8},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SourceWeight(source.Tickets) != 1.8 {
		t.Errorf("SourceWeight(tickets) = %v, want 1.8", cfg.SourceWeight(source.Tickets))
	}
	// preset keys survive
	if cfg.SourceWeight(source.Documents) != 1.5 {
		t.Errorf("SourceWeight(documents) = %v, want 1.5", cfg.SourceWeight(source.Documents))
	}
}

func TestResolve_OutOfRangeFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		override *Override
		field    string
	}{
		{"textWeight above", &Override{TextWeight: f64(1.2)}, "textWeight"},
		{"minScore negative", &Override{MinScore: f64(-0.1)}, "minScore"},
		{"titleBoost below", &Override{TitleBoost: f64(0.5)}, "titleBoost"},
		{"titleBoost above", &Override{TitleBoost: f64(6)}, "titleBoost"},
		{"decay above", &Override{TimeDecayFactor: f64(1.5)}, "timeDecayFactor"},
		{"maxPerSource zero", &Override{MaxPerSource: i(0)}, "maxPerSource"},
		{"defaultLimit above", &Override{DefaultLimit: i(500)}, "defaultLimit"},
		{"freshness zero", &Override{FreshnessThresholdDays: i(0)}, "freshnessThresholdDays"},
		{"source weight above", &Override{SourceWeights: map[source.Type]float64{source.Leads: 2.5}}, "sourceWeights.leads"},
		{"minSimilarity above", &Override{Semantic: &SemanticOverride{MinSimilarity: f64(1.2)}}, "semantic.minSimilarity"},
		{"topK above", &Override{Semantic: &SemanticOverride{TopK: i(200)}}, "semantic.topK"},
		{"fuzzy above", &Override{FullText: &FullTextOverride{FuzzyDistance: i(9)}}, "fullText.fuzzyDistance"},
		{"ttl negative", &Override{Cache: &CacheOverride{TTLSeconds: i(-1)}}, "cache.ttlSeconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(PresetDefault, tt.override)
			if !errors.Is(err, domain.ErrConfigInvalid) {
				t.Fatalf("error = %v, want ErrConfigInvalid", err)
			}
			var fe *domain.FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error %v does not name a field", err)
			}
			if fe.Field != tt.field {
				t.Errorf("field = %q, want %q", fe.Field, tt.field)
			}
		})
	}
}

func TestResolve_UnknownSourceKey(t *testing.T) {
	_, err := Resolve(PresetDefault, &Override{
		SourceWeights: map[source.Type]float64{"emails": 1.0},
	})
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("error = %v, want ErrConfigInvalid", err)
	}
}

func TestResolve_DoesNotMutatePreset(t *testing.T) {
	_, err := Resolve(PresetDefault, &Override{
		SourceWeights: map[source.Type]float64{source.Documents: 0.3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh, _ := Resolve(PresetDefault, nil)
	if fresh.SourceWeight(source.Documents) != 1.5 {
		t.Errorf("preset mutated: SourceWeight(documents) = %v", fresh.SourceWeight(source.Documents))
	}
}

func TestResolve_EmptyModelRejected(t *testing.T) {
	_, err := Resolve(PresetDefault, &Override{
		Semantic: &SemanticOverride{EmbeddingModel: str("")},
	})
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("error = %v, want ErrConfigInvalid", err)
	}
}

func TestWithoutSemanticSearch(t *testing.T) {
	cfg, _ := Resolve(PresetDefault, nil)
	degraded := cfg.WithoutSemanticSearch()

	if degraded.Features().SemanticSearch() {
		t.Error("derived config still has semantic search enabled")
	}
	if !cfg.Features().SemanticSearch() {
		t.Error("original config was mutated")
	}
	if degraded.SemanticWeight() != cfg.SemanticWeight() {
		t.Error("weights must not be renormalized")
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := Resolve(PresetDefault, nil)
	b, _ := Resolve(PresetDefault, nil)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical configs produced different fingerprints")
	}

	c, _ := Resolve(PresetDefault, &Override{MinScore: f64(0.2)})
	if c.Fingerprint() == a.Fingerprint() {
		t.Error("changed field did not change the fingerprint")
	}

	d, _ := Resolve(PresetDefault, &Override{Cache: &CacheOverride{TTLSeconds: i(60)}})
	if d.Fingerprint() == a.Fingerprint() {
		t.Error("nested field change did not change the fingerprint")
	}
}
