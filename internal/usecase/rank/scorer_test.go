package rank

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func b(v bool) *bool         { return &v }

func defaultCfg(t *testing.T, o *relevance.Override) relevance.Config {
	t.Helper()
	cfg, err := relevance.Resolve(relevance.PresetDefault, o)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return cfg
}

func TestScore_TitleMatchOutranksPlain(t *testing.T) {
	// The documents candidate with a title match must beat the identical
	// candidate without one under the default preset.
	cfg := defaultCfg(t, nil)
	cands := []candidate.Candidate{
		{ID: "plain", Source: source.Documents, RawTextScore: 0.6, RawSemanticScore: f64(0.8), AgeDays: 10},
		{ID: "titled", Source: source.Documents, RawTextScore: 0.6, RawSemanticScore: f64(0.8), AgeDays: 10, TitleMatch: true},
	}

	results, excluded := Score(cands, cfg, 0)
	if len(excluded) != 0 {
		t.Fatalf("excluded = %v", excluded)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Candidate().ID != "titled" {
		t.Errorf("top result = %q, want titled", results[0].Candidate().ID)
	}
	if results[0].Score() <= results[1].Score() {
		t.Errorf("titled score %v not above plain %v", results[0].Score(), results[1].Score())
	}
}

func TestScore_BreakdownArithmetic(t *testing.T) {
	cfg := defaultCfg(t, nil)
	cands := []candidate.Candidate{
		{ID: "d1", Source: source.Documents, RawTextScore: 0.6, RawSemanticScore: f64(0.8), AgeDays: 10, TitleMatch: true},
	}

	results, _ := Score(cands, cfg, 0)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d", len(results))
	}

	bd := results[0].Breakdown()
	if math.Abs(bd.Text()-0.24) > 1e-9 {
		t.Errorf("Text() = %v, want 0.24", bd.Text())
	}
	if math.Abs(bd.Semantic()-0.32) > 1e-9 {
		t.Errorf("Semantic() = %v, want 0.32", bd.Semantic())
	}
	wantRecency := math.Exp(-0.01*10) * 0.2
	if math.Abs(bd.Recency()-wantRecency) > 1e-9 {
		t.Errorf("Recency() = %v, want %v", bd.Recency(), wantRecency)
	}
	if bd.TitleBoost() != 2.0 || bd.ExactBoost() != 1.0 || bd.SourceWeight() != 1.5 {
		t.Errorf("boosts = %v/%v/%v", bd.TitleBoost(), bd.ExactBoost(), bd.SourceWeight())
	}

	wantScore := (bd.Text() + bd.Semantic() + bd.Recency()) * 2.0 * 1.5
	if math.Abs(results[0].Score()-wantScore) > 1e-9 {
		t.Errorf("Score() = %v, want %v", results[0].Score(), wantScore)
	}
}

func TestScore_BoostsComposeMultiplicatively(t *testing.T) {
	cfg := defaultCfg(t, nil)
	cands := []candidate.Candidate{
		{ID: "both", Source: source.Leads, RawTextScore: 0.5, AgeDays: 1, TitleMatch: true, ExactMatch: true},
		{ID: "title", Source: source.Leads, RawTextScore: 0.5, AgeDays: 1, TitleMatch: true},
		{ID: "none", Source: source.Leads, RawTextScore: 0.5, AgeDays: 1},
	}

	results, _ := Score(cands, cfg, 0)
	byID := map[string]float64{}
	for _, r := range results {
		byID[r.Candidate().ID] = r.Score()
	}

	// titleBoost 2.0, exactMatchBoost 1.5
	if math.Abs(byID["title"]-byID["none"]*2.0) > 1e-9 {
		t.Errorf("title %v != none %v * 2.0", byID["title"], byID["none"])
	}
	if math.Abs(byID["both"]-byID["none"]*2.0*1.5) > 1e-9 {
		t.Errorf("both %v != none %v * 3.0", byID["both"], byID["none"])
	}
}

func TestScore_SemanticWeightMonotonicity(t *testing.T) {
	cands := []candidate.Candidate{
		{ID: "semantic-heavy", Source: source.Leads, RawTextScore: 0.1, RawSemanticScore: f64(0.9), AgeDays: 5},
		{ID: "text-heavy", Source: source.Leads, RawTextScore: 0.9, RawSemanticScore: f64(0.1), AgeDays: 5},
	}

	low := defaultCfg(t, &relevance.Override{SemanticWeight: f64(0.1)})
	results, _ := Score(cands, low, 0)
	if results[0].Candidate().ID != "text-heavy" {
		t.Errorf("low semantic weight: top = %q, want text-heavy", results[0].Candidate().ID)
	}

	high := defaultCfg(t, &relevance.Override{SemanticWeight: f64(0.9)})
	results, _ = Score(cands, high, 0)
	if results[0].Candidate().ID != "semantic-heavy" {
		t.Errorf("high semantic weight: top = %q, want semantic-heavy", results[0].Candidate().ID)
	}
}

func TestScore_MinScoreCutoff(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{MinScore: f64(0.5)})
	cands := []candidate.Candidate{
		{ID: "weak", Source: source.Leads, RawTextScore: 0.2, AgeDays: 10},
		{ID: "strong", Source: source.Leads, RawTextScore: 0.9, RawSemanticScore: f64(0.9), AgeDays: 10},
	}

	results, excluded := Score(cands, cfg, 0)
	if len(results) != 1 || results[0].Candidate().ID != "strong" {
		t.Fatalf("results = %v", ids(results))
	}
	// a cutoff drop is not an anomaly
	if len(excluded) != 0 {
		t.Errorf("excluded = %v, want none", excluded)
	}
}

func TestScore_SemanticDisabledDropsSignal(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{
		Features: &relevance.FeaturesOverride{SemanticSearch: b(false)},
	})
	cands := []candidate.Candidate{
		{ID: "c1", Source: source.Leads, RawTextScore: 0.5, RawSemanticScore: f64(0.99), AgeDays: 3},
	}

	results, _ := Score(cands, cfg, 0)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d", len(results))
	}
	bd := results[0].Breakdown()
	if bd.Semantic() != 0 {
		t.Errorf("Semantic() = %v, want 0 when disabled", bd.Semantic())
	}
	// the text weight keeps its original share, no renormalization
	if math.Abs(bd.Text()-0.5*0.4) > 1e-9 {
		t.Errorf("Text() = %v, want 0.2", bd.Text())
	}
}

func TestScore_RecencyDecayAndStalePenalty(t *testing.T) {
	cfg := defaultCfg(t, nil) // freshnessThresholdDays 30, decay 0.01
	cands := []candidate.Candidate{
		{ID: "fresh", Source: source.Leads, RawTextScore: 0.5, AgeDays: 0},
		{ID: "aging", Source: source.Leads, RawTextScore: 0.5, AgeDays: 20},
		{ID: "stale", Source: source.Leads, RawTextScore: 0.5, AgeDays: 31},
	}

	results, _ := Score(cands, cfg, 0)
	byID := map[string]float64{}
	for _, r := range results {
		byID[r.Candidate().ID] = r.Breakdown().Recency()
	}

	if math.Abs(byID["fresh"]-0.2) > 1e-9 {
		t.Errorf("fresh recency = %v, want 0.2", byID["fresh"])
	}
	if math.Abs(byID["aging"]-math.Exp(-0.2)*0.2) > 1e-9 {
		t.Errorf("aging recency = %v", byID["aging"])
	}
	wantStale := math.Exp(-0.31) * stalePenalty * 0.2
	if math.Abs(byID["stale"]-wantStale) > 1e-9 {
		t.Errorf("stale recency = %v, want %v (penalized)", byID["stale"], wantStale)
	}
}

func TestScore_TimeDecayDisabled(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{
		Features: &relevance.FeaturesOverride{TimeDecay: b(false)},
	})
	cands := []candidate.Candidate{
		{ID: "old", Source: source.Leads, RawTextScore: 0.5, AgeDays: 500},
	}
	results, _ := Score(cands, cfg, 0)
	if got := results[0].Breakdown().Recency(); got != 0 {
		t.Errorf("Recency() = %v, want 0 when disabled", got)
	}
}

func TestScore_PerSourceCap(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{MaxPerSource: i(2)})
	cands := []candidate.Candidate{
		{ID: "d1", Source: source.Documents, RawTextScore: 0.9, AgeDays: 1},
		{ID: "d2", Source: source.Documents, RawTextScore: 0.8, AgeDays: 1},
		{ID: "d3", Source: source.Documents, RawTextScore: 0.7, AgeDays: 1},
		{ID: "d4", Source: source.Documents, RawTextScore: 0.6, AgeDays: 1},
		{ID: "t1", Source: source.Tickets, RawTextScore: 0.3, AgeDays: 1},
	}

	results, _ := Score(cands, cfg, 0)
	got := ids(results)
	want := []string{"d1", "d2", "t1"}
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for idx := range want {
		if got[idx] != want[idx] {
			t.Errorf("results = %v, want %v", got, want)
			break
		}
	}
}

func TestScore_ExplicitLimitWinsOverDefault(t *testing.T) {
	cfg := defaultCfg(t, nil) // defaultLimit 20
	var cands []candidate.Candidate
	for n := 0; n < 30; n++ {
		cands = append(cands, candidate.Candidate{
			ID: "c" + strings.Repeat("x", n+1), Source: source.Leads,
			RawTextScore: 0.9, AgeDays: 1,
		})
	}

	results, _ := Score(cands, cfg, 5)
	if len(results) != 5 {
		t.Errorf("len(results) = %d, want 5 (explicit limit)", len(results))
	}

	results, _ = Score(cands, cfg, 0)
	if len(results) != 10 {
		// maxPerSource 10 kicks in before defaultLimit 20
		t.Errorf("len(results) = %d, want 10", len(results))
	}
}

func TestScore_AnomalousCandidatesExcluded(t *testing.T) {
	cfg := defaultCfg(t, nil)
	cands := []candidate.Candidate{
		{ID: "ok", Source: source.Leads, RawTextScore: 0.8, AgeDays: 1},
		{ID: "sem-range", Source: source.Leads, RawTextScore: 0.5, RawSemanticScore: f64(1.4), AgeDays: 1},
		{ID: "text-nan", Source: source.Leads, RawTextScore: math.NaN(), AgeDays: 1},
		{ID: "neg-age", Source: source.Leads, RawTextScore: 0.5, AgeDays: -3},
		{ID: "text-range", Source: source.Leads, RawTextScore: 1.7, AgeDays: 1},
	}

	results, excluded := Score(cands, cfg, 0)
	if len(results) != 1 || results[0].Candidate().ID != "ok" {
		t.Fatalf("results = %v, want [ok]", ids(results))
	}
	if len(excluded) != 4 {
		t.Fatalf("len(excluded) = %d, want 4", len(excluded))
	}

	reasons := map[string]string{}
	for _, ex := range excluded {
		reasons[ex.ID()] = ex.Reason()
	}
	if !strings.Contains(reasons["sem-range"], "outside [-1, 1]") {
		t.Errorf("sem-range reason = %q", reasons["sem-range"])
	}
	if !strings.Contains(reasons["text-nan"], "not finite") {
		t.Errorf("text-nan reason = %q", reasons["text-nan"])
	}
	if !strings.Contains(reasons["neg-age"], "negative") {
		t.Errorf("neg-age reason = %q", reasons["neg-age"])
	}
	if !strings.Contains(reasons["text-range"], "outside [0, 1]") {
		t.Errorf("text-range reason = %q", reasons["text-range"])
	}
}

func TestScore_DeterministicOnShuffledInput(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{
		Features: &relevance.FeaturesOverride{TimeDecay: b(false)},
	})

	// identical signals: ordering must fall through to ID ascending
	base := []candidate.Candidate{
		{ID: "a", Source: source.Leads, RawTextScore: 0.5, AgeDays: 2},
		{ID: "b", Source: source.Leads, RawTextScore: 0.5, AgeDays: 2},
		{ID: "c", Source: source.Leads, RawTextScore: 0.5, AgeDays: 2},
		{ID: "d", Source: source.Leads, RawTextScore: 0.5, AgeDays: 2},
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]candidate.Candidate(nil), base...)
		rng.Shuffle(len(shuffled), func(x, y int) { shuffled[x], shuffled[y] = shuffled[y], shuffled[x] })

		results, _ := Score(shuffled, cfg, 0)
		got := ids(results)
		for idx, want := range []string{"a", "b", "c", "d"} {
			if got[idx] != want {
				t.Fatalf("trial %d: order = %v", trial, got)
			}
		}
	}
}

func TestScore_TieBreaks(t *testing.T) {
	cfg := defaultCfg(t, &relevance.Override{
		Features: &relevance.FeaturesOverride{TimeDecay: b(false)},
	})

	t.Run("younger first", func(t *testing.T) {
		cands := []candidate.Candidate{
			{ID: "older", Source: source.Leads, RawTextScore: 0.5, AgeDays: 9},
			{ID: "younger", Source: source.Leads, RawTextScore: 0.5, AgeDays: 2},
		}
		results, _ := Score(cands, cfg, 0)
		if results[0].Candidate().ID != "younger" {
			t.Errorf("order = %v", ids(results))
		}
	})

	t.Run("heavier source first", func(t *testing.T) {
		// documents weight 1.5, leads weight 1.0; raw scores chosen so the
		// final scores tie: 0.4*0.4*1.5 == 0.6*0.4*1.0
		cands := []candidate.Candidate{
			{ID: "lead", Source: source.Leads, RawTextScore: 0.6, AgeDays: 2},
			{ID: "doc", Source: source.Documents, RawTextScore: 0.4, AgeDays: 2},
		}
		results, _ := Score(cands, cfg, 0)
		if results[0].Candidate().ID != "doc" {
			t.Errorf("order = %v", ids(results))
		}
	})
}

func TestScore_EmptyInput(t *testing.T) {
	results, excluded := Score(nil, defaultCfg(t, nil), 0)
	if len(results) != 0 || len(excluded) != 0 {
		t.Errorf("results = %v, excluded = %v", results, excluded)
	}
}

func ids(results []ranking.ScoredResult) []string {
	out := make([]string, len(results))
	for idx, r := range results {
		out[idx] = r.Candidate().ID
	}
	return out
}
