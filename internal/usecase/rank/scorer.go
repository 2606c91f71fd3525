package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// stalePenalty halves the recency score once a record's age passes the
// freshness threshold.
const stalePenalty = 0.5

// Score runs the full scoring pipeline: weighted contributions,
// multiplicative boosts, source multipliers, the minScore cutoff,
// per-source caps and the final deterministic ordering. Pure function —
// anomalous candidates are dropped and reported, never fatal.
// limit <= 0 falls back to cfg.DefaultLimit().
func Score(candidates []candidate.Candidate, cfg relevance.Config, limit int) ([]ranking.ScoredResult, []ranking.Exclusion) {
	scored := make([]ranking.ScoredResult, 0, len(candidates))
	var excluded []ranking.Exclusion

	for _, c := range candidates {
		if reason := anomaly(c); reason != "" {
			excluded = append(excluded, ranking.NewExclusion(c.ID, c.Source, reason))
			continue
		}

		text := c.RawTextScore * cfg.TextWeight()

		// A disabled signal contributes nothing; its weight is NOT
		// redistributed to the other signals.
		var semantic float64
		if cfg.Features().SemanticSearch() && c.HasSemanticScore() {
			semantic = *c.RawSemanticScore * cfg.SemanticWeight()
		}

		var recency float64
		if cfg.Features().TimeDecay() {
			recency = math.Exp(-cfg.TimeDecayFactor() * c.AgeDays)
			if c.AgeDays > float64(cfg.FreshnessThresholdDays()) {
				recency *= stalePenalty
			}
			recency *= cfg.RecencyWeight()
		}

		score := text + semantic + recency

		titleBoost := 1.0
		if cfg.Features().TitleBoost() && c.TitleMatch {
			titleBoost = cfg.TitleBoost()
		}
		exactBoost := 1.0
		if cfg.Features().ExactMatchBoost() && c.ExactMatch {
			exactBoost = cfg.ExactMatchBoost()
		}
		score *= titleBoost * exactBoost

		// Source multiplier applies before the cutoff so a weighty source
		// can rescue a borderline record and a down-weighted one cannot
		// sneak past it.
		srcWeight := cfg.SourceWeight(c.Source)
		score *= srcWeight

		if score < cfg.MinScore() {
			continue
		}

		scored = append(scored, ranking.NewScoredResult(
			c, score, ranking.NewBreakdown(text, semantic, recency, titleBoost, exactBoost, srcWeight),
		))
	}

	sortResults(scored, cfg)
	scored = capPerSource(scored, cfg.MaxPerSource())

	lim := limit
	if lim <= 0 {
		lim = cfg.DefaultLimit()
	}
	if len(scored) > lim {
		scored = scored[:lim]
	}
	return scored, excluded
}

// anomaly reports why a candidate cannot be scored, empty if it can.
func anomaly(c candidate.Candidate) string {
	if math.IsNaN(c.RawTextScore) || math.IsInf(c.RawTextScore, 0) {
		return fmt.Sprintf("rawTextScore %v is not finite", c.RawTextScore)
	}
	if c.RawTextScore < 0 || c.RawTextScore > 1 {
		return fmt.Sprintf("rawTextScore %v outside [0, 1]", c.RawTextScore)
	}
	if c.HasSemanticScore() {
		sem := *c.RawSemanticScore
		if math.IsNaN(sem) || math.IsInf(sem, 0) {
			return fmt.Sprintf("semantic score %v is not finite", sem)
		}
		if sem < -1 || sem > 1 {
			return fmt.Sprintf("semantic score %v outside [-1, 1]", sem)
		}
	}
	if math.IsNaN(c.AgeDays) || math.IsInf(c.AgeDays, 0) {
		return fmt.Sprintf("ageDays %v is not finite", c.AgeDays)
	}
	if c.AgeDays < 0 {
		return fmt.Sprintf("ageDays %v is negative", c.AgeDays)
	}
	return ""
}

// sortResults orders by score descending, ties broken by younger record
// first, then source multiplier descending, then ID ascending. The last
// key makes the ordering total, so equal inputs always rank identically.
func sortResults(rs []ranking.ScoredResult, cfg relevance.Config) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		ca, cb := a.Candidate(), b.Candidate()
		if ca.AgeDays != cb.AgeDays {
			return ca.AgeDays < cb.AgeDays
		}
		wa, wb := cfg.SourceWeight(ca.Source), cfg.SourceWeight(cb.Source)
		if wa != wb {
			return wa > wb
		}
		return ca.ID < cb.ID
	})
}

// capPerSource keeps at most max results per source type, preserving the
// incoming score order inside every group.
func capPerSource(rs []ranking.ScoredResult, max int) []ranking.ScoredResult {
	counts := make(map[source.Type]int, 8)
	out := rs[:0]
	for _, r := range rs {
		src := r.Candidate().Source
		if counts[src] >= max {
			continue
		}
		counts[src]++
		out = append(out, r)
	}
	return out
}
