package ranking

import (
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
)

// Breakdown records how a final score was assembled, for explainability.
// Contributions are post-weight values; boost fields hold the multiplier
// actually applied (1 when the boost did not fire).
type Breakdown struct {
	text         float64
	semantic     float64
	recency      float64
	titleBoost   float64
	exactBoost   float64
	sourceWeight float64
}

// NewBreakdown assembles a score breakdown.
func NewBreakdown(text, semantic, recency, titleBoost, exactBoost, sourceWeight float64) Breakdown {
	return Breakdown{
		text:         text,
		semantic:     semantic,
		recency:      recency,
		titleBoost:   titleBoost,
		exactBoost:   exactBoost,
		sourceWeight: sourceWeight,
	}
}

// Text returns the weighted keyword contribution.
func (b Breakdown) Text() float64 { return b.text }

// Semantic returns the weighted similarity contribution.
func (b Breakdown) Semantic() float64 { return b.semantic }

// Recency returns the weighted freshness contribution.
func (b Breakdown) Recency() float64 { return b.recency }

// TitleBoost returns the applied title multiplier (1 if not applied).
func (b Breakdown) TitleBoost() float64 { return b.titleBoost }

// ExactBoost returns the applied exact-match multiplier (1 if not applied).
func (b Breakdown) ExactBoost() float64 { return b.exactBoost }

// SourceWeight returns the applied per-source multiplier.
func (b Breakdown) SourceWeight() float64 { return b.sourceWeight }

// ScoredResult is a candidate with its computed final score.
type ScoredResult struct {
	candidate candidate.Candidate
	score     float64
	breakdown Breakdown
}

// NewScoredResult pairs a candidate with its score and breakdown.
func NewScoredResult(c candidate.Candidate, score float64, b Breakdown) ScoredResult {
	return ScoredResult{candidate: c, score: score, breakdown: b}
}

// Candidate returns the underlying record.
func (r ScoredResult) Candidate() candidate.Candidate { return r.candidate }

// Score returns the final relevance score.
func (r ScoredResult) Score() float64 { return r.score }

// Breakdown returns the per-contribution explanation.
func (r ScoredResult) Breakdown() Breakdown { return r.breakdown }
