package resultcache

import (
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// resultDTO is the stored form of one scored result. Domain VOs keep their
// fields unexported, so the shared cache round-trips through this flat shape.
type resultDTO struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Title       string       `json:"title,omitempty"`
	Snippet     string       `json:"snippet,omitempty"`
	RawText     float64      `json:"raw_text"`
	RawSemantic *float64     `json:"raw_semantic,omitempty"`
	AgeDays     float64      `json:"age_days"`
	TitleMatch  bool         `json:"title_match,omitempty"`
	ExactMatch  bool         `json:"exact_match,omitempty"`
	Score       float64      `json:"score"`
	Breakdown   breakdownDTO `json:"breakdown"`
}

type breakdownDTO struct {
	Text         float64 `json:"text"`
	Semantic     float64 `json:"semantic"`
	Recency      float64 `json:"recency"`
	TitleBoost   float64 `json:"title_boost"`
	ExactBoost   float64 `json:"exact_boost"`
	SourceWeight float64 `json:"source_weight"`
}

func toDTO(r ranking.ScoredResult) resultDTO {
	c := r.Candidate()
	b := r.Breakdown()
	return resultDTO{
		ID:          c.ID,
		Source:      string(c.Source),
		Title:       c.Title,
		Snippet:     c.Snippet,
		RawText:     c.RawTextScore,
		RawSemantic: c.RawSemanticScore,
		AgeDays:     c.AgeDays,
		TitleMatch:  c.TitleMatch,
		ExactMatch:  c.ExactMatch,
		Score:       r.Score(),
		Breakdown: breakdownDTO{
			Text:         b.Text(),
			Semantic:     b.Semantic(),
			Recency:      b.Recency(),
			TitleBoost:   b.TitleBoost(),
			ExactBoost:   b.ExactBoost(),
			SourceWeight: b.SourceWeight(),
		},
	}
}

func fromDTO(d resultDTO) ranking.ScoredResult {
	c := candidate.Candidate{
		ID:               d.ID,
		Source:           source.Type(d.Source),
		Title:            d.Title,
		Snippet:          d.Snippet,
		RawTextScore:     d.RawText,
		RawSemanticScore: d.RawSemantic,
		AgeDays:          d.AgeDays,
		TitleMatch:       d.TitleMatch,
		ExactMatch:       d.ExactMatch,
	}
	b := ranking.NewBreakdown(
		d.Breakdown.Text, d.Breakdown.Semantic, d.Breakdown.Recency,
		d.Breakdown.TitleBoost, d.Breakdown.ExactBoost, d.Breakdown.SourceWeight,
	)
	return ranking.NewScoredResult(c, d.Score, b)
}
