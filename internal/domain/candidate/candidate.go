package candidate

import "github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"

// Candidate is one retrievable CRM record as the data store hands it back:
// raw signals only, no scoring applied. RawSemanticScore is nil when
// semantic search was disabled or the store returned no similarity for
// the record. Values are not validated here — the scorer excludes
// anomalous candidates instead of refusing to construct them.
type Candidate struct {
	ID               string
	Source           source.Type
	Title            string
	Snippet          string
	RawTextScore     float64
	RawSemanticScore *float64
	AgeDays          float64
	TitleMatch       bool
	ExactMatch       bool
}

// HasSemanticScore reports whether the store supplied a similarity value.
func (c Candidate) HasSemanticScore() bool { return c.RawSemanticScore != nil }
