package ranking

import "github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"

// Exclusion records one candidate dropped during scoring. One anomalous
// candidate never sinks the batch; it is reported here instead.
type Exclusion struct {
	id     string
	source source.Type
	reason string
}

// NewExclusion creates a scoring exclusion record.
func NewExclusion(id string, src source.Type, reason string) Exclusion {
	return Exclusion{id: id, source: src, reason: reason}
}

// ID returns the excluded candidate's identifier.
func (e Exclusion) ID() string { return e.id }

// Source returns the excluded candidate's source type.
func (e Exclusion) Source() source.Type { return e.source }

// Reason describes why the candidate was dropped.
func (e Exclusion) Reason() string { return e.reason }
