package ranking

import (
	"fmt"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum allowed query text length.
	MaxTextLength = 4096
	MaxLimit      = 100
)

// Query is a validated ranking request. The preset and override are
// carried unresolved; the ranking service resolves them per call.
type Query struct {
	text     string
	preset   string
	override *relevance.Override
	sources  []source.Type
	limit    int
}

// New validates and normalizes query parameters. An empty preset means
// "default". Limit 0 defers to the resolved config's defaultLimit.
func New(text, preset string, override *relevance.Override, sources []source.Type, limit int) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: query text too long (max %d chars)", domain.ErrInvalidQuery, MaxTextLength)
	}
	if preset == "" {
		preset = relevance.PresetDefault
	}
	for _, s := range sources {
		if !s.IsValid() {
			return Query{}, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidQuery, s)
		}
	}
	if limit < 0 || limit > MaxLimit {
		return Query{}, fmt.Errorf("%w: limit must be in [0, %d]", domain.ErrInvalidQuery, MaxLimit)
	}

	return Query{
		text:     text,
		preset:   preset,
		override: override,
		sources:  sources,
		limit:    limit,
	}, nil
}

// Text returns the query text.
func (q Query) Text() string { return q.text }

// Preset returns the preset name to resolve.
func (q Query) Preset() string { return q.preset }

// Override returns the per-call config patch, nil if none.
func (q Query) Override() *relevance.Override { return q.override }

// Sources returns the source-type filter, empty meaning all sources.
func (q Query) Sources() []source.Type { return q.sources }

// Limit returns the explicit result limit, 0 meaning config default.
func (q Query) Limit() int { return q.limit }
