package record

import (
	"fmt"
	"regexp"
	"time"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxBodySize is the maximum record body size in bytes.
const MaxBodySize = 163840 // 160KB

// Record is one ingestable CRM record (immutable value object). The body
// is what gets chunked and embedded; the title feeds the title-match
// boost at query time.
type Record struct {
	id        string
	source    source.Type
	title     string
	body      string
	createdAt time.Time
}

// New validates and creates a Record.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Body: non-empty, max 160KB.
// CreatedAt must not be zero; recency scoring needs an age.
func New(id string, src source.Type, title, body string, createdAt time.Time) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("%w: record ID is required", domain.ErrInvalidDocument)
	}
	if len(id) > 256 {
		return Record{}, fmt.Errorf("%w: record ID too long (max 256)", domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("%w: record ID must be alphanumeric with underscores and hyphens", domain.ErrInvalidDocument)
	}
	if !src.IsValid() {
		return Record{}, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidDocument, src)
	}
	if body == "" {
		return Record{}, fmt.Errorf("%w: body is required", domain.ErrInvalidDocument)
	}
	if len(body) > MaxBodySize {
		return Record{}, fmt.Errorf("%w: body too large (max %d bytes)", domain.ErrInvalidDocument, MaxBodySize)
	}
	if createdAt.IsZero() {
		return Record{}, fmt.Errorf("%w: createdAt is required", domain.ErrInvalidDocument)
	}

	return Record{id: id, source: src, title: title, body: body, createdAt: createdAt.UTC()}, nil
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Source returns the CRM source type.
func (r Record) Source() source.Type { return r.source }

// Title returns the record title (may be empty).
func (r Record) Title() string { return r.title }

// Body returns the text content.
func (r Record) Body() string { return r.body }

// CreatedAt returns the record creation time (UTC).
func (r Record) CreatedAt() time.Time { return r.createdAt }
