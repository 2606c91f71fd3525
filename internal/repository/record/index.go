package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
)

// IndexSettings tunes the records FT index created at bootstrap.
type IndexSettings struct {
	Dimension       int
	Language        string // stemmer language for TEXT fields
	RemoveStopwords bool   // false emits STOPWORDS 0
	HNSWM           int    // 0 keeps the server default
	HNSWEFConstruct int    // 0 keeps the server default
}

// EnsureIndex creates the records index if it does not exist yet. TEXT
// fields are included only on backends that support them; the hash fields
// stay readable through RETURN either way, so a KNN-only backend still
// serves full candidates.
func (r *Repo) EnsureIndex(ctx context.Context, s IndexSettings) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe records index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndexDef(s, r.store.SupportsTextSearch(ctx))
	if err != nil {
		return fmt.Errorf("build records index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// проигрыш гонки старта другой реплике
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create records index: %w", err)
	}
	return nil
}

func buildIndexDef(s IndexSettings, textSearch bool) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag(fieldSource).
		Tag(fieldDocID).
		Numeric(fieldCreatedAt).
		Numeric(fieldChunk).
		VectorHNSW(fieldVector, s.Dimension, db.DistanceCosine, s.HNSWM, s.HNSWEFConstruct)

	if textSearch {
		b = b.Text(fieldContent).Text(fieldTitle)
		if s.Language != "" {
			b = b.Language(s.Language)
		}
		if !s.RemoveStopwords {
			b = b.NoStopwords()
		}
	}

	return b.Build()
}
