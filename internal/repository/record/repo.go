package record

import (
	"context"
	"fmt"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/chunk"
	domrec "github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
)

// Chunk hash fields. The candidate repository reads these back.
const (
	fieldVector    = "__vector"
	fieldContent   = "__content"
	fieldTitle     = "title"
	fieldSource    = "source"
	fieldDocID     = "doc_id"
	fieldCreatedAt = "created_at"
	fieldChunk     = "chunk"
)

var (
	indexName = domain.KeyPrefix + "records:idx"
	keyPrefix = domain.KeyPrefix + "records:"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsTextSearch(ctx context.Context) bool
}

// Repo persists CRM records at chunk granularity: every chunk is one hash
// under the records prefix, carrying exactly the fields the FT index and
// the candidate repository expect.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes the record's chunks, replacing whatever chunk set a previous
// ingest left for the same document. vectors[i] belongs to chunks[i].
func (r *Repo) Save(ctx context.Context, rec domrec.Record, chunks []chunk.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	// Переиндексация может уменьшить число чанков; старый хвост должен уйти
	// до записи, иначе он продолжит попадать в выдачу.
	stale, err := r.chunkKeys(ctx, rec.ID())
	if err != nil {
		return err
	}
	for _, key := range stale {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key:    chunkKey(rec.ID(), i),
			Fields: buildHashFields(rec, c, i, vectors[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks %s: %w", rec.ID(), err)
	}
	return nil
}

// Remove deletes every chunk of a document. A document with no chunks is
// reported as not found.
func (r *Repo) Remove(ctx context.Context, id string) error {
	keys, err := r.chunkKeys(ctx, id)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

// chunkKeys lists the stored chunk keys of a document. Record IDs cannot
// contain glob characters, so the pattern matches exactly this document.
func (r *Repo) chunkKeys(ctx context.Context, id string) ([]string, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+id+":*")
	if err != nil {
		return nil, fmt.Errorf("scan chunks %s: %w", id, err)
	}
	return keys, nil
}

func chunkKey(id string, n int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, id, n)
}
