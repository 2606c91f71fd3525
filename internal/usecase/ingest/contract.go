package ingest

import (
	"context"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/chunk"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
)

// Repository persists chunked records. Save replaces all previously
// stored chunks of the record; Remove deletes them.
type Repository interface {
	Save(ctx context.Context, rec record.Record, chunks []chunk.Chunk, vectors [][]float32) error
	Remove(ctx context.Context, id string) error
}

// Embedder vectorizes chunk batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
