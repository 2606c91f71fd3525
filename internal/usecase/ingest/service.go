package ingest

import (
	"context"
	"fmt"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/chunk"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
)

// Default chunking window. 512 runes keeps chunks well inside embedding
// model token limits for typical CRM prose; 64 runes of overlap preserve
// sentence context across window edges.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// Service implements record ingestion: chunk, vectorize, persist.
type Service struct {
	repo  Repository
	embed Embedder

	chunkSize    int
	chunkOverlap int
	dimension    int
}

// New creates an ingestion service with default chunking and no
// dimension enforcement.
func New(repo Repository, embed Embedder) *Service {
	return &Service{
		repo:         repo,
		embed:        embed,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
}

// WithChunking overrides the chunk window. Values are validated lazily
// by the splitter on the next Index call.
func (s *Service) WithChunking(size, overlap int) *Service {
	s.chunkSize = size
	s.chunkOverlap = overlap
	return s
}

// WithDimension makes Index reject vectors whose length differs from
// dim. Zero disables the check.
func (s *Service) WithDimension(dim int) *Service {
	s.dimension = dim
	return s
}

// Index chunks the record body, vectorizes every chunk in one provider
// call and replaces the record's stored chunks. It returns the number of
// chunks written. Embedding token usage is reported through the context
// usage collector when one is installed.
func (s *Service) Index(ctx context.Context, rec record.Record) (int, error) {
	chunks, err := chunk.Split(rec.Body(), s.chunkSize, s.chunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("split body: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	batch, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("vectorize %d chunks: %w", len(chunks), err)
	}
	domain.UsageFromContext(ctx).AddTokens(batch.TotalTokens)

	if len(batch.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("provider returned %d vectors for %d chunks: %w",
			len(batch.Embeddings), len(chunks), domain.ErrEmbeddingProviderError)
	}
	if s.dimension > 0 {
		for i, emb := range batch.Embeddings {
			if len(emb) != s.dimension {
				return 0, fmt.Errorf("chunk %d: %w", i, domain.NewDimensionMismatch(len(emb), s.dimension))
			}
		}
	}

	if err := s.repo.Save(ctx, rec, chunks, batch.Embeddings); err != nil {
		return 0, fmt.Errorf("persist record %s: %w", rec.ID(), err)
	}
	return len(chunks), nil
}

// Remove deletes every stored chunk of the record. Missing records
// surface as domain.ErrNotFound from the repository.
func (s *Service) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("empty record id: %w", domain.ErrInvalidDocument)
	}
	return s.repo.Remove(ctx, id)
}
