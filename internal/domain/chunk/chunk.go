package chunk

import (
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

// Chunk is one embedding window over a document body: a contiguous slice
// of text plus its position. Offsets and lengths count runes, so multibyte
// text never splits mid-character.
type Chunk struct {
	text   string
	start  int
	length int
}

// Text returns the chunk text.
func (c Chunk) Text() string { return c.text }

// Start returns the chunk's start offset in the source text, in runes.
func (c Chunk) Start() int { return c.start }

// Len returns the chunk length in runes.
func (c Chunk) Len() int { return c.length }

// Split cuts text into fixed-size windows advancing by size-overlap runes.
// Text no longer than size comes back as a single chunk. The final chunk
// may be shorter than size; it is never padded. Chunking is not token
// aware and does no I/O.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, domain.NewChunkParamsError(size, overlap, "size must be positive")
	}
	if overlap < 0 {
		return nil, domain.NewChunkParamsError(size, overlap, "overlap must not be negative")
	}
	if overlap >= size {
		// equal overlap would never advance the window
		return nil, domain.NewChunkParamsError(size, overlap, "overlap must be smaller than size")
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []Chunk{{text: text, start: 0, length: len(runes)}}, nil
	}

	stride := size - overlap
	chunks := make([]Chunk, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			text:   string(runes[start:end]),
			start:  start,
			length: end - start,
		})
	}
	return chunks, nil
}
