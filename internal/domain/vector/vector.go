package vector

import (
	"math"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

// Cosine computes cosine similarity between two vectors of equal length.
// Returns a value in [-1, 1]. If either vector has zero magnitude the
// similarity is 0 (a zero vector has no direction to compare).
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}

	// float32 inputs, float64 accumulation: long vectors lose too much
	// precision otherwise.
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
