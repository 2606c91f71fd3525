package vector

import (
	"math"
	"strconv"
	"strings"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

// Encode renders a vector in the bracketed wire format used by
// pgvector-style stores: "[v1,v2,...,vn]". Components use the shortest
// decimal form that round-trips at float32 precision.
func Encode(v []float32) string {
	var sb strings.Builder
	sb.Grow(len(v)*10 + 2)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Decode parses the bracketed wire format back into a vector. Whitespace
// around components is tolerated; missing brackets, empty or non-numeric
// components, and non-finite values are rejected.
func Decode(s string) ([]float32, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, domain.NewMalformedVector(truncateToken(trimmed), "missing brackets")
	}

	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if inner == "" {
		return []float32{}, nil
	}

	parts := strings.Split(inner, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			return nil, domain.NewMalformedVector(tok, "empty component")
		}
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, domain.NewMalformedVector(truncateToken(tok), "not a number")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.NewMalformedVector(truncateToken(tok), "not finite")
		}
		out[i] = float32(f)
	}
	return out, nil
}

// truncateToken keeps error messages readable when fed garbage input.
func truncateToken(tok string) string {
	const max = 32
	if len(tok) > max {
		return tok[:max] + "..."
	}
	return tok
}
