package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownPreset signals a preset name outside the supported set.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrConfigInvalid signals a relevance config that failed validation.
	ErrConfigInvalid = errors.New("invalid relevance config")
	// ErrInvalidQuery signals a malformed ranking query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a record that cannot be ingested.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidChunkParams signals unusable chunk size/overlap values.
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrMalformedVector signals vector text that cannot be decoded.
	ErrMalformedVector = errors.New("malformed vector")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
)

// FieldError wraps ErrConfigInvalid with the offending field and its allowed range.
type FieldError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s=%v outside [%v, %v]", ErrConfigInvalid.Error(), e.Field, e.Value, e.Min, e.Max)
}

func (e *FieldError) Unwrap() error { return ErrConfigInvalid }

// NewFieldError creates a config range violation error.
func NewFieldError(field string, value, min, max float64) error {
	return &FieldError{Field: field, Value: value, Min: min, Max: max}
}

// DimensionError wraps ErrVectorDimMismatch with both vector lengths.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrVectorDimMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a vector dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionError{Got: got, Want: want}
}

// MalformedVectorError wraps ErrMalformedVector with the offending token.
type MalformedVectorError struct {
	Token  string
	Reason string
}

func (e *MalformedVectorError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrMalformedVector.Error(), e.Token, e.Reason)
}

func (e *MalformedVectorError) Unwrap() error { return ErrMalformedVector }

// NewMalformedVector creates a vector decode error.
func NewMalformedVector(token, reason string) error {
	return &MalformedVectorError{Token: token, Reason: reason}
}

// ChunkParamsError wraps ErrInvalidChunkParams with the rejected values.
type ChunkParamsError struct {
	Size    int
	Overlap int
	Reason  string
}

func (e *ChunkParamsError) Error() string {
	return fmt.Sprintf("%s: size=%d overlap=%d: %s", ErrInvalidChunkParams.Error(), e.Size, e.Overlap, e.Reason)
}

func (e *ChunkParamsError) Unwrap() error { return ErrInvalidChunkParams }

// NewChunkParamsError creates a chunk parameter validation error.
func NewChunkParamsError(size, overlap int, reason string) error {
	return &ChunkParamsError{Size: size, Overlap: overlap, Reason: reason}
}
