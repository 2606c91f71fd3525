package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors matched from the API's stable error codes.
// Use errors.Is() to check.
var (
	ErrBadRequest                = errors.New("bad request")
	ErrValidationFailed          = errors.New("validation failed")
	ErrNotFound                  = errors.New("not found")
	ErrUnknownPreset             = errors.New("unknown preset")
	ErrInvalidConfig             = errors.New("invalid config")
	ErrRateLimited               = errors.New("rate limited")
	ErrEmbeddingQuotaExceeded    = errors.New("embedding quota exceeded")
	ErrEmbeddingProviderError    = errors.New("embedding provider error")
	ErrVectorDimMismatch         = errors.New("vector dimension mismatch")
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported")
)

// codeSentinels keys sentinels by the wire codes the API documents as
// stable. Clients branch on codes, not on messages.
var codeSentinels = map[string]error{
	"bad_request":                  ErrBadRequest,
	"validation_failed":            ErrValidationFailed,
	"not_found":                    ErrNotFound,
	"unknown_preset":               ErrUnknownPreset,
	"invalid_config":               ErrInvalidConfig,
	"rate_limited":                 ErrRateLimited,
	"embedding_quota_exceeded":     ErrEmbeddingQuotaExceeded,
	"embedding_provider_error":     ErrEmbeddingProviderError,
	"vector_dim_mismatch":          ErrVectorDimMismatch,
	"keyword_search_not_supported": ErrKeywordSearchNotSupported,
}

// APIError is a non-2xx response from the relevance API.
type APIError struct {
	Status  int    // HTTP status
	Code    string // machine-readable code, stable across releases
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relevance api: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

// Unwrap maps the wire code onto a package sentinel so callers can use
// errors.Is. Unknown codes unwrap to nil and match nothing.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
