package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage accumulates token spend across one request. Transport
// installs a collector into the context, the ranking/ingestion services
// add to it after each provider call, and transport reads it back for
// the X-Embedding-Tokens response header. Zero tokens with Used=true
// means the embedding came from cache.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool
}

// NewContextWithUsage installs a fresh collector and returns it alongside
// the derived context.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the request's collector, or nil when transport
// installed none (library callers, background jobs).
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens. Nil-safe so services call it
// unconditionally.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
