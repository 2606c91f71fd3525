package relevance

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	embedder Embedder

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	chunkSize        int
	chunkOverlap     int

	memoryCacheEntries int
	kvResultCache      bool
	embeddingCache     bool

	queryPrefix string
	docPrefix   string

	logger  *zap.Logger
	metrics bool
}

// WithValkey configures the client to connect to a Valkey instance with
// the valkey-search module. Text search is unavailable on this backend,
// so retrieval runs vector-only and presets that disable semantic search
// cannot be served.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis configures the client to connect to a Redis instance with
// the search module (full text + vector).
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithEmbedder sets the text embedding provider. Without one, search
// degrades to keyword-only scoring and ingestion fails.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithVectorDimensions sets the vector dimension of the records index.
// Defaults to the default preset's embedding dimension.
func WithVectorDimensions(dim int) Option {
	return func(c *clientConfig) {
		c.vectorDimensions = dim
	}
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Zero values keep the server defaults.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithChunking overrides the ingestion chunk window (rune counts).
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithMemoryCache sizes the in-process result cache. Defaults to the
// default preset's cache capacity.
func WithMemoryCache(maxEntries int) Option {
	return func(c *clientConfig) {
		c.memoryCacheEntries = maxEntries
	}
}

// WithKVResultCache stores ranked result sets in the database instead of
// process memory, sharing the cache between replicas.
func WithKVResultCache() Option {
	return func(c *clientConfig) {
		c.kvResultCache = true
	}
}

// WithEmbeddingCache caches computed vectors in the database, keyed by
// input text, so repeated queries and re-ingested chunks skip the
// provider.
func WithEmbeddingCache() Option {
	return func(c *clientConfig) {
		c.embeddingCache = true
	}
}

// WithInstructionPrefixes sets asymmetric task instructions: queryPrefix
// is prepended to search queries, docPrefix to ingested chunks. Empty
// strings are pass-through.
func WithInstructionPrefixes(queryPrefix, docPrefix string) Option {
	return func(c *clientConfig) {
		c.queryPrefix = queryPrefix
		c.docPrefix = docPrefix
	}
}

// WithLogger enables structured logging for engine operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithMetrics registers the engine's Prometheus collectors on the
// default registry. Off by default so embedding the client twice in one
// process does not panic on duplicate registration.
func WithMetrics() Option {
	return func(c *clientConfig) {
		c.metrics = true
	}
}
