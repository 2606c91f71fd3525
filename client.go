package relevance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	dbRedis "github.com/talyssonoliver/intelliflow-relevance/internal/db/redis"
	dbValkey "github.com/talyssonoliver/intelliflow-relevance/internal/db/valkey"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
	domrel "github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	"github.com/talyssonoliver/intelliflow-relevance/internal/metrics"
	candidaterepo "github.com/talyssonoliver/intelliflow-relevance/internal/repository/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/repository/embcache"
	recordrepo "github.com/talyssonoliver/intelliflow-relevance/internal/repository/record"
	"github.com/talyssonoliver/intelliflow-relevance/internal/repository/resultcache"
	ingestuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/ingest"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded relevance engine: the same ranking and
// ingestion pipeline relevanced serves over HTTP, wired for in-process
// use by the CRM monolith.
type Client struct {
	store  db.Store
	rank   *rankuc.Service
	ingest *ingestuc.Service
	log    *zap.Logger
}

// New connects to the database, bootstraps the records index and wires
// the engine.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if len(cfg.addrs) == 0 {
		return nil, errors.New("relevance: database address required (use WithValkey or WithRedis)")
	}
	if cfg.metrics {
		metrics.RegisterEmbeddingMetrics()
		metrics.RegisterRankingMetrics()
	}

	// Unset knobs follow the default preset so the embedded engine and
	// relevanced agree on index geometry out of the box.
	def, err := domrel.PresetByName(domrel.PresetDefault)
	if err != nil {
		return nil, fmt.Errorf("relevance: default preset: %w", err)
	}
	if cfg.vectorDimensions == 0 {
		cfg.vectorDimensions = def.Semantic().EmbeddingDimension()
	}
	if cfg.memoryCacheEntries == 0 {
		cfg.memoryCacheEntries = def.Cache().MaxEntries()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("relevance: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	records := recordrepo.New(store)
	err = records.EnsureIndex(ctx, recordrepo.IndexSettings{
		Dimension:       cfg.vectorDimensions,
		Language:        def.FullText().SearchConfig(),
		RemoveStopwords: def.FullText().RemoveStopWords(),
		HNSWM:           cfg.hnswM,
		HNSWEFConstruct: cfg.hnswEFConstruct,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("relevance: bootstrap records index: %w", err)
	}

	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("relevance: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("relevance: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("relevance: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	log := cfg.logger

	emb, bemb := buildEmbedderChain(store, cfg)

	var cache rankuc.ResultCache
	if cfg.kvResultCache {
		cache = resultcache.NewKV(store, log)
	} else {
		mem, err := resultcache.NewMemory(cfg.memoryCacheEntries)
		if err != nil {
			return nil, fmt.Errorf("relevance: result cache: %w", err)
		}
		cache = mem
	}

	rankSvc := rankuc.New(candidaterepo.New(store), cache, emb, log)

	ingestSvc := ingestuc.New(recordrepo.New(store), bemb).
		WithDimension(cfg.vectorDimensions)
	if cfg.chunkSize > 0 || cfg.chunkOverlap > 0 {
		ingestSvc = ingestSvc.WithChunking(cfg.chunkSize, cfg.chunkOverlap)
	}

	return &Client{
		store:  store,
		rank:   rankSvc,
		ingest: ingestSvc,
		log:    log,
	}, nil
}

// buildEmbedderChain decorates the configured provider: cache first,
// instructions outermost so prefixed and raw forms of one text never
// share a cache entry.
func buildEmbedderChain(store db.Store, cfg *clientConfig) (domain.Embedder, domain.BatchEmbedder) {
	var base *embedderAdapter
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		base = &embedderAdapter{inner: noopEmbedder{}}
	}

	var emb domain.Embedder = base
	var bemb domain.BatchEmbedder = base

	if cfg.embeddingCache {
		counter := metrics.EmbeddingCacheTotal
		if !cfg.metrics {
			counter = nil
		}
		cached := embcache.New(emb, store, counter, cfg.logger)
		emb, bemb = cached, cached
	}

	if cfg.queryPrefix != "" || cfg.docPrefix != "" {
		instr := domain.NewInstructionEmbedder(emb, cfg.queryPrefix, cfg.docPrefix)
		emb, bemb = instr, instr
	}

	return emb, bemb
}

// Close releases the database connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search ranks records for a query under a preset. Use Client.Query for
// per-call config overrides.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	q, err := ranking.New(query, opts.Preset, nil, sourcesFromStrings(opts.Sources), opts.Limit)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, q)
}

func (c *Client) run(ctx context.Context, q ranking.Query) (*SearchResponse, error) {
	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := c.rank.Rank(ctx, q)
	if err != nil {
		return nil, err
	}
	return searchResponseFromDomain(resp, usage.TotalTokens), nil
}

// Index chunks, vectorizes and stores a document, replacing any chunks
// stored under the same ID. It returns the number of chunks written.
func (c *Client) Index(ctx context.Context, doc Document) (int, error) {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	rec, err := record.New(doc.ID, source.Type(doc.Source), doc.Title, doc.Body, createdAt)
	if err != nil {
		return 0, err
	}
	return c.ingest.Index(ctx, rec)
}

// Remove deletes all stored chunks of a document.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.ingest.Remove(ctx, id)
}

// Presets returns every built-in preset, fully resolved.
func (c *Client) Presets() []PresetConfig {
	names := domrel.PresetNames()
	out := make([]PresetConfig, 0, len(names))
	for _, name := range names {
		cfg, err := domrel.PresetByName(name)
		if err != nil {
			continue
		}
		out = append(out, presetConfigFromDomain(cfg))
	}
	return out
}

// Preset returns one named preset, resolved without overrides.
func (c *Client) Preset(name string) (PresetConfig, error) {
	cfg, err := domrel.PresetByName(name)
	if err != nil {
		return PresetConfig{}, err
	}
	return presetConfigFromDomain(cfg), nil
}

// embedderAdapter bridges the public Embedder to the internal contracts.
// Batch calls use the provider's native batch endpoint when it has one.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := a.inner.(BatchEmbedder); ok {
		r, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   r.Embeddings,
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}, nil
	}
	return domain.BatchFallback(ctx, a, texts)
}

// noopEmbedder errors on use: search degrades to keyword-only scoring,
// ingestion reports the missing provider.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	return EmbeddingResult{}, errors.New("relevance: embedder not configured (use WithEmbedder)")
}
