package rank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/metrics"
)

// Service ranks CRM records for a query: resolves the effective config,
// consults the result cache, retrieves candidates and scores them.
type Service struct {
	source CandidateSource
	cache  ResultCache
	embed  Embedder
	log    *zap.Logger
}

// New creates a ranking service.
func New(source CandidateSource, cache ResultCache, embed Embedder, log *zap.Logger) *Service {
	return &Service{source: source, cache: cache, embed: embed, log: log}
}

// Response is one served ranking query.
type Response struct {
	Results  []ranking.ScoredResult
	Excluded []ranking.Exclusion
	Config   relevance.Config // effective config the results were scored under
	CacheHit bool
	Degraded bool // semantic signal was dropped for this request
}

// Rank serves a ranking query end to end. The embedding step failing (or
// returning the wrong dimension) degrades the request to keyword+recency
// scoring instead of failing it; candidate retrieval failing is fatal.
func (s *Service) Rank(ctx context.Context, q ranking.Query) (*Response, error) {
	cfg, err := relevance.Resolve(q.Preset(), q.Override())
	if err != nil {
		metrics.RankingQueriesTotal.WithLabelValues(q.Preset(), "error").Inc()
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	key := CacheKey(q, cfg)
	if cfg.Cache().Enabled() {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
			metrics.RankingQueriesTotal.WithLabelValues(cfg.Preset(), "ok").Inc()
			return &Response{Results: cached, Config: cfg, CacheHit: true}, nil
		}
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
	}

	var vector []float32
	degraded := false
	if cfg.Features().SemanticSearch() {
		embRes, embErr := s.embed.Embed(ctx, q.Text())
		switch {
		case embErr != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case embErr != nil:
			s.log.Warn("query embedding failed, dropping semantic signal",
				zap.String("preset", cfg.Preset()), zap.Error(embErr))
			cfg = cfg.WithoutSemanticSearch()
			degraded = true
		case len(embRes.Embedding) != cfg.Semantic().EmbeddingDimension():
			s.log.Warn("query embedding dimension mismatch, dropping semantic signal",
				zap.Int("got", len(embRes.Embedding)),
				zap.Int("want", cfg.Semantic().EmbeddingDimension()))
			cfg = cfg.WithoutSemanticSearch()
			degraded = true
		default:
			domain.UsageFromContext(ctx).AddTokens(embRes.TotalTokens)
			vector = embRes.Embedding
		}
	}

	if !cfg.Features().SemanticSearch() && !s.source.SupportsTextSearch(ctx) {
		metrics.RankingQueriesTotal.WithLabelValues(cfg.Preset(), "error").Inc()
		return nil, fmt.Errorf("no usable retrieval signal: %w", domain.ErrKeywordSearchNotSupported)
	}

	candidates, err := s.source.Fetch(ctx, q.Text(), vector, q.Sources(), cfg)
	if err != nil {
		metrics.RankingQueriesTotal.WithLabelValues(cfg.Preset(), "error").Inc()
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scoreStart := time.Now()
	results, excluded := Score(candidates, cfg, q.Limit())
	metrics.RankingScoringDuration.WithLabelValues(cfg.Preset()).Observe(time.Since(scoreStart).Seconds())
	metrics.RankingCandidatesScored.WithLabelValues(cfg.Preset()).Add(float64(len(candidates)))

	if len(excluded) > 0 {
		metrics.RankingCandidatesExcluded.WithLabelValues(cfg.Preset()).Add(float64(len(excluded)))
		for _, ex := range excluded {
			s.log.Warn("candidate excluded from scoring",
				zap.String("id", ex.ID()),
				zap.String("source", string(ex.Source())),
				zap.String("reason", ex.Reason()))
		}
	}

	// Degraded result sets are transient; caching them would keep serving
	// keyword-only answers after the embedder recovers.
	if cfg.Cache().Enabled() && !degraded {
		s.cache.Put(ctx, key, results, time.Duration(cfg.Cache().TTLSeconds())*time.Second)
	}

	status := "ok"
	if degraded {
		status = "degraded"
	}
	metrics.RankingQueriesTotal.WithLabelValues(cfg.Preset(), status).Inc()
	s.log.Debug("ranking query served",
		zap.String("preset", cfg.Preset()),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Int("excluded", len(excluded)),
		zap.Bool("degraded", degraded))

	return &Response{
		Results:  results,
		Excluded: excluded,
		Config:   cfg,
		Degraded: degraded,
	}, nil
}

// Invalidate evicts the cached result set for a query, for callers that
// must observe their own writes immediately.
func (s *Service) Invalidate(ctx context.Context, q ranking.Query) error {
	cfg, err := relevance.Resolve(q.Preset(), q.Override())
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}
	return s.cache.Invalidate(ctx, CacheKey(q, cfg))
}

// CacheKey hashes the query identity and the effective config. Two
// logically identical queries produce the same key; any config difference
// (via the fingerprint) produces a different one.
func CacheKey(q ranking.Query, cfg relevance.Config) string {
	h := sha256.New()
	io.WriteString(h, q.Text())
	io.WriteString(h, "\x00")
	io.WriteString(h, cfg.Fingerprint())
	io.WriteString(h, "\x00")

	// the source filter is a set; order must not change the key
	srcs := make([]string, len(q.Sources()))
	for i, t := range q.Sources() {
		srcs[i] = string(t)
	}
	sort.Strings(srcs)
	for _, t := range srcs {
		io.WriteString(h, t)
		io.WriteString(h, ",")
	}

	fmt.Fprintf(h, "\x00%d", q.Limit())
	return hex.EncodeToString(h.Sum(nil))
}
