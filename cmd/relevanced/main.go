package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/config"
	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	dbRedis "github.com/talyssonoliver/intelliflow-relevance/internal/db/redis"
	dbValkey "github.com/talyssonoliver/intelliflow-relevance/internal/db/valkey"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	domrel "github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	logpkg "github.com/talyssonoliver/intelliflow-relevance/internal/logger"
	"github.com/talyssonoliver/intelliflow-relevance/internal/metrics"
	budgetrepo "github.com/talyssonoliver/intelliflow-relevance/internal/repository/budget"
	candidaterepo "github.com/talyssonoliver/intelliflow-relevance/internal/repository/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/repository/embcache"
	recordrepo "github.com/talyssonoliver/intelliflow-relevance/internal/repository/record"
	"github.com/talyssonoliver/intelliflow-relevance/internal/repository/resultcache"
	chiTransport "github.com/talyssonoliver/intelliflow-relevance/internal/transport/chi"
	openaiEmb "github.com/talyssonoliver/intelliflow-relevance/internal/transport/openai"
	embeddinguc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/embedding"
	healthuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/health"
	ingestuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/ingest"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
	"github.com/talyssonoliver/intelliflow-relevance/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting relevance API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "valkey":
		store, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRankingMetrics()

	// Build embedder chain — composition root
	// Take the first vectorizer config
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	// Single BudgetTracker shared across the embedder chain.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := provCfg.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			provName, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		).WithCostRate(budgetCfg.CostPerMillionTokens)
		// Connect persistence store — loads current counters from DB.
		budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
		budget.WithStore(ctx, budgetStore)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	// One chain serves both paths: Embed carries the query instruction,
	// BatchEmbed the document instruction.
	emb, bemb, probe := buildEmbedder(
		provName, provCfg, vecCfg, cfg.Index.Dimension,
		store, budgetChecker, logger,
	)
	logger.Info("Embedder ready",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimension", cfg.Index.Dimension),
	)

	// Index analysis settings come from the default preset so query-time
	// and index-time text handling agree.
	def, err := domrel.PresetByName(domrel.PresetDefault)
	if err != nil {
		logger.Fatal("Default preset unavailable", zap.Error(err))
	}

	records := recordrepo.New(store)
	err = records.EnsureIndex(ctx, recordrepo.IndexSettings{
		Dimension:       cfg.Index.Dimension,
		Language:        def.FullText().SearchConfig(),
		RemoveStopwords: def.FullText().RemoveStopWords(),
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err != nil {
		logger.Fatal("Failed to bootstrap records index", zap.Error(err))
	}
	logger.Info("Records index ready",
		zap.Int("dimension", cfg.Index.Dimension),
		zap.Bool("text_search", store.SupportsTextSearch(ctx)),
	)

	// Ranked-results cache backend
	var cache rankuc.ResultCache
	switch cfg.ResultCache.Backend {
	case "kv":
		cache = resultcache.NewKV(store, logger)
	case "memory":
		cache, err = resultcache.NewMemory(cfg.ResultCache.MaxEntries)
		if err != nil {
			logger.Fatal("Failed to create result cache", zap.Error(err))
		}
	default:
		logger.Fatal("Unknown result cache backend", zap.String("backend", cfg.ResultCache.Backend))
	}

	// Create use case services
	rankSvc := rankuc.New(candidaterepo.New(store), cache, emb, logger)
	ingestSvc := ingestuc.New(records, bemb).
		WithDimension(cfg.Index.Dimension).
		WithChunking(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)

	// Health service. The probe targets the bare provider: health checks
	// must not consume budget or seed the embedding cache. Nil when no
	// provider is configured, so keyword-only deployments report healthy.
	var embChecker healthuc.EmbeddingChecker
	if len(cfg.Embedding.Vectorizers) > 0 {
		embChecker = newEmbeddingHealthChecker(probe)
	}
	healthSvc := healthuc.New(store, embChecker)

	// Create chi server
	server := chiTransport.NewServer(rankSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker adapts a provider probe to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	probe domain.HealthChecker
}

func newEmbeddingHealthChecker(probe domain.HealthChecker) *embeddingHealthChecker {
	return &embeddingHealthChecker{probe: probe}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.probe.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached ->
// Instrumented -> Instruction. The returned probe is the bare provider,
// for health checks that bypass the decorators.
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	dimension int,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) (domain.Embedder, domain.BatchEmbedder, domain.HealthChecker) {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: dimension,
		Provider:   provName,
		Logger:     logger,
	})

	// Cached
	var emb domain.Embedder = base
	if store != nil {
		emb = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + metrics)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		emb, provName, vecCfg.Model, budget, logger,
	)
	emb = instrumented
	var bemb domain.BatchEmbedder = instrumented

	// Instruction prefixes (outermost — cache keys include the prefix)
	if vecCfg.QueryInstruction != "" || vecCfg.DocumentInstruction != "" {
		instr := domain.NewInstructionEmbedder(emb, vecCfg.QueryInstruction, vecCfg.DocumentInstruction)
		emb, bemb = instr, instr
	}

	return emb, bemb, base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
