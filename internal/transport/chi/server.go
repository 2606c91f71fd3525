package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	healthuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/health"
	ingestuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/ingest"
	rankuc "github.com/talyssonoliver/intelliflow-relevance/internal/usecase/rank"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the ranking engine over HTTP.
type Server struct {
	rank          *rankuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	rank *rankuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		rank:   rank,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnknownPreset, http.StatusBadRequest, codeUnknownPreset),
		sentinelHandler(domain.ErrConfigInvalid, http.StatusBadRequest, codeInvalidConfig),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, codeProviderError),
		// The API never accepts raw vectors, so a dimension mismatch can
		// only come from the provider side.
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, codeVectorDimMismatch),
		sentinelHandler(domain.ErrKeywordSearchNotSupported,
			http.StatusNotImplemented, codeKeywordSearcherMissing),
	}
	return s
}

// Routes registers every handler on the router.
func (s *Server) Routes(r gochi.Router) {
	r.Route("/v1", func(r gochi.Router) {
		r.Post("/search", s.SearchRecords)
		r.Post("/documents", s.IndexRecord)
		r.Delete("/documents/{id}", s.RemoveRecord)
		r.Get("/presets", s.ListPresets)
		r.Get("/presets/{name}", s.GetPreset)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchRecords handles POST /v1/search.
func (s *Server) SearchRecords(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := ranking.New(req.Query, req.Preset, req.Overrides.toDomain(),
		sourcesFromStrings(req.Sources), req.Limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.rank.Rank(ctx, q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFromDomain(resp))
}

// IndexRecord handles POST /v1/documents. Indexing is an upsert: the
// record's previous chunks are replaced wholesale.
func (s *Server) IndexRecord(w http.ResponseWriter, r *http.Request) {
	var req indexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	createdAt := time.Now().UTC()
	if req.CreatedAt != "" {
		var err error
		createdAt, err = time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"created_at must be RFC 3339: "+err.Error())
			return
		}
	}

	rec, err := record.New(req.ID, source.Type(req.Source), req.Title, req.Body, createdAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	chunks, err := s.ingest.Index(ctx, rec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, indexDocumentResponse{
		ID:     rec.ID(),
		Chunks: chunks,
	})
}

// RemoveRecord handles DELETE /v1/documents/{id}.
func (s *Server) RemoveRecord(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")
	if err := s.ingest.Remove(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPresets handles GET /v1/presets.
func (s *Server) ListPresets(w http.ResponseWriter, r *http.Request) {
	names := relevance.PresetNames()
	resp := presetListResponse{Presets: make([]presetConfigDTO, 0, len(names))}
	for _, name := range names {
		cfg, err := relevance.PresetByName(name)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		resp.Presets = append(resp.Presets, presetConfigFromDomain(cfg))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPreset handles GET /v1/presets/{name}.
func (s *Server) GetPreset(w http.ResponseWriter, r *http.Request) {
	name := gochi.URLParam(r, "name")
	cfg, err := relevance.PresetByName(name)
	if err != nil {
		// On the direct endpoint an unknown name is a missing resource,
		// not a malformed request.
		if errors.Is(err, domain.ErrUnknownPreset) {
			writeError(w, http.StatusNotFound, codeUnknownPreset, safeDomainMessage(err))
			return
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presetConfigFromDomain(cfg))
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrUnknownPreset,
		domain.ErrConfigInvalid,
		domain.ErrInvalidQuery,
		domain.ErrInvalidDocument,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
		domain.ErrKeywordSearchNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
