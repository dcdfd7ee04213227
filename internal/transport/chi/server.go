package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	domfeed "github.com/lumenpress/discovery/internal/domain/feed"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
	analyticsuc "github.com/lumenpress/discovery/internal/usecase/analytics"
	feeduc "github.com/lumenpress/discovery/internal/usecase/feed"
	healthuc "github.com/lumenpress/discovery/internal/usecase/health"
	"github.com/lumenpress/discovery/internal/usecase/orchestrator"
	suggestuc "github.com/lumenpress/discovery/internal/usecase/suggest"
	trendinguc "github.com/lumenpress/discovery/internal/usecase/trending"
)

// Error response codes.
const (
	codeBadRequest    = "BAD_REQUEST"
	codeInvalidFilter = "INVALID_FILTER"
	codeNotFound      = "NOT_FOUND"
	codeTimeout       = "TIMEOUT"
	codeUnavailable   = "UNAVAILABLE"
	codeInternalError = "INTERNAL_ERROR"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorResponse is the uniform error payload.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Limits holds the transport-level pagination settings.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Server exposes the discovery API over chi.
type Server struct {
	search        *orchestrator.Service
	trending      *trendinguc.Service
	feed          *feeduc.Service
	suggest       *suggestuc.Service
	analytics     *analyticsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	limits        Limits
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *orchestrator.Service,
	trending *trendinguc.Service,
	feed *feeduc.Service,
	suggest *suggestuc.Service,
	analytics *analyticsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	limits Limits,
) *Server {
	s := &Server{
		search:    search,
		trending:  trending,
		feed:      feed,
		suggest:   suggest,
		analytics: analytics,
		health:    health,
		logger:    logger,
		limits:    limits,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrSnapshotCold, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Routes mounts all API routes on a router.
func (s *Server) Routes(r gochi.Router) {
	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/search", s.Search)
		r.Get("/facets", s.Facets)
		r.Get("/trending", s.Trending)
		r.Get("/feed", s.Feed)
		r.Get("/suggestions", s.Suggestions)
		r.Post("/search/clicks", s.RecordClick)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := body.Limit
	if limit <= 0 {
		limit = s.limits.DefaultPageSize
	}
	if limit > s.limits.MaxPageSize {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit exceeds maximum page size")
		return
	}
	if body.Offset < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "offset must not be negative")
		return
	}

	req, err := request.New(body.Query, body.Filters.toRaw(), request.NewPage(limit, body.Offset))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseBody{
		Results:    scoredToDTO(resp.Results),
		TotalCount: resp.TotalCount,
		TookMs:     resp.TookMs,
		State:      string(resp.State),
		Degraded:   resp.Degraded,
		Facets:     facetsToDTO(resp.Facets),
	})
}

// Facets handles GET /api/v1/facets.
func (s *Server) Facets(w http.ResponseWriter, r *http.Request) {
	raw := rawFromQuery(r.URL.Query())
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	facets, err := s.search.Facets(r.Context(), query, raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dto := facetsToDTO(facets)
	if dto == nil {
		dto = map[string][]facetValueDTO{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"facets": dto})
}

// Trending handles GET /api/v1/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	tf, err := domtrending.Parse(r.URL.Query().Get("timeframe"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	limit, offset, ok := s.pageParams(w, r)
	if !ok {
		return
	}

	items, hasMore, err := s.trending.Trending(r.Context(), tf, limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trendingResponseBody{
		Timeframe: string(tf),
		Items:     trendingToDTO(items),
		HasMore:   hasMore,
	})
}

// Feed handles GET /api/v1/feed.
func (s *Server) Feed(w http.ResponseWriter, r *http.Request) {
	alg, err := domfeed.ParseAlgorithm(r.URL.Query().Get("algorithm"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	limit, offset, ok := s.pageParams(w, r)
	if !ok {
		return
	}

	actor := domain.ActorFromContext(r.Context())
	items, hasMore, err := s.feed.Feed(r.Context(), actor, alg, limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feedResponseBody{
		Algorithm: string(alg),
		Items:     scoredToDTO(items),
		HasMore:   hasMore,
	})
}

// Suggestions handles GET /api/v1/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	limit, err := intParam(r, "limit", "0")
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
		return
	}

	var kinds []domain.ContentType
	for _, t := range splitParam(r.URL.Query(), "type") {
		kind := domain.ContentType(strings.ToLower(t))
		if !kind.IsValid() {
			writeError(w, http.StatusBadRequest, codeBadRequest, "unknown content type: "+t)
			return
		}
		kinds = append(kinds, kind)
	}

	suggestions, err := s.suggest.Suggest(r.Context(), partial, kinds, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dto := suggestionsToDTO(suggestions)
	if dto == nil {
		dto = []suggestionDTO{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": dto})
}

// RecordClick handles POST /api/v1/search/clicks. Always 202: click
// reporting is best-effort and never blocks or fails the caller.
func (s *Server) RecordClick(w http.ResponseWriter, r *http.Request) {
	var body clickRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Query == "" || body.ResultID == "" || body.Position < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"query, resultId and a non-negative position are required")
		return
	}

	s.analytics.RecordClick(r.Context(), &domanalytics.Click{
		Query:      body.Query,
		ResultID:   body.ResultID,
		ResultType: domain.ContentType(body.ResultType),
		Position:   body.Position,
	})
	w.WriteHeader(http.StatusAccepted)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, err := intParam(r, "limit", "0")
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
		return 0, 0, false
	}
	if limit == 0 {
		limit = s.limits.DefaultPageSize
	}
	if limit > s.limits.MaxPageSize {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit exceeds maximum page size")
		return 0, 0, false
	}
	offset, err = intParam(r, "offset", "0")
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "offset must be a non-negative integer")
		return 0, 0, false
	}
	return limit, offset, true
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
		domain.ErrInvalidFilter,
		domain.ErrInvalidArgument,
		domain.ErrNotFound,
		domain.ErrTimeout,
		domain.ErrSnapshotCold,
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
	if errors.Is(err, context.DeadlineExceeded) {
		err = domain.ErrTimeout
	}
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
