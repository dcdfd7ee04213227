package orchestrator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	"github.com/lumenpress/discovery/internal/metrics"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
)

// Response is one assembled search reply.
type Response struct {
	result.Set
	Facets map[filter.Dimension][]repofacet.Value
}

// Service sequences one search request through compilation, planning,
// per-kind scoring, and facet aggregation. One failed content kind
// degrades the response instead of failing it; only the loss of every
// kind surfaces as an error.
type Service struct {
	compiler  Compiler
	planner   Tierer
	ranker    Ranker
	faceter   Faceter
	analytics Tracker
	log       *zap.Logger
	now       func() time.Time
}

// New creates a search orchestrator.
func New(compiler Compiler, planner Tierer, ranker Ranker, faceter Faceter, analytics Tracker, log *zap.Logger) *Service {
	return &Service{
		compiler:  compiler,
		planner:   planner,
		ranker:    ranker,
		faceter:   faceter,
		analytics: analytics,
		log:       log,
		now:       time.Now,
	}
}

// Search executes one search request end to end. Every request leaves an
// analytics record, including empty and failed ones.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	started := s.now()
	actor := domain.ActorFromContext(ctx)

	set, empty, err := s.compiler.Compile(ctx, actor, req.RawFilters())
	if err != nil {
		s.track(req, actor, "", started, 0, "invalid_filter")
		metrics.SearchesTotal.WithLabelValues("none", string(result.StateFailed)).Inc()
		return nil, err
	}
	if empty != nil {
		// A dimension matched nothing: terminal empty result, no
		// scoring pass runs at all.
		s.log.Debug("filter dimension matched nothing",
			zap.String("dimension", string(empty.Dimension)),
			zap.Strings("values", empty.Values))
		s.track(req, actor, set.Canonical(), started, 0, "")
		metrics.SearchesTotal.WithLabelValues("none", string(result.StateEmptyResult)).Inc()
		return &Response{Set: result.Set{
			Results:    []result.Scored{},
			State:      result.StateEmptyResult,
			TookMs:     s.sinceMs(started),
			TotalCount: 0,
		}}, nil
	}

	pl := s.planner.Plan(req.HasQuery(), &set)

	kinds := set.ContentTypes
	pages := make([][]result.Scored, len(kinds))
	totals := make([]int, len(kinds))
	errs := make([]error, len(kinds))
	var facets map[filter.Dimension][]repofacet.Value
	var facetErr error

	perKind := kindPage(req.Page(), len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			pages[i], totals[i], errs[i] = s.ranker.Rank(gctx, kind, req.Query(), &set, pl, perKind)
			return nil
		})
	}
	g.Go(func() error {
		facets, facetErr = s.faceter.ForKinds(gctx, kinds, req.Query(), &set)
		return nil
	})
	_ = g.Wait()

	degraded := false
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		degraded = true
		errs[i] = &domain.PartialFailureError{Kind: kinds[i], Err: err}
		s.log.Warn("content kind sub-query failed", zap.Error(errs[i]))
	}
	if failed == len(kinds) {
		s.track(req, actor, set.Canonical(), started, 0, "store_error")
		metrics.SearchesTotal.WithLabelValues(string(pl.Tier), string(result.StateFailed)).Inc()
		return nil, firstError(errs)
	}
	if facetErr != nil {
		degraded = true
		facets = nil
		s.log.Warn("facet aggregation failed", zap.Error(facetErr))
	}

	results := assemble(kinds, pages, totals, req.Page().Limit())
	total := 0
	for _, t := range totals {
		total += t
	}

	state := result.StateAssembled
	if len(results) == 0 {
		state = result.StateEmptyResult
	}
	if degraded {
		metrics.SearchDegradedTotal.Inc()
	}
	metrics.SearchesTotal.WithLabelValues(string(pl.Tier), string(state)).Inc()
	metrics.SearchDuration.WithLabelValues(string(pl.Tier)).Observe(s.now().Sub(started).Seconds())

	s.track(req, actor, set.Canonical(), started, total, "")
	return &Response{
		Set: result.Set{
			Results:    results,
			TotalCount: total,
			TookMs:     s.sinceMs(started),
			State:      state,
			Degraded:   degraded,
		},
		Facets: facets,
	}, nil
}

// Facets serves the standalone facet endpoint. An EmptyMatch compilation
// yields an empty facet map rather than an error.
func (s *Service) Facets(
	ctx context.Context, query string, raw filter.Raw,
) (map[filter.Dimension][]repofacet.Value, error) {
	actor := domain.ActorFromContext(ctx)
	set, empty, err := s.compiler.Compile(ctx, actor, raw)
	if err != nil {
		return nil, err
	}
	if empty != nil {
		return map[filter.Dimension][]repofacet.Value{}, nil
	}
	return s.faceter.ForKinds(ctx, set.ContentTypes, query, &set)
}

// kindPage derives the per-kind fetch page. Every kind fetches a full
// page worth of rows so unused share can be reassigned after the fact;
// the offset splits evenly since earlier pages consumed evenly.
func kindPage(page request.Page, kinds int) request.Page {
	if kinds <= 1 {
		return page
	}
	return request.NewPage(page.Limit(), page.Offset()/kinds)
}

// assemble distributes the page budget across kinds: an even base share
// per kind, with leftover slots going to the kinds holding the most
// unreturned matches, ties broken by kind name. Results stay grouped in
// canonical kind order; cross-kind score interleaving would compare
// scores from unrelated indexes.
func assemble(kinds []domain.ContentType, pages [][]result.Scored, totals []int, limit int) []result.Scored {
	if len(kinds) == 1 {
		if pages[0] == nil {
			return []result.Scored{}
		}
		return pages[0]
	}

	shares := make([]int, len(kinds))
	base := limit / len(kinds)
	used := 0
	for i, page := range pages {
		shares[i] = base
		if shares[i] > len(page) {
			shares[i] = len(page)
		}
		used += shares[i]
	}

	for used < limit {
		next := -1
		for i := range kinds {
			if shares[i] >= len(pages[i]) {
				continue
			}
			if next < 0 {
				next = i
				continue
			}
			ri, rn := totals[i]-shares[i], totals[next]-shares[next]
			if ri > rn || (ri == rn && kinds[i] < kinds[next]) {
				next = i
			}
		}
		if next < 0 {
			break
		}
		shares[next]++
		used++
	}

	order := make([]int, len(kinds))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return kinds[order[a]] < kinds[order[b]] })

	out := make([]result.Scored, 0, used)
	for _, i := range order {
		out = append(out, pages[i][:shares[i]]...)
	}
	result.Renumber(out)
	return out
}

func (s *Service) track(
	req *request.Request, actor domain.ActorContext,
	filters string, started time.Time, total int, errorTag string,
) {
	s.analytics.Record(domanalytics.QueryRecord{
		Query:       req.Query(),
		ActorID:     actor.ID,
		Filters:     filters,
		ResultCount: total,
		LatencyMs:   s.sinceMs(started),
		ErrorTag:    errorTag,
	})
}

func (s *Service) sinceMs(started time.Time) int64 {
	return s.now().Sub(started).Milliseconds()
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
