package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/plan"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
)

type mockCompiler struct {
	set   filter.Set
	empty *filter.EmptyMatch
	err   error
}

func (m *mockCompiler) Compile(
	_ context.Context, _ domain.ActorContext, _ filter.Raw,
) (filter.Set, *filter.EmptyMatch, error) {
	return m.set, m.empty, m.err
}

type mockPlanner struct{}

func (m *mockPlanner) Plan(_ bool, _ *filter.Set) plan.Plan {
	return plan.Plan{Tier: plan.TierSimple, MaxResults: 100}
}

type mockRanker struct {
	mu      sync.Mutex
	byKind  map[domain.ContentType][]result.Scored
	totals  map[domain.ContentType]int
	errKind map[domain.ContentType]error
	calls   int
}

func (m *mockRanker) Rank(
	_ context.Context, kind domain.ContentType,
	_ string, _ *filter.Set, _ plan.Plan, page request.Page,
) ([]result.Scored, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.errKind[kind]; err != nil {
		return nil, 0, err
	}
	rs := m.byKind[kind]
	if len(rs) > page.Limit() {
		rs = rs[:page.Limit()]
	}
	return rs, m.totals[kind], nil
}

func (m *mockRanker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockFaceter struct {
	facets map[filter.Dimension][]repofacet.Value
	err    error
}

func (m *mockFaceter) ForKinds(
	_ context.Context, _ []domain.ContentType, _ string, _ *filter.Set,
) (map[filter.Dimension][]repofacet.Value, error) {
	return m.facets, m.err
}

type mockTracker struct {
	mu      sync.Mutex
	records []domanalytics.QueryRecord
}

func (m *mockTracker) Record(rec domanalytics.QueryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *mockTracker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockTracker) last() domanalytics.QueryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[len(m.records)-1]
}

func scoredItem(id string, kind domain.ContentType, score float64) result.Scored {
	return result.Scored{
		Item:  domain.ContentItem{ID: id, Kind: kind, Status: domain.StatusPublished},
		Score: score,
	}
}

func postSet() filter.Set {
	return filter.Set{
		ContentTypes: []domain.ContentType{domain.TypePost},
		SortBy:       filter.SortRelevance,
		SortOrder:    filter.Desc,
	}
}

func mustRequest(t *testing.T, query string) *request.Request {
	t.Helper()
	req, err := request.New(query, filter.Raw{}, request.NewPage(10, 0))
	if err != nil {
		t.Fatalf("request.New() error = %v", err)
	}
	return &req
}

func newService(c *mockCompiler, r *mockRanker, f *mockFaceter, tr *mockTracker) *Service {
	return New(c, &mockPlanner{}, r, f, tr, zap.NewNop())
}

func TestSearchAssembled(t *testing.T) {
	ranker := &mockRanker{
		byKind: map[domain.ContentType][]result.Scored{
			domain.TypePost: {scoredItem("a", domain.TypePost, 2), scoredItem("b", domain.TypePost, 1)},
		},
		totals: map[domain.ContentType]int{domain.TypePost: 2},
	}
	faceter := &mockFaceter{facets: map[filter.Dimension][]repofacet.Value{
		filter.DimTag: {{Value: "golang", Count: 2}},
	}}
	tracker := &mockTracker{}
	svc := newService(&mockCompiler{set: postSet()}, ranker, faceter, tracker)

	resp, err := svc.Search(context.Background(), mustRequest(t, "quarterly report 2024"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.State != result.StateAssembled {
		t.Errorf("State = %s, want assembled", resp.State)
	}
	if resp.Degraded {
		t.Error("Degraded = true, want false")
	}
	if resp.TotalCount != 2 || len(resp.Results) != 2 {
		t.Errorf("TotalCount = %d len = %d, want 2/2", resp.TotalCount, len(resp.Results))
	}
	if len(resp.Facets[filter.DimTag]) != 1 {
		t.Errorf("Facets = %v, want the tag facet", resp.Facets)
	}
	if tracker.count() != 1 {
		t.Fatalf("analytics records = %d, want 1", tracker.count())
	}
	if rec := tracker.last(); rec.ResultCount != 2 || rec.Query != "quarterly report 2024" {
		t.Errorf("analytics record = %+v", rec)
	}
}

func TestSearchEmptyMatchSkipsScoring(t *testing.T) {
	ranker := &mockRanker{}
	tracker := &mockTracker{}
	compiler := &mockCompiler{empty: &filter.EmptyMatch{
		Dimension: filter.DimCategory, Values: []string{"no-such"},
	}}
	svc := newService(compiler, ranker, &mockFaceter{}, tracker)

	resp, err := svc.Search(context.Background(), mustRequest(t, "anything"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.State != result.StateEmptyResult {
		t.Errorf("State = %s, want empty_result", resp.State)
	}
	if ranker.callCount() != 0 {
		t.Errorf("ranker invoked %d times for an empty-match query, want 0", ranker.callCount())
	}
	if tracker.count() != 1 || tracker.last().ResultCount != 0 {
		t.Error("empty-match search did not leave a zero-count analytics record")
	}
}

func TestSearchInvalidFilter(t *testing.T) {
	tracker := &mockTracker{}
	compiler := &mockCompiler{err: domain.ErrInvalidFilter}
	svc := newService(compiler, &mockRanker{}, &mockFaceter{}, tracker)

	_, err := svc.Search(context.Background(), mustRequest(t, "q"))
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("Search() error = %v, want ErrInvalidFilter", err)
	}
	if tracker.count() != 1 || tracker.last().ErrorTag == "" {
		t.Error("failed compilation did not leave a tagged analytics record")
	}
}

func TestSearchPartialFailureDegrades(t *testing.T) {
	set := filter.Set{
		ContentTypes: []domain.ContentType{domain.TypePost, domain.TypePerson},
		SortBy:       filter.SortRelevance,
		SortOrder:    filter.Desc,
	}
	ranker := &mockRanker{
		byKind: map[domain.ContentType][]result.Scored{
			domain.TypePost: {scoredItem("a", domain.TypePost, 2)},
		},
		totals:  map[domain.ContentType]int{domain.TypePost: 1},
		errKind: map[domain.ContentType]error{domain.TypePerson: errors.New("index down")},
	}
	svc := newService(&mockCompiler{set: set}, ranker, &mockFaceter{}, &mockTracker{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "ada"))
	if err != nil {
		t.Fatalf("Search() error = %v, want degraded success", err)
	}
	if !resp.Degraded {
		t.Error("Degraded = false, want true")
	}
	if resp.State != result.StateAssembled || len(resp.Results) != 1 {
		t.Errorf("State = %s len = %d, want assembled with the surviving kind", resp.State, len(resp.Results))
	}
}

func TestSearchTotalFailure(t *testing.T) {
	storeErr := errors.New("store down")
	set := postSet()
	ranker := &mockRanker{errKind: map[domain.ContentType]error{domain.TypePost: storeErr}}
	tracker := &mockTracker{}
	svc := newService(&mockCompiler{set: set}, ranker, &mockFaceter{}, tracker)

	_, err := svc.Search(context.Background(), mustRequest(t, "q"))
	if err == nil {
		t.Fatal("Search() error = nil, want store error")
	}
	var pf *domain.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("error = %v, want a PartialFailureError", err)
	}
	if pf.Kind != domain.TypePost {
		t.Errorf("Kind = %s, want post", pf.Kind)
	}
	if !errors.Is(err, storeErr) {
		t.Error("underlying store error lost in the wrap")
	}
	if tracker.last().ErrorTag != "store_error" {
		t.Errorf("ErrorTag = %q, want store_error", tracker.last().ErrorTag)
	}
}

func TestSearchFacetFailureDegradesOnly(t *testing.T) {
	ranker := &mockRanker{
		byKind: map[domain.ContentType][]result.Scored{
			domain.TypePost: {scoredItem("a", domain.TypePost, 1)},
		},
		totals: map[domain.ContentType]int{domain.TypePost: 1},
	}
	svc := newService(&mockCompiler{set: postSet()}, ranker,
		&mockFaceter{err: errors.New("aggregate down")}, &mockTracker{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !resp.Degraded || resp.Facets != nil {
		t.Errorf("Degraded = %v Facets = %v, want degraded with no facets", resp.Degraded, resp.Facets)
	}
	if len(resp.Results) != 1 {
		t.Errorf("results lost on facet failure: %v", resp.Results)
	}
}

func TestAssembleShares(t *testing.T) {
	kinds := []domain.ContentType{domain.TypePost, domain.TypePerson}
	pages := [][]result.Scored{
		{scoredItem("p1", domain.TypePost, 3), scoredItem("p2", domain.TypePost, 2), scoredItem("p3", domain.TypePost, 1)},
		{scoredItem("h1", domain.TypePerson, 9)},
	}
	totals := []int{10, 1}

	out := assemble(kinds, pages, totals, 4)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4 (person shortfall reassigned to post)", len(out))
	}
	// person sorts before post, so its single hit leads.
	wantIDs := []string{"h1", "p1", "p2", "p3"}
	for i, want := range wantIDs {
		if out[i].Item.ID != want {
			t.Errorf("position %d = %s, want %s", i, out[i].Item.ID, want)
		}
		if out[i].Position != i {
			t.Errorf("Position = %d, want %d", out[i].Position, i)
		}
	}
}

func TestFacetsEmptyMatch(t *testing.T) {
	compiler := &mockCompiler{empty: &filter.EmptyMatch{Dimension: filter.DimTag}}
	svc := newService(compiler, &mockRanker{}, &mockFaceter{}, &mockTracker{})

	facets, err := svc.Facets(context.Background(), "q", filter.Raw{Tags: []string{"nope"}})
	if err != nil {
		t.Fatalf("Facets() error = %v", err)
	}
	if len(facets) != 0 {
		t.Errorf("facets = %v, want empty map", facets)
	}
}
