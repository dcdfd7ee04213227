package filtering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
)

type mockTaxonomy struct {
	categories map[string]string
	authors    map[string]string
	tags       map[string]bool
	err        error

	resolveCategoriesCalled bool
	resolveAuthorsCalled    bool
	knownTagsCalled         bool
}

func (m *mockTaxonomy) ResolveCategories(_ context.Context, slugs []string) ([]string, error) {
	m.resolveCategoriesCalled = true
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, s := range slugs {
		if id, ok := m.categories[s]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockTaxonomy) ResolveAuthors(_ context.Context, handles []string) ([]string, error) {
	m.resolveAuthorsCalled = true
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, h := range handles {
		if id, ok := m.authors[h]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockTaxonomy) KnownTags(_ context.Context, tags []string) ([]string, error) {
	m.knownTagsCalled = true
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, t := range tags {
		if m.tags[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

func f64(v float64) *float64 { return &v }

func TestCompileDefaults(t *testing.T) {
	svc := New(&mockTaxonomy{})

	set, empty, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if empty != nil {
		t.Fatalf("Compile() empty = %+v, want nil", empty)
	}
	if len(set.ContentTypes) != len(domain.AllContentTypes()) {
		t.Errorf("ContentTypes = %v, want all kinds", set.ContentTypes)
	}
	if set.SortBy != filter.SortRelevance || set.SortOrder != filter.Desc {
		t.Errorf("sort = %s %s, want relevance desc", set.SortBy, set.SortOrder)
	}
	if set.VisibleTo != "" {
		t.Errorf("VisibleTo = %q, want empty for anonymous actor", set.VisibleTo)
	}
}

func TestCompileResolvesTaxonomy(t *testing.T) {
	taxo := &mockTaxonomy{
		categories: map[string]string{"engineering": "cat-1"},
		authors:    map[string]string{"ada": "author-7"},
		tags:       map[string]bool{"golang": true, "redis": true},
	}
	svc := New(taxo)

	raw := filter.Raw{
		ContentTypes: []string{"post"},
		Categories:   []string{"engineering"},
		Authors:      []string{"ada"},
		Tags:         []string{"Golang", "redis"},
	}
	set, empty, err := svc.Compile(context.Background(), domain.ActorContext{ID: "actor-1"}, raw)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if empty != nil {
		t.Fatalf("Compile() empty = %+v, want nil", empty)
	}
	if len(set.CategoryIDs) != 1 || set.CategoryIDs[0] != "cat-1" {
		t.Errorf("CategoryIDs = %v, want [cat-1]", set.CategoryIDs)
	}
	if len(set.AuthorIDs) != 1 || set.AuthorIDs[0] != "author-7" {
		t.Errorf("AuthorIDs = %v, want [author-7]", set.AuthorIDs)
	}
	if len(set.Tags) != 2 {
		t.Errorf("Tags = %v, want both canonical tags", set.Tags)
	}
	if set.VisibleTo != "actor-1" {
		t.Errorf("VisibleTo = %q, want actor-1", set.VisibleTo)
	}
}

func TestCompileEmptyCategoryShortCircuits(t *testing.T) {
	svc := New(&mockTaxonomy{categories: map[string]string{}})

	_, empty, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{
		Categories: []string{"no-such-category"},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if empty == nil {
		t.Fatal("Compile() empty = nil, want EmptyMatch")
	}
	if empty.Dimension != filter.DimCategory {
		t.Errorf("Dimension = %s, want category", empty.Dimension)
	}
}

func TestCompileUnknownTagIsEmptyMatch(t *testing.T) {
	// Tags are conjunctive: one unknown tag among known ones means no
	// item can ever match.
	svc := New(&mockTaxonomy{tags: map[string]bool{"golang": true}})

	_, empty, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{
		Tags: []string{"golang", "no-such-tag"},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if empty == nil || empty.Dimension != filter.DimTag {
		t.Fatalf("Compile() empty = %+v, want tag EmptyMatch", empty)
	}
}

func TestCompileInvalidInput(t *testing.T) {
	svc := New(&mockTaxonomy{})
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  filter.Raw
	}{
		{"unknown content type", filter.Raw{ContentTypes: []string{"video"}}},
		{"inverted date range", filter.Raw{DateFrom: &from, DateTo: &to}},
		{"inverted numeric range", filter.Raw{NumericRanges: map[string]filter.RawRange{
			"readingTime": {Min: f64(10), Max: f64(3)},
		}}},
		{"unknown range field", filter.Raw{NumericRanges: map[string]filter.RawRange{
			"sentiment": {Min: f64(0)},
		}}},
		{"unknown sort key", filter.Raw{SortBy: "popularity"}},
		{"unknown sort order", filter.Raw{SortOrder: "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Compile(context.Background(), domain.ActorContext{}, tt.raw)
			if !errors.Is(err, domain.ErrInvalidFilter) {
				t.Errorf("Compile() error = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

func TestCompileUnboundedMaxSentinel(t *testing.T) {
	svc := New(&mockTaxonomy{})

	set, _, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{
		NumericRanges: map[string]filter.RawRange{
			"readingTime": {Min: f64(5), Max: f64(filter.UnboundedMax)},
		},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	r := set.NumericRanges["reading_time"]
	if r.Min != 5 || r.Max != nil {
		t.Errorf("range = %+v, want min 5 with no upper bound", r)
	}
}

func TestCompileOpenEndedDates(t *testing.T) {
	svc := New(&mockTaxonomy{})
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	set, _, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{DateFrom: &from})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if set.DateRange == nil || !set.DateRange.From.Equal(from) || !set.DateRange.To.IsZero() {
		t.Errorf("DateRange = %+v, want from-only open range", set.DateRange)
	}
}

func TestCompileTaxonomyError(t *testing.T) {
	svc := New(&mockTaxonomy{err: errors.New("store down")})

	_, _, err := svc.Compile(context.Background(), domain.ActorContext{}, filter.Raw{
		Categories: []string{"engineering"},
	})
	if err == nil {
		t.Fatal("Compile() error = nil, want store error")
	}
}
