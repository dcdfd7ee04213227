package planner

import (
	"testing"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/plan"
)

func testConfig() Config {
	return Config{
		ModerateMinSignals: 2,
		ComplexMinSignals:  4,
		SimpleCap:          500,
		ModerateCap:        250,
		ComplexCap:         100,
	}
}

func TestPlanTiers(t *testing.T) {
	p := New(testConfig())

	tests := []struct {
		name     string
		hasQuery bool
		set      filter.Set
		want     plan.Tier
	}{
		{"bare query", true, filter.Set{ContentTypes: []domain.ContentType{domain.TypePost}}, plan.TierSimple},
		{"no query no filters", false, filter.Set{ContentTypes: []domain.ContentType{domain.TypePost}}, plan.TierSimple},
		{"query plus one dimension", true, filter.Set{
			ContentTypes: []domain.ContentType{domain.TypePost},
			Tags:         []string{"golang"},
		}, plan.TierModerate},
		{"query plus three dimensions", true, filter.Set{
			ContentTypes: []domain.ContentType{domain.TypePost},
			Tags:         []string{"golang"},
			CategoryIDs:  []string{"cat-1"},
			Organization: "org-1",
		}, plan.TierComplex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Plan(tt.hasQuery, &tt.set)
			if got.Tier != tt.want {
				t.Errorf("Plan() tier = %s, want %s", got.Tier, tt.want)
			}
		})
	}
}

func TestPlanMonotonic(t *testing.T) {
	// Adding a dimension to a query must never lower its tier.
	p := New(testConfig())

	base := filter.Set{ContentTypes: []domain.ContentType{domain.TypePost}}
	prev := p.Plan(true, &base)

	widened := []filter.Set{
		{ContentTypes: []domain.ContentType{domain.TypePost}, Tags: []string{"golang"}},
		{ContentTypes: []domain.ContentType{domain.TypePost}, Tags: []string{"golang"}, CategoryIDs: []string{"c"}},
		{ContentTypes: []domain.ContentType{domain.TypePost}, Tags: []string{"golang"}, CategoryIDs: []string{"c"}, AuthorIDs: []string{"a"}},
		{ContentTypes: domain.AllContentTypes(), Tags: []string{"golang"}, CategoryIDs: []string{"c"}, AuthorIDs: []string{"a"}},
	}
	for i, set := range widened {
		got := p.Plan(true, &set)
		if got.Tier.Rank() < prev.Tier.Rank() {
			t.Fatalf("step %d: tier dropped from %s to %s", i, prev.Tier, got.Tier)
		}
		prev = got
	}
}

func TestPlanCapsAndFuzzy(t *testing.T) {
	p := New(testConfig())

	simple := p.Plan(true, &filter.Set{ContentTypes: []domain.ContentType{domain.TypePost}})
	if simple.MaxResults != 500 || !simple.Fuzzy {
		t.Errorf("simple plan = %+v, want cap 500 with fuzzy", simple)
	}

	complexSet := filter.Set{
		ContentTypes: domain.AllContentTypes(),
		Tags:         []string{"golang"},
		CategoryIDs:  []string{"cat-1"},
		Organization: "org-1",
	}
	cx := p.Plan(true, &complexSet)
	if cx.MaxResults != 100 || cx.Fuzzy || !cx.UseSnapshot {
		t.Errorf("complex plan = %+v, want cap 100, no fuzzy, snapshot", cx)
	}
}
