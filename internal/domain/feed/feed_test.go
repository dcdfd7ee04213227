package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

func TestParseAlgorithm(t *testing.T) {
	for _, s := range []string{"trending", "personalized", "similar", "popular"} {
		got, err := ParseAlgorithm(s)
		if err != nil || string(got) != s {
			t.Errorf("ParseAlgorithm(%q) = (%q, %v)", s, got, err)
		}
	}

	got, err := ParseAlgorithm("")
	if err != nil || got != Trending {
		t.Errorf("ParseAlgorithm(\"\") = (%q, %v), want trending", got, err)
	}

	if _, err := ParseAlgorithm("chronological"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		in, want Algorithm
	}{
		{Personalized, Trending},
		{Similar, Popular},
		{Trending, Trending},
		{Popular, Popular},
	}
	for _, tt := range tests {
		if got := tt.in.Fallback(); got != tt.want {
			t.Errorf("%s.Fallback() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNeedsHistory(t *testing.T) {
	if !Personalized.NeedsHistory() || !Similar.NeedsHistory() {
		t.Error("personalized and similar require history")
	}
	if Trending.NeedsHistory() || Popular.NeedsHistory() {
		t.Error("trending and popular are history-free")
	}
}

func sampleViews(at time.Time) []View {
	return []View{
		{ItemID: "v1", AuthorID: "alice", CategoryIDs: []string{"eng"}, Tags: []string{"go", "redis"}, ViewedAt: at},
		{ItemID: "v2", AuthorID: "bob", CategoryIDs: []string{"eng", "infra"}, Tags: []string{"go"}, ViewedAt: at},
	}
}

func TestBuildProfile(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p := BuildProfile("u1", sampleViews(at), []string{"carol"}, 2)

	if p.ActorID != "u1" {
		t.Errorf("actor = %q", p.ActorID)
	}
	if p.CategoryWeights["eng"] != 2 || p.CategoryWeights["infra"] != 1 {
		t.Errorf("category weights = %v", p.CategoryWeights)
	}
	if p.TagWeights["go"] != 2 || p.TagWeights["redis"] != 1 {
		t.Errorf("tag weights = %v", p.TagWeights)
	}
	if !p.FollowedAuthors["carol"] {
		t.Error("follow lost")
	}
	if !p.ViewedItems["v1"] || !p.ViewedItems["v2"] {
		t.Errorf("viewed items = %v", p.ViewedItems)
	}
}

func TestBuildProfile_FollowMultiplier(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	views := []View{
		{ItemID: "v1", AuthorID: "alice", Tags: []string{"go"}, ViewedAt: at},
	}

	p := BuildProfile("u1", views, []string{"alice"}, 3)

	if p.TagWeights["go"] != 3 {
		t.Errorf("weight = %g, followed-author views must count multiplied", p.TagWeights["go"])
	}
}

func TestIsEmpty(t *testing.T) {
	empty := BuildProfile("u1", nil, nil, 2)
	if !empty.IsEmpty() {
		t.Error("profile with no views or follows must be empty")
	}

	followsOnly := BuildProfile("u1", nil, []string{"alice"}, 2)
	if followsOnly.IsEmpty() {
		t.Error("a follow alone is an affinity signal")
	}
}

func TestOverlap(t *testing.T) {
	weights := map[string]float64{"go": 2, "redis": 1}

	if got := Overlap(weights, []string{"go", "redis", "rust"}); got != 3 {
		t.Errorf("Overlap() = %g, want 3", got)
	}
	if got := Overlap(weights, nil); got != 0 {
		t.Errorf("Overlap(nil) = %g, want 0", got)
	}
}
