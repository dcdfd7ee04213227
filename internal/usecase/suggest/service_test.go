package suggest

import (
	"context"
	"testing"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/repository/taxonomy"
)

type mockTitles struct {
	titles map[domain.ContentType][]string
	called bool
}

func (m *mockTitles) SuggestTitles(
	_ context.Context, kind domain.ContentType, _ string, limit int,
) ([]string, error) {
	m.called = true
	titles := m.titles[kind]
	if len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

type mockTags struct {
	tags   []taxonomy.TagCount
	called bool
}

func (m *mockTags) TagsWithPrefix(_ context.Context, _ string, limit int) ([]taxonomy.TagCount, error) {
	m.called = true
	tags := m.tags
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

func TestSuggestBelowMinLengthSkipsStore(t *testing.T) {
	titles := &mockTitles{}
	tags := &mockTags{}
	svc := New(titles, tags, 2, 10)

	got, err := svc.Suggest(context.Background(), " g ", nil, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if got != nil {
		t.Errorf("Suggest() = %v, want nil below min length", got)
	}
	if titles.called || tags.called {
		t.Error("store consulted for a sub-minimum partial")
	}
}

func TestSuggestMergesTagsAndTitles(t *testing.T) {
	titles := &mockTitles{titles: map[domain.ContentType][]string{
		domain.TypePost: {"Golang Concurrency Patterns"},
	}}
	tags := &mockTags{tags: []taxonomy.TagCount{{Tag: "golang", Count: 12}}}
	svc := New(titles, tags, 2, 10)

	got, err := svc.Suggest(context.Background(), "go", []domain.ContentType{domain.TypePost}, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Category != CategoryTag || got[0].Count != 12 {
		t.Errorf("first = %+v, want the tag with its count", got[0])
	}
	if got[1].Category != string(domain.TypePost) {
		t.Errorf("second = %+v, want a post title", got[1])
	}
}

func TestSuggestRespectsLimit(t *testing.T) {
	titles := &mockTitles{titles: map[domain.ContentType][]string{
		domain.TypePost: {"Go One", "Go Two", "Go Three"},
	}}
	tags := &mockTags{tags: []taxonomy.TagCount{{Tag: "go", Count: 1}, {Tag: "golang", Count: 2}}}
	svc := New(titles, tags, 2, 10)

	got, err := svc.Suggest(context.Background(), "go", []domain.ContentType{domain.TypePost}, 3)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want limit 3", len(got))
	}
}

func TestSuggestDeduplicates(t *testing.T) {
	titles := &mockTitles{titles: map[domain.ContentType][]string{
		domain.TypePost:   {"Quarterly Report"},
		domain.TypePerson: {"Quarterly Report"},
	}}
	svc := New(titles, &mockTags{}, 2, 10)

	got, err := svc.Suggest(context.Background(), "quart", nil, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got = %+v, want duplicate title collapsed", got)
	}
}
