package search

import (
	"context"
	"fmt"

	"github.com/lumenpress/discovery/internal/db"
	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/repository/content"
)

// ExcerptWords is the summarize window size: roughly the 30-50 word
// excerpt target, counted per fragment.
const ExcerptWords = 40

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.TextQuery) (int, error)
}

// Params is one ranked page request against a single content kind.
type Params struct {
	Text      string
	Filters   *filter.Set
	Fuzzy     bool
	Offset    int
	Limit     int
	SortBy    filter.SortKey
	SortOrder filter.SortOrder
}

// Hit is one raw ranked match before in-process re-ranking.
type Hit struct {
	Item    domain.ContentItem
	Score   float64
	Excerpt string
}

// Repo implements ranked text matching over the per-kind content indexes.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs one ranked page fetch plus the separate counting pass over
// the same predicate set.
func (r *Repo) Search(ctx context.Context, kind domain.ContentType, p *Params) ([]Hit, int, error) {
	q := r.buildQuery(kind, p)

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", kind, err)
	}

	// Counting runs as its own LIMIT 0 0 pass so fetching a page never
	// scales with total match cardinality.
	total, err := r.store.SearchCount(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", kind, err)
	}

	hits := make([]Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		item := content.ParseItem(kind, entry.Fields)
		if item.ID == "" {
			continue
		}
		hits = append(hits, Hit{
			Item:    item,
			Score:   entry.Score,
			Excerpt: extractExcerpt(entry.Fields, p.Text != ""),
		})
	}
	return hits, total, nil
}

func (r *Repo) buildQuery(kind domain.ContentType, p *Params) *db.TextQuery {
	q := &db.TextQuery{
		IndexName: content.IndexName(kind),
		Text:      p.Text,
		Predicate: db.Predicate(p.Filters),
		Fuzzy:     p.Fuzzy,
		Offset:    p.Offset,
		Limit:     p.Limit,
	}

	if p.Text != "" {
		q.Summarize = &db.SummarizeSpec{
			Fields:    []string{db.FieldBody},
			Fragments: 1,
			Words:     ExcerptWords,
			Separator: " … ",
		}
	}

	switch p.SortBy {
	case filter.SortDate:
		q.SortBy = db.FieldPublishedAt
	case filter.SortViews:
		q.SortBy = db.FieldViews
	case filter.SortEngagement:
		q.SortBy = db.FieldEngagement
	}
	if q.SortBy != "" {
		q.SortDesc = p.SortOrder != filter.Asc
	}

	return q
}

// extractExcerpt prefers the summarized match window; facet-only queries
// have no window, so the stored summary stands in.
func extractExcerpt(fields map[string]string, hadText bool) string {
	if hadText {
		if body := fields[db.FieldBody]; body != "" {
			return body
		}
	}
	return fields[db.FieldSummary]
}

// SuggestTitles returns published titles matching a prefix query.
func (r *Repo) SuggestTitles(
	ctx context.Context, kind domain.ContentType, prefix string, limit int,
) ([]string, error) {
	set := filter.Set{
		SortBy:    filter.SortRelevance,
		SortOrder: filter.Desc,
	}
	q := &db.TextQuery{
		IndexName:    content.IndexName(kind),
		Text:         prefix,
		Predicate:    db.Predicate(&set),
		TextFields:   []string{db.FieldTitle},
		Prefix:       true,
		Limit:        limit,
		ReturnFields: []string{db.FieldTitle},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("suggest titles %s: %w", kind, err)
	}

	titles := make([]string, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if t := entry.Fields[db.FieldTitle]; t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// RecentIDs lists ids of items published since the cutoff, newest first.
// The trending refresher uses this to bound its candidate set.
func (r *Repo) RecentIDs(
	ctx context.Context, kind domain.ContentType, sinceUnix int64, limit int,
) ([]string, error) {
	set := filter.Set{SortBy: filter.SortDate, SortOrder: filter.Desc}
	q := &db.TextQuery{
		IndexName:    content.IndexName(kind),
		Predicate:    db.Predicate(&set) + fmt.Sprintf(" @%s:[%d +inf]", db.FieldPublishedAt, sinceUnix),
		SortBy:       db.FieldPublishedAt,
		SortDesc:     true,
		Limit:        limit,
		ReturnFields: []string{"id"},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("recent ids %s: %w", kind, err)
	}

	ids := make([]string, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if id := entry.Fields["id"]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
