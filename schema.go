package discovery

import (
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
	"github.com/lumenpress/discovery/internal/usecase/orchestrator"
	domsuggest "github.com/lumenpress/discovery/internal/usecase/suggest"
)

// ContentKind is a searchable content kind.
type ContentKind string

// Searchable content kinds.
const (
	KindPost         ContentKind = "post"
	KindPerson       ContentKind = "person"
	KindOrganization ContentKind = "organization"
)

// Publication states. Only published items are visible to non-owners.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusArchived  = "archived"
)

// Item is one content item to index or one read back from the store.
type Item struct {
	ID          string
	Kind        ContentKind
	Title       string
	Body        string
	Summary     string
	Status      string
	AuthorID    string
	OrgID       string
	OrgVerified bool
	PublishedAt time.Time
	Views       int64
	Likes       int64
	Comments    int64
	Shares      int64
	CategoryIDs []string
	Tags        []string
	ReadingTime int
}

// Range bounds a numeric filter. Nil Max means unbounded above.
type Range struct {
	Min *float64
	Max *float64
}

// Filters narrows a search. Tags are conjunctive; categories and authors
// are alternatives within their dimension.
type Filters struct {
	Kinds        []ContentKind
	Categories   []string
	Tags         []string
	Authors      []string
	DateFrom     *time.Time
	DateTo       *time.Time
	Ranges       map[string]Range
	Organization string
	SortBy       string
	SortOrder    string
}

// SearchRequest is one search call.
type SearchRequest struct {
	Query   string
	Filters *Filters
	Limit   int
	Offset  int
}

// ResultItem is one ranked search result.
type ResultItem struct {
	Item     Item
	Score    float64
	Reason   string
	Excerpt  string
	Position int
}

// FacetValue is one facet candidate with its match count.
type FacetValue struct {
	Value string
	Count int
}

// SearchResult is the assembled reply of one search call.
type SearchResult struct {
	Results    []ResultItem
	TotalCount int
	TookMs     int64
	Degraded   bool
	Facets     map[string][]FacetValue
}

// Suggestion is one typeahead candidate.
type Suggestion struct {
	Text     string
	Category string
	Count    int
}

// TrendingItem is one entry of a trending ordering.
type TrendingItem struct {
	ItemID        string
	Kind          ContentKind
	Score         float64
	GrowthPercent float64
}

func itemToDomain(item *Item) *domain.ContentItem {
	return &domain.ContentItem{
		ID:          item.ID,
		Kind:        domain.ContentType(item.Kind),
		Title:       item.Title,
		Body:        item.Body,
		Summary:     item.Summary,
		Status:      domain.Status(item.Status),
		AuthorID:    item.AuthorID,
		OrgID:       item.OrgID,
		OrgVerified: item.OrgVerified,
		PublishedAt: item.PublishedAt,
		Engagement: domain.Engagement{
			Views:    item.Views,
			Likes:    item.Likes,
			Comments: item.Comments,
			Shares:   item.Shares,
		},
		CategoryIDs: item.CategoryIDs,
		Tags:        item.Tags,
		ReadingTime: item.ReadingTime,
	}
}

func itemFromDomain(item *domain.ContentItem) Item {
	return Item{
		ID:          item.ID,
		Kind:        ContentKind(item.Kind),
		Title:       item.Title,
		Body:        item.Body,
		Summary:     item.Summary,
		Status:      string(item.Status),
		AuthorID:    item.AuthorID,
		OrgID:       item.OrgID,
		OrgVerified: item.OrgVerified,
		PublishedAt: item.PublishedAt,
		Views:       item.Engagement.Views,
		Likes:       item.Engagement.Likes,
		Comments:    item.Engagement.Comments,
		Shares:      item.Engagement.Shares,
		CategoryIDs: item.CategoryIDs,
		Tags:        item.Tags,
		ReadingTime: item.ReadingTime,
	}
}

func filtersToRaw(f *Filters) filter.Raw {
	if f == nil {
		return filter.Raw{}
	}
	raw := filter.Raw{
		Categories:   f.Categories,
		Tags:         f.Tags,
		Authors:      f.Authors,
		DateFrom:     f.DateFrom,
		DateTo:       f.DateTo,
		Organization: f.Organization,
		SortBy:       f.SortBy,
		SortOrder:    f.SortOrder,
	}
	for _, k := range f.Kinds {
		raw.ContentTypes = append(raw.ContentTypes, string(k))
	}
	if len(f.Ranges) > 0 {
		raw.NumericRanges = make(map[string]filter.RawRange, len(f.Ranges))
		for field, r := range f.Ranges {
			raw.NumericRanges[field] = filter.RawRange{Min: r.Min, Max: r.Max}
		}
	}
	return raw
}

func resultItems(scored []result.Scored) []ResultItem {
	items := make([]ResultItem, len(scored))
	for i, s := range scored {
		items[i] = ResultItem{
			Item:     itemFromDomain(&s.Item),
			Score:    s.Score,
			Reason:   string(s.Reason),
			Excerpt:  s.Excerpt,
			Position: s.Position,
		}
	}
	return items
}

func searchResultFromResponse(resp *orchestrator.Response) *SearchResult {
	out := &SearchResult{
		Results:    resultItems(resp.Results),
		TotalCount: resp.TotalCount,
		TookMs:     resp.TookMs,
		Degraded:   resp.Degraded,
	}
	if len(resp.Facets) > 0 {
		out.Facets = make(map[string][]FacetValue, len(resp.Facets))
		for dim, values := range resp.Facets {
			out.Facets[string(dim)] = facetValues(values)
		}
	}
	return out
}

func facetValues(values []repofacet.Value) []FacetValue {
	out := make([]FacetValue, len(values))
	for i, v := range values {
		out[i] = FacetValue{Value: v.Value, Count: v.Count}
	}
	return out
}

func suggestionsFromDomain(in []domsuggest.Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, s := range in {
		out[i] = Suggestion{Text: s.Text, Category: s.Category, Count: s.Count}
	}
	return out
}
