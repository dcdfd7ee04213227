package chi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
	"github.com/lumenpress/discovery/internal/usecase/suggest"
)

// searchRequestBody is the POST /search payload.
type searchRequestBody struct {
	Query   string       `json:"query"`
	Filters *filtersBody `json:"filters,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	Offset  int          `json:"offset,omitempty"`
}

type filtersBody struct {
	ContentTypes []string             `json:"contentTypes,omitempty"`
	Categories   []string             `json:"categories,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	Authors      []string             `json:"authors,omitempty"`
	DateFrom     *time.Time           `json:"dateFrom,omitempty"`
	DateTo       *time.Time           `json:"dateTo,omitempty"`
	Ranges       map[string]rangeBody `json:"ranges,omitempty"`
	Organization string               `json:"organization,omitempty"`
	SortBy       string               `json:"sortBy,omitempty"`
	SortOrder    string               `json:"sortOrder,omitempty"`
}

type rangeBody struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (b *filtersBody) toRaw() filter.Raw {
	if b == nil {
		return filter.Raw{}
	}
	raw := filter.Raw{
		ContentTypes: b.ContentTypes,
		Categories:   b.Categories,
		Tags:         b.Tags,
		Authors:      b.Authors,
		DateFrom:     b.DateFrom,
		DateTo:       b.DateTo,
		Organization: b.Organization,
		SortBy:       b.SortBy,
		SortOrder:    b.SortOrder,
	}
	if len(b.Ranges) > 0 {
		raw.NumericRanges = make(map[string]filter.RawRange, len(b.Ranges))
		for k, r := range b.Ranges {
			raw.NumericRanges[k] = filter.RawRange{Min: r.Min, Max: r.Max}
		}
	}
	return raw
}

// rawFromQuery parses the filter dimensions shared by GET endpoints.
// Multi-value dimensions are comma separated.
func rawFromQuery(q map[string][]string) filter.Raw {
	raw := filter.Raw{
		ContentTypes: splitParam(q, "type"),
		Categories:   splitParam(q, "category"),
		Tags:         splitParam(q, "tags"),
		Authors:      splitParam(q, "author"),
		Organization: firstParam(q, "organization"),
		SortBy:       firstParam(q, "sortBy"),
		SortOrder:    firstParam(q, "sortOrder"),
	}
	if from := parseTimeParam(q, "dateFrom"); from != nil {
		raw.DateFrom = from
	}
	if to := parseTimeParam(q, "dateTo"); to != nil {
		raw.DateTo = to
	}
	return raw
}

func splitParam(q map[string][]string, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func firstParam(q map[string][]string, key string) string {
	if vs := q[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func parseTimeParam(q map[string][]string, key string) *time.Time {
	s := firstParam(q, key)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

func intParam(r *http.Request, key, fallback string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		s = fallback
	}
	return strconv.Atoi(s)
}

// itemDTO is the wire form of one content item.
type itemDTO struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	AuthorID    string            `json:"authorId,omitempty"`
	OrgID       string            `json:"organizationId,omitempty"`
	OrgVerified bool              `json:"organizationVerified,omitempty"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	ReadingTime int               `json:"readingTimeMinutes,omitempty"`
	Engagement  domain.Engagement `json:"engagement"`
}

type scoredDTO struct {
	Item     itemDTO `json:"item"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Excerpt  string  `json:"excerpt,omitempty"`
	Position int     `json:"position"`
}

type facetValueDTO struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type searchResponseBody struct {
	Results    []scoredDTO                `json:"results"`
	TotalCount int                        `json:"totalCount"`
	TookMs     int64                      `json:"tookMs"`
	State      string                     `json:"state"`
	Degraded   bool                       `json:"degraded,omitempty"`
	Facets     map[string][]facetValueDTO `json:"facets,omitempty"`
}

type trendingItemDTO struct {
	ItemID              string  `json:"itemId"`
	Type                string  `json:"type"`
	Score               float64 `json:"score"`
	CurrentWindowCount  int64   `json:"currentWindowCount"`
	PreviousWindowCount int64   `json:"previousWindowCount"`
	GrowthPercent       float64 `json:"growthPercent"`
}

type trendingResponseBody struct {
	Timeframe string            `json:"timeframe"`
	Items     []trendingItemDTO `json:"items"`
	HasMore   bool              `json:"hasMore"`
}

type feedResponseBody struct {
	Algorithm string      `json:"algorithm"`
	Items     []scoredDTO `json:"items"`
	HasMore   bool        `json:"hasMore"`
}

type suggestionDTO struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Count    int    `json:"count,omitempty"`
}

type clickRequestBody struct {
	Query      string `json:"query"`
	ResultID   string `json:"resultId"`
	ResultType string `json:"resultType"`
	Position   int    `json:"position"`
}

func itemToDTO(it *domain.ContentItem) itemDTO {
	dto := itemDTO{
		ID:          it.ID,
		Type:        string(it.Kind),
		Title:       it.Title,
		Summary:     it.Summary,
		AuthorID:    it.AuthorID,
		OrgID:       it.OrgID,
		OrgVerified: it.OrgVerified,
		Categories:  it.CategoryIDs,
		Tags:        it.Tags,
		ReadingTime: it.ReadingTime,
		Engagement:  it.Engagement,
	}
	if !it.PublishedAt.IsZero() {
		at := it.PublishedAt.UTC()
		dto.PublishedAt = &at
	}
	return dto
}

func scoredToDTO(rs []result.Scored) []scoredDTO {
	out := make([]scoredDTO, len(rs))
	for i := range rs {
		out[i] = scoredDTO{
			Item:     itemToDTO(&rs[i].Item),
			Score:    rs[i].Score,
			Reason:   string(rs[i].Reason),
			Excerpt:  rs[i].Excerpt,
			Position: rs[i].Position,
		}
	}
	return out
}

func facetsToDTO(facets map[filter.Dimension][]repofacet.Value) map[string][]facetValueDTO {
	if len(facets) == 0 {
		return nil
	}
	out := make(map[string][]facetValueDTO, len(facets))
	for dim, values := range facets {
		vs := make([]facetValueDTO, len(values))
		for i, v := range values {
			vs[i] = facetValueDTO{Value: v.Value, Count: v.Count}
		}
		out[string(dim)] = vs
	}
	return out
}

func trendingToDTO(scores []domtrending.Score) []trendingItemDTO {
	out := make([]trendingItemDTO, len(scores))
	for i, s := range scores {
		out[i] = trendingItemDTO{
			ItemID:              s.ItemID,
			Type:                string(s.Kind),
			Score:               s.Score,
			CurrentWindowCount:  s.CurrentWindowCount,
			PreviousWindowCount: s.PreviousWindowCount,
			GrowthPercent:       s.GrowthPercent,
		}
	}
	return out
}

func suggestionsToDTO(ss []suggest.Suggestion) []suggestionDTO {
	out := make([]suggestionDTO, len(ss))
	for i, s := range ss {
		out[i] = suggestionDTO{Text: s.Text, Category: s.Category, Count: s.Count}
	}
	return out
}
