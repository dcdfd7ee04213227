package db

// Index field names shared by the content index schema, the predicate
// compiler, and the hash layout.
const (
	FieldTitle       = "title"
	FieldBody        = "body"
	FieldSummary     = "summary"
	FieldStatus      = "status"
	FieldAuthorID    = "author_id"
	FieldOrgID       = "org_id"
	FieldOrgVerified = "org_verified"
	FieldCategories  = "categories"
	FieldTags        = "tags"
	FieldPublishedAt = "published_at"
	FieldViews       = "views"
	FieldLikes       = "likes"
	FieldComments    = "comments"
	FieldShares      = "shares"
	FieldEngagement  = "engagement"
	FieldReadingTime = "reading_time"
)

// SummarizeSpec asks the store for a highlighted excerpt window around the
// best textual match of the listed fields.
type SummarizeSpec struct {
	Fields    []string
	Fragments int
	Words     int // window length per fragment
	Separator string
}

// TextQuery is the input for a full-text search pass.
// Predicate is a complete FT.SEARCH filter expression prebuilt by the
// predicate compiler; Text is the raw user query appended to it.
type TextQuery struct {
	IndexName    string
	Text         string // raw user text; empty means predicate-only matching
	Predicate    string
	TextFields   []string // restrict text matching to these fields; empty = all
	Fuzzy        bool     // fuzzy term alternates (LD-1) on each text token
	Prefix       bool     // prefix matching, used by suggestions
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
	Summarize    *SummarizeSpec
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// ApplyExpr is a computed projection evaluated before grouping
// (date bucketing uses timefmt on the publish timestamp).
type ApplyExpr struct {
	Expression string
	As         string
}

// AggregateQuery is the input for a grouped counting pass.
type AggregateQuery struct {
	IndexName string
	Text      string
	Predicate string
	Load      []string // fields the Apply expression reads
	Apply     *ApplyExpr
	GroupBy   string // field (or Apply alias) to group on
	Limit     int    // top-K cap on returned groups
}

// AggregateRow is one group with its document count.
type AggregateRow struct {
	Value string
	Count int
}
