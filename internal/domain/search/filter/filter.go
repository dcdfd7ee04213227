package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// Limits on raw filter input.
const (
	MaxValuesPerDimension = 32
	// UnboundedMax is the sentinel upper bound meaning "no upper bound".
	UnboundedMax = 999
)

// SortKey selects the primary ordering of a result set.
type SortKey string

// Supported sort keys.
const (
	SortRelevance  SortKey = "relevance"
	SortDate       SortKey = "date"
	SortViews      SortKey = "views"
	SortEngagement SortKey = "engagement"
)

// IsValid checks if the sort key is supported.
func (k SortKey) IsValid() bool {
	return k == SortRelevance || k == SortDate || k == SortViews || k == SortEngagement
}

// SortOrder is the ordering direction.
type SortOrder string

// Ordering directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// IsValid checks if the sort order is supported.
func (o SortOrder) IsValid() bool { return o == Asc || o == Desc }

// Raw is the uncompiled filter request as received from the caller.
// All fields are optional; categories and authors are human-readable
// slugs/handles resolved to ids during compilation.
type Raw struct {
	ContentTypes  []string
	Categories    []string
	Tags          []string
	Authors       []string
	DateFrom      *time.Time
	DateTo        *time.Time
	NumericRanges map[string]RawRange
	Organization  string
	SortBy        string
	SortOrder     string
}

// RawRange is an uncompiled numeric range. Min-only is open-ended above;
// a Max of UnboundedMax also means open-ended above.
type RawRange struct {
	Min *float64
	Max *float64
}

// DateRange is a compiled date filter, inclusive on both bounds.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NumericRange is a compiled numeric filter. Nil Max means unbounded above.
type NumericRange struct {
	Min float64
	Max *float64
}

// Set is the canonical compiled filter set. An all-zero Set matches every
// item of the requested content types; a dimension that resolved to zero
// candidate ids never produces a Set at all (compilation yields EmptyMatch
// instead, see the filtering service).
type Set struct {
	ContentTypes  []domain.ContentType
	CategoryIDs   []string
	Tags          []string // conjunctive: ALL must be present on the item
	AuthorIDs     []string
	DateRange     *DateRange
	NumericRanges map[string]NumericRange
	Organization  string
	// VisibleTo widens the published-only predicate to include the
	// actor's own drafts. Empty means published items only.
	VisibleTo string
	SortBy    SortKey
	SortOrder SortOrder
}

// Validate checks the compiled set's internal consistency. The compiler
// calls this before handing the set to any scorer.
func (s *Set) Validate() error {
	for _, t := range s.ContentTypes {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidFilter, t)
		}
	}
	if len(s.Tags) > MaxValuesPerDimension {
		return fmt.Errorf("%w: too many tags (max %d)", domain.ErrInvalidFilter, MaxValuesPerDimension)
	}
	if s.DateRange != nil && !s.DateRange.From.IsZero() && !s.DateRange.To.IsZero() &&
		s.DateRange.From.After(s.DateRange.To) {
		return fmt.Errorf("%w: date range from after to", domain.ErrInvalidFilter)
	}
	for field, r := range s.NumericRanges {
		if r.Max != nil && r.Min > *r.Max {
			return fmt.Errorf("%w: %s range min %g greater than max %g",
				domain.ErrInvalidFilter, field, r.Min, *r.Max)
		}
	}
	if !s.SortBy.IsValid() {
		return fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidFilter, s.SortBy)
	}
	if !s.SortOrder.IsValid() {
		return fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidFilter, s.SortOrder)
	}
	return nil
}

// ActiveDimensions counts filter dimensions carrying at least one value.
// The query planner uses this as its complexity input.
func (s *Set) ActiveDimensions() int {
	n := 0
	if len(s.CategoryIDs) > 0 {
		n++
	}
	if len(s.Tags) > 0 {
		n++
	}
	if len(s.AuthorIDs) > 0 {
		n++
	}
	if s.DateRange != nil {
		n++
	}
	if len(s.NumericRanges) > 0 {
		n++
	}
	if s.Organization != "" {
		n++
	}
	return n
}

// WithoutDimension returns a copy of the set with one facetable dimension
// cleared. Facet counts for a dimension are scoped by all other filters
// but never by the dimension itself.
func (s *Set) WithoutDimension(dim Dimension) Set {
	out := *s
	switch dim {
	case DimCategory:
		out.CategoryIDs = nil
	case DimTag:
		out.Tags = nil
	case DimAuthor:
		out.AuthorIDs = nil
	case DimDate:
		out.DateRange = nil
	}
	return out
}

// Canonical renders the set as a compact deterministic string. The
// analytics trail stores this form so identical filter combinations
// compare equal regardless of the caller's input ordering.
func (s *Set) Canonical() string {
	var parts []string
	if len(s.ContentTypes) > 0 && len(s.ContentTypes) < len(domain.AllContentTypes()) {
		kinds := make([]string, len(s.ContentTypes))
		for i, t := range s.ContentTypes {
			kinds[i] = string(t)
		}
		sort.Strings(kinds)
		parts = append(parts, "type:"+strings.Join(kinds, ","))
	}
	parts = appendSorted(parts, "cat", s.CategoryIDs)
	parts = appendSorted(parts, "tag", s.Tags)
	parts = appendSorted(parts, "author", s.AuthorIDs)
	if s.DateRange != nil {
		from, to := "", ""
		if !s.DateRange.From.IsZero() {
			from = s.DateRange.From.UTC().Format(time.RFC3339)
		}
		if !s.DateRange.To.IsZero() {
			to = s.DateRange.To.UTC().Format(time.RFC3339)
		}
		parts = append(parts, "date:"+from+".."+to)
	}
	if len(s.NumericRanges) > 0 {
		fields := make([]string, 0, len(s.NumericRanges))
		for f := range s.NumericRanges {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			r := s.NumericRanges[f]
			if r.Max != nil {
				parts = append(parts, fmt.Sprintf("%s:%g..%g", f, r.Min, *r.Max))
			} else {
				parts = append(parts, fmt.Sprintf("%s:%g..", f, r.Min))
			}
		}
	}
	if s.Organization != "" {
		parts = append(parts, "org:"+s.Organization)
	}
	// The zero Set (EmptyMatch compilations) has no sort at all; only a
	// real non-default sort is worth recording.
	if s.SortBy != "" && s.SortOrder != "" && (s.SortBy != SortRelevance || s.SortOrder != Desc) {
		parts = append(parts, "sort:"+string(s.SortBy)+" "+string(s.SortOrder))
	}
	return strings.Join(parts, "|")
}

func appendSorted(parts []string, name string, values []string) []string {
	if len(values) == 0 {
		return parts
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return append(parts, name+":"+strings.Join(sorted, ","))
}

// Dimension names a facetable filter dimension.
type Dimension string

// Facetable dimensions.
const (
	DimCategory Dimension = "category"
	DimTag      Dimension = "tag"
	DimAuthor   Dimension = "author"
	DimDate     Dimension = "date"
)

// FacetDimensions returns all facetable dimensions in stable order.
func FacetDimensions() []Dimension {
	return []Dimension{DimCategory, DimTag, DimAuthor, DimDate}
}

// EmptyMatch marks the terminal compilation outcome where one dimension
// resolved to zero candidate ids. It is a valid result, not an error: the
// whole query short-circuits to an empty result set and must never fall
// through to "match all".
type EmptyMatch struct {
	Dimension Dimension
	Values    []string
}
