package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
)

// rangeFields whitelists the numeric dimensions callers may filter on.
var rangeFields = map[string]string{
	"readingTime":  "reading_time",
	"reading_time": "reading_time",
	"views":        "views",
	"engagement":   "engagement",
}

// Service compiles raw filter input into a canonical filter.Set. Compilation
// has three terminal outcomes: a valid set, an EmptyMatch when a supplied
// dimension resolved to zero candidates, or an invalid-filter error. An
// EmptyMatch must short-circuit the whole query; silently widening it to
// "match all" would be a correctness bug, not a convenience.
type Service struct {
	taxonomy TaxonomyResolver
}

// New creates a filter compilation service.
func New(taxonomy TaxonomyResolver) *Service {
	return &Service{taxonomy: taxonomy}
}

// Compile resolves and validates raw filters against the taxonomy. Exactly
// one of the three return values is meaningful: (set, nil, nil) on success,
// (zero, empty, nil) when a dimension matched nothing, (zero, nil, err) on
// invalid input.
func (s *Service) Compile(
	ctx context.Context, actor domain.ActorContext, raw filter.Raw,
) (filter.Set, *filter.EmptyMatch, error) {
	var set filter.Set

	kinds, err := compileContentTypes(raw.ContentTypes)
	if err != nil {
		return filter.Set{}, nil, err
	}
	set.ContentTypes = kinds

	if len(raw.Categories) > 0 {
		ids, err := s.taxonomy.ResolveCategories(ctx, raw.Categories)
		if err != nil {
			return filter.Set{}, nil, fmt.Errorf("resolve categories: %w", err)
		}
		if len(ids) == 0 {
			return filter.Set{}, &filter.EmptyMatch{Dimension: filter.DimCategory, Values: raw.Categories}, nil
		}
		set.CategoryIDs = ids
	}

	if len(raw.Authors) > 0 {
		ids, err := s.taxonomy.ResolveAuthors(ctx, raw.Authors)
		if err != nil {
			return filter.Set{}, nil, fmt.Errorf("resolve authors: %w", err)
		}
		if len(ids) == 0 {
			return filter.Set{}, &filter.EmptyMatch{Dimension: filter.DimAuthor, Values: raw.Authors}, nil
		}
		set.AuthorIDs = ids
	}

	if len(raw.Tags) > 0 {
		wanted := dedupLower(raw.Tags)
		known, err := s.taxonomy.KnownTags(ctx, wanted)
		if err != nil {
			return filter.Set{}, nil, fmt.Errorf("resolve tags: %w", err)
		}
		// Tags combine conjunctively, so a single unknown tag already
		// guarantees zero matches.
		if len(known) < len(wanted) {
			return filter.Set{}, &filter.EmptyMatch{Dimension: filter.DimTag, Values: raw.Tags}, nil
		}
		set.Tags = known
	}

	if raw.DateFrom != nil || raw.DateTo != nil {
		dr := &filter.DateRange{}
		if raw.DateFrom != nil {
			dr.From = *raw.DateFrom
		}
		if raw.DateTo != nil {
			dr.To = *raw.DateTo
		}
		set.DateRange = dr
	}

	if len(raw.NumericRanges) > 0 {
		set.NumericRanges = make(map[string]filter.NumericRange, len(raw.NumericRanges))
		for name, r := range raw.NumericRanges {
			field, ok := rangeFields[name]
			if !ok {
				return filter.Set{}, nil, fmt.Errorf("%w: unknown range field %q", domain.ErrInvalidFilter, name)
			}
			set.NumericRanges[field] = compileRange(r)
		}
	}

	set.Organization = strings.TrimSpace(raw.Organization)

	set.SortBy = filter.SortRelevance
	if raw.SortBy != "" {
		set.SortBy = filter.SortKey(strings.ToLower(strings.TrimSpace(raw.SortBy)))
	}
	set.SortOrder = filter.Desc
	if raw.SortOrder != "" {
		set.SortOrder = filter.SortOrder(strings.ToLower(strings.TrimSpace(raw.SortOrder)))
	}

	if !actor.IsAnonymous() {
		set.VisibleTo = actor.ID
	}

	if err := set.Validate(); err != nil {
		return filter.Set{}, nil, err
	}
	return set, nil, nil
}

func compileContentTypes(raw []string) ([]domain.ContentType, error) {
	if len(raw) == 0 {
		return domain.AllContentTypes(), nil
	}
	seen := make(map[domain.ContentType]bool, len(raw))
	var kinds []domain.ContentType
	for _, v := range raw {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || v == "all" {
			return domain.AllContentTypes(), nil
		}
		t := domain.ContentType(v)
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidFilter, v)
		}
		if !seen[t] {
			seen[t] = true
			kinds = append(kinds, t)
		}
	}
	return kinds, nil
}

// compileRange normalizes a raw numeric range: a missing min floors at zero
// and the UnboundedMax sentinel drops the upper bound entirely.
func compileRange(r filter.RawRange) filter.NumericRange {
	out := filter.NumericRange{}
	if r.Min != nil {
		out.Min = *r.Min
	}
	if r.Max != nil && *r.Max != filter.UnboundedMax {
		max := *r.Max
		out.Max = &max
	}
	return out
}

func dedupLower(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
