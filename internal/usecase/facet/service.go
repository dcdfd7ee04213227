package facet

import (
	"context"
	"fmt"
	"sort"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
)

// Service computes refinement facets for a query. Each dimension is
// counted against the filter set with that dimension removed, so picking
// a category still shows what the other categories would have matched.
type Service struct {
	counter Counter
	topK    int
}

// New creates a facet service.
func New(counter Counter, topK int) *Service {
	return &Service{counter: counter, topK: topK}
}

// Facets returns the top-K values per facetable dimension for one content
// kind. Zero-count values never appear; a dimension with no values at all
// is omitted from the map entirely.
func (s *Service) Facets(
	ctx context.Context, kind domain.ContentType, text string, set *filter.Set,
) (map[filter.Dimension][]repofacet.Value, error) {
	out := make(map[filter.Dimension][]repofacet.Value, 4)
	for _, dim := range filter.FacetDimensions() {
		scoped := set.WithoutDimension(dim)
		values, err := s.counter.Counts(ctx, kind, dim, text, &scoped, s.topK)
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", dim, err)
		}
		if len(values) > 0 {
			out[dim] = values
		}
	}
	return out, nil
}

// ForKinds merges facets across several content kinds by summing counts of
// equal values, re-sorting each dimension by count descending then value
// ascending, and re-applying the top-K cap.
func (s *Service) ForKinds(
	ctx context.Context, kinds []domain.ContentType, text string, set *filter.Set,
) (map[filter.Dimension][]repofacet.Value, error) {
	if len(kinds) == 1 {
		return s.Facets(ctx, kinds[0], text, set)
	}

	merged := make(map[filter.Dimension]map[string]int, 4)
	for _, kind := range kinds {
		facets, err := s.Facets(ctx, kind, text, set)
		if err != nil {
			return nil, err
		}
		for dim, values := range facets {
			if merged[dim] == nil {
				merged[dim] = make(map[string]int)
			}
			for _, v := range values {
				merged[dim][v.Value] += v.Count
			}
		}
	}

	out := make(map[filter.Dimension][]repofacet.Value, len(merged))
	for dim, counts := range merged {
		out[dim] = topValues(counts, s.topK)
	}
	return out, nil
}

func topValues(counts map[string]int, topK int) []repofacet.Value {
	values := make([]repofacet.Value, 0, len(counts))
	for v, c := range counts {
		values = append(values, repofacet.Value{Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
	if len(values) > topK {
		values = values[:topK]
	}
	return values
}
