package facet

import (
	"context"
	"fmt"

	"github.com/lumenpress/discovery/internal/db"
	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/repository/content"
)

// store is the consumer interface for facet counting (ISP).
type store interface {
	Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error)
}

// Value is one facet candidate with its match count.
type Value struct {
	Value string
	Count int
}

// Repo computes facet value counts via grouped aggregation.
type Repo struct {
	store store
}

// New creates a facet repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Counts groups matches of the given (already dimension-stripped) filter
// set by one facetable dimension and returns the top-K values. The store
// orders groups by count descending then value ascending, which fixes the
// tie order at the cap boundary.
func (r *Repo) Counts(
	ctx context.Context,
	kind domain.ContentType,
	dim filter.Dimension,
	text string,
	set *filter.Set,
	topK int,
) ([]Value, error) {
	q := &db.AggregateQuery{
		IndexName: content.IndexName(kind),
		Text:      text,
		Predicate: db.Predicate(set),
		Limit:     topK,
	}

	switch dim {
	case filter.DimCategory:
		q.GroupBy = db.FieldCategories
	case filter.DimTag:
		q.GroupBy = db.FieldTags
	case filter.DimAuthor:
		q.GroupBy = db.FieldAuthorID
	case filter.DimDate:
		// month buckets computed from the publish timestamp
		q.Load = []string{db.FieldPublishedAt}
		q.Apply = &db.ApplyExpr{
			Expression: fmt.Sprintf("timefmt(@%s, '%%Y-%%m')", db.FieldPublishedAt),
			As:         "bucket",
		}
		q.GroupBy = "bucket"
	default:
		return nil, fmt.Errorf("unknown facet dimension %q", dim)
	}

	rows, err := r.store.Aggregate(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("facet %s/%s: %w", kind, dim, err)
	}

	values := make([]Value, 0, len(rows))
	for _, row := range rows {
		// GROUPBY never emits empty groups, but guard anyway: a zero
		// count must be omitted, not returned.
		if row.Count <= 0 || row.Value == "" {
			continue
		}
		values = append(values, Value{Value: row.Value, Count: row.Count})
	}
	return values, nil
}
