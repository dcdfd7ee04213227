package orchestrator

import (
	"context"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/plan"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
)

// Compiler turns raw filters into a canonical set, an EmptyMatch, or an
// invalid-filter error.
type Compiler interface {
	Compile(ctx context.Context, actor domain.ActorContext, raw filter.Raw) (filter.Set, *filter.EmptyMatch, error)
}

// Tierer derives the execution plan for a compiled query.
type Tierer interface {
	Plan(hasQuery bool, set *filter.Set) plan.Plan
}

// Ranker produces one ordered page of matches for a single content kind.
type Ranker interface {
	Rank(
		ctx context.Context, kind domain.ContentType,
		text string, set *filter.Set, pl plan.Plan, page request.Page,
	) ([]result.Scored, int, error)
}

// Faceter computes refinement facets across content kinds.
type Faceter interface {
	ForKinds(
		ctx context.Context, kinds []domain.ContentType, text string, set *filter.Set,
	) (map[filter.Dimension][]repofacet.Value, error)
}

// Tracker records query analytics off the request path.
type Tracker interface {
	Record(rec domanalytics.QueryRecord)
}
