package facet

import (
	"context"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	repofacet "github.com/lumenpress/discovery/internal/repository/facet"
)

// Counter runs one grouped facet count against the store.
type Counter interface {
	Counts(
		ctx context.Context, kind domain.ContentType, dim filter.Dimension,
		text string, set *filter.Set, topK int,
	) ([]repofacet.Value, error)
}
