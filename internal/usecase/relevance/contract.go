package relevance

import (
	"context"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/repository/search"
)

// Repository runs ranked text matching against one content kind.
type Repository interface {
	Search(ctx context.Context, kind domain.ContentType, p *search.Params) ([]search.Hit, int, error)
}
