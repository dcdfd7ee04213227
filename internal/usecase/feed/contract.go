package feed

import (
	"context"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
)

// HistoryReader reads an actor's recent views and active follows.
type HistoryReader interface {
	RecentViewIDs(ctx context.Context, actorID string, since, now time.Time) ([]string, error)
	Follows(ctx context.Context, actorID string) ([]string, error)
}

// ContentReader hydrates items by id.
type ContentReader interface {
	GetMulti(ctx context.Context, kind domain.ContentType, ids []string) ([]domain.ContentItem, error)
}

// CandidateLister enumerates recently published item ids for one kind.
type CandidateLister interface {
	RecentIDs(ctx context.Context, kind domain.ContentType, sinceUnix int64, limit int) ([]string, error)
}

// TrendingSource serves the trending ordering the history-free algorithms
// and fallbacks delegate to.
type TrendingSource interface {
	Trending(ctx context.Context, tf domtrending.Timeframe, limit, offset int) ([]domtrending.Score, bool, error)
	Weights() domtrending.Weights
}
