package trending

import (
	"context"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/repository/engagement"
)

// CandidateLister enumerates recently published item ids for one kind.
type CandidateLister interface {
	RecentIDs(ctx context.Context, kind domain.ContentType, sinceUnix int64, limit int) ([]string, error)
}

// ContentReader hydrates items by id.
type ContentReader interface {
	GetMulti(ctx context.Context, kind domain.ContentType, ids []string) ([]domain.ContentItem, error)
}

// EngagementReader reads windowed engagement counts for growth computation.
type EngagementReader interface {
	Windows(
		ctx context.Context, kind domain.ContentType, itemID string,
		now time.Time, window time.Duration,
	) (engagement.WindowCounts, error)
}
