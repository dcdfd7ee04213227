package analytics

import (
	"context"
	"time"

	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
)

// Recorder persists the analytics trail.
type Recorder interface {
	Append(ctx context.Context, rec *domanalytics.QueryRecord) error
	AttachClick(ctx context.Context, click *domanalytics.Click, window time.Duration, now time.Time) (bool, error)
}
