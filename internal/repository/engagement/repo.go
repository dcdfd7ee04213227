package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// store is the consumer interface for engagement windows (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
}

// retention bounds the per-item event log: nothing older than two 30-day
// windows is ever read, so older events are pruned on write.
const retention = 2 * 30 * 24 * time.Hour

// WindowCounts holds event counts for the current trailing window and the
// immediately preceding window of equal length.
type WindowCounts struct {
	Current  int64
	Previous int64
}

// Repo stores per-item engagement events as timestamp-scored sorted sets
// and answers trailing-window counts over them.
type Repo struct {
	store store
}

// New creates an engagement repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func eventsKey(kind domain.ContentType, itemID string) string {
	return fmt.Sprintf("%sevents:%s:%s", domain.KeyPrefix, kind, itemID)
}

// Record appends one engagement event. eventID must be unique per event
// (sorted-set members collapse duplicates).
func (r *Repo) Record(ctx context.Context, kind domain.ContentType, itemID, eventID string, at time.Time) error {
	key := eventsKey(kind, itemID)
	if err := r.store.ZAdd(ctx, key, float64(at.Unix()), eventID); err != nil {
		return fmt.Errorf("record event %s: %w", itemID, err)
	}
	// Opportunistic prune; failure is harmless, the next write retries.
	cutoff := at.Add(-retention)
	_ = r.store.ZRemRangeByScore(ctx, key, 0, float64(cutoff.Unix()))
	return nil
}

// Windows counts events in [now-window, now] and [now-2·window, now-window).
func (r *Repo) Windows(
	ctx context.Context, kind domain.ContentType, itemID string, now time.Time, window time.Duration,
) (WindowCounts, error) {
	key := eventsKey(kind, itemID)
	edge := now.Add(-window)

	current, err := r.store.ZCount(ctx, key, float64(edge.Unix()), float64(now.Unix()))
	if err != nil {
		return WindowCounts{}, fmt.Errorf("current window %s: %w", itemID, err)
	}

	prevStart := now.Add(-2 * window)
	previous, err := r.store.ZCount(ctx, key, float64(prevStart.Unix()), float64(edge.Unix()-1))
	if err != nil {
		return WindowCounts{}, fmt.Errorf("previous window %s: %w", itemID, err)
	}

	return WindowCounts{Current: current, Previous: previous}, nil
}
