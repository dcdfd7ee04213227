package trending

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/trending"
	"github.com/lumenpress/discovery/internal/metrics"
)

// Config holds the refresher tunables next to the scoring weights.
type Config struct {
	Weights        trending.Weights
	CandidateLimit int           // max recent items scored per refresh
	RefreshEvery   time.Duration // snapshot recomputation cadence
	MaxStale       time.Duration // snapshot age beyond which reads recompute live
}

// Service maintains materialized trending orderings, one snapshot per
// timeframe. A single refresher goroutine recomputes and atomically swaps
// snapshots; readers only ever load, so pages are always internally
// consistent and never mix two scoring rounds.
type Service struct {
	lister  CandidateLister
	content ContentReader
	events  EngagementReader
	cfg     Config
	log     *zap.Logger
	now     func() time.Time

	snapshots map[trending.Timeframe]*atomic.Pointer[trending.Snapshot]
}

// New creates a trending service. Snapshots start cold; call Refresh or
// run the refresher to warm them.
func New(lister CandidateLister, content ContentReader, events EngagementReader, cfg Config, log *zap.Logger) *Service {
	s := &Service{
		lister:    lister,
		content:   content,
		events:    events,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		snapshots: make(map[trending.Timeframe]*atomic.Pointer[trending.Snapshot], 3),
	}
	for _, tf := range []trending.Timeframe{trending.Timeframe24h, trending.Timeframe7d, trending.Timeframe30d} {
		s.snapshots[tf] = &atomic.Pointer[trending.Snapshot]{}
	}
	return s
}

// Trending returns one page of the current ordering for a timeframe. A cold
// or overly stale snapshot falls back to a live computation so the endpoint
// stays correct before the first refresh lands. When the snapshot is cold
// and the live computation fails too, the error carries ErrSnapshotCold.
func (s *Service) Trending(
	ctx context.Context, tf trending.Timeframe, limit, offset int,
) ([]trending.Score, bool, error) {
	snap := s.snapshots[tf].Load()
	if snap == nil || snap.Age(s.now()) > s.cfg.MaxStale {
		fresh, err := s.compute(ctx, tf)
		if err != nil {
			if snap != nil {
				// Stale beats unavailable.
				items, more := snap.Page(limit, offset)
				return items, more, nil
			}
			return nil, false, fmt.Errorf("%w: %w", domain.ErrSnapshotCold, err)
		}
		s.snapshots[tf].Store(fresh)
		snap = fresh
	}
	items, more := snap.Page(limit, offset)
	return items, more, nil
}

// Snapshot exposes the current snapshot for a timeframe, nil when cold.
// The feed service reads it for its trending fallback.
func (s *Service) Snapshot(tf trending.Timeframe) *trending.Snapshot {
	return s.snapshots[tf].Load()
}

// Weights exposes the configured scoring weights for reuse as the
// personalization base score.
func (s *Service) Weights() trending.Weights { return s.cfg.Weights }

// Refresh recomputes and swaps every timeframe's snapshot. Only the
// refresher goroutine and startup warming call this.
func (s *Service) Refresh(ctx context.Context) error {
	for tf, slot := range s.snapshots {
		started := time.Now()
		snap, err := s.compute(ctx, tf)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", tf, err)
		}
		slot.Store(snap)
		metrics.TrendingRefreshDuration.WithLabelValues(string(tf)).Observe(time.Since(started).Seconds())
	}
	return nil
}

// Run drives the periodic refresh until the context is cancelled. Start it
// in exactly one goroutine; concurrent writers would defeat the atomic
// swap's consistency guarantee.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("trending refresh failed", zap.Error(err))
			}
		}
	}
}

// compute scores the recent candidate set for one timeframe. Only posts
// published inside the window are eligible; older items are excluded before
// scoring rather than decayed toward zero.
func (s *Service) compute(ctx context.Context, tf trending.Timeframe) (*trending.Snapshot, error) {
	now := s.now()
	window := tf.Duration()
	since := now.Add(-window)

	ids, err := s.lister.RecentIDs(ctx, domain.TypePost, since.Unix(), s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	items, err := s.content.GetMulti(ctx, domain.TypePost, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}

	scores := make([]trending.Score, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.Status != domain.StatusPublished || item.PublishedAt.Before(since) {
			continue
		}

		counts, err := s.events.Windows(ctx, item.Kind, item.ID, now, window)
		if err != nil {
			return nil, fmt.Errorf("engagement windows for %s: %w", item.ID, err)
		}

		scores = append(scores, trending.Score{
			ItemID:              item.ID,
			Kind:                item.Kind,
			Score:               s.cfg.Weights.Score(item, now),
			CurrentWindowCount:  counts.Current,
			PreviousWindowCount: counts.Previous,
			GrowthPercent:       trending.Growth(counts.Current, counts.Previous),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ItemID < scores[j].ItemID
	})

	return &trending.Snapshot{Timeframe: tf, ComputedAt: now, Items: scores}, nil
}
