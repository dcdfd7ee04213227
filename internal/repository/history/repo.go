package history

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// store is the consumer interface for actor history (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRangeByScoreRev(ctx context.Context, key string, min, max float64, limit int) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// MaxViewsRead caps how much view history one affinity profile reads.
const MaxViewsRead = 200

// Repo stores per-actor view histories and follow edges. Both are inputs
// to the transient affinity profile; neither is ever read outside one
// request's scope.
type Repo struct {
	store store
}

// New creates a history repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func viewsKey(actorID string) string {
	return fmt.Sprintf("%shistory:views:%s", domain.KeyPrefix, actorID)
}

func followsKey(actorID string) string {
	return fmt.Sprintf("%sfollows:%s", domain.KeyPrefix, actorID)
}

// RecordView appends one viewed item id, keyed by view time.
func (r *Repo) RecordView(ctx context.Context, actorID, itemID string, at time.Time) error {
	if err := r.store.ZAdd(ctx, viewsKey(actorID), float64(at.Unix()), itemID); err != nil {
		return fmt.Errorf("record view %s: %w", actorID, err)
	}
	return nil
}

// Follow records an actor following an author.
func (r *Repo) Follow(ctx context.Context, actorID, authorID string) error {
	if err := r.store.SAdd(ctx, followsKey(actorID), authorID); err != nil {
		return fmt.Errorf("follow %s: %w", actorID, err)
	}
	return nil
}

// RecentViewIDs returns item ids the actor viewed in [since, now], most
// recent first, capped at MaxViewsRead.
func (r *Repo) RecentViewIDs(ctx context.Context, actorID string, since, now time.Time) ([]string, error) {
	ids, err := r.store.ZRangeByScoreRev(
		ctx, viewsKey(actorID),
		float64(since.Unix()), float64(now.Unix()),
		MaxViewsRead,
	)
	if err != nil {
		return nil, fmt.Errorf("recent views %s: %w", actorID, err)
	}
	return ids, nil
}

// Follows returns the author ids the actor follows.
func (r *Repo) Follows(ctx context.Context, actorID string) ([]string, error) {
	authors, err := r.store.SMembers(ctx, followsKey(actorID))
	if err != nil {
		return nil, fmt.Errorf("follows %s: %w", actorID, err)
	}
	return authors, nil
}
