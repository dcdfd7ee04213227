package trending

import (
	"fmt"
	"math"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// Timeframe is the trailing window over which engagement is aggregated.
type Timeframe string

// Supported timeframes.
const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

// Parse validates a timeframe string.
func Parse(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case Timeframe24h, Timeframe7d, Timeframe30d:
		return Timeframe(s), nil
	case "":
		return Timeframe7d, nil
	}
	return "", fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidArgument, s)
}

// Duration returns the window length.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe24h:
		return 24 * time.Hour
	case Timeframe30d:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Score is one item's trending rank entry.
type Score struct {
	ItemID              string
	Kind                domain.ContentType
	Score               float64
	CurrentWindowCount  int64
	PreviousWindowCount int64
	GrowthPercent       float64
}

// Growth compares engagement in the current trailing window against the
// immediately preceding window of equal length.
// previous == 0 yields 0, not +Inf: a policy choice to keep brand-new items
// from dominating purely on division edge cases, not a mathematical necessity.
func Growth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return (float64(current)/float64(previous) - 1) * 100
}

// Weights holds the tunable scoring constants. The literal values carry no
// documented derivation, so they live in configuration rather than code.
type Weights struct {
	View          float64
	Like          float64
	Comment       float64
	Share         float64
	RecencyWeight float64       // scale of the decay bonus at age zero
	HalfLife      time.Duration // age at which the decay bonus halves
	VerifiedBoost float64       // additive bonus for verified-org items
}

// Engagement returns the weighted engagement portion of the score,
// without decay. The personalization scorer reuses this as its cheap
// base-popularity proxy.
func (w Weights) Engagement(e domain.Engagement) float64 {
	return w.View*float64(e.Views) +
		w.Like*float64(e.Likes) +
		w.Comment*float64(e.Comments) +
		w.Share*float64(e.Shares)
}

// Score computes the full trending score of one item at the given instant.
// The decay term is exponential in age and monotonically non-increasing,
// so of two items with identical counters the younger always scores higher.
func (w Weights) Score(item *domain.ContentItem, now time.Time) float64 {
	s := w.Engagement(item.Engagement)

	age := now.Sub(item.PublishedAt)
	if age < 0 {
		age = 0
	}
	halfLives := age.Seconds() / w.HalfLife.Seconds()
	s += w.RecencyWeight * math.Exp2(-halfLives)

	if item.OrgVerified {
		s += w.VerifiedBoost
	}
	return s
}

// Snapshot is one materialized trending ordering. Recomputed on a fixed
// cadence and swapped atomically; always derivable from counters and
// timestamps, never source-of-truth.
type Snapshot struct {
	Timeframe  Timeframe
	ComputedAt time.Time
	Items      []Score
}

// Page returns one page of the snapshot plus a has-more marker.
func (s *Snapshot) Page(limit, offset int) ([]Score, bool) {
	if offset >= len(s.Items) {
		return nil, false
	}
	end := offset + limit
	if end > len(s.Items) {
		end = len(s.Items)
	}
	return s.Items[offset:end], end < len(s.Items)
}

// Age returns how stale the snapshot is.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.ComputedAt)
}
