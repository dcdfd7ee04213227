package result

import (
	"sort"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
)

// RankReason explains why a result ranked where it did.
type RankReason string

// Rank reasons.
const (
	ReasonTextMatch  RankReason = "textMatch"
	ReasonRecency    RankReason = "recency"
	ReasonPopularity RankReason = "popularity"
	ReasonTrending   RankReason = "trending"
	ReasonAffinity   RankReason = "affinity"
)

// Scored is a single ranked search hit.
type Scored struct {
	Item     domain.ContentItem
	Score    float64
	Reason   RankReason
	Excerpt  string
	Position int // dense, zero-based, assigned by Renumber
}

// State is the terminal state of a search request.
type State string

// Terminal states.
const (
	StateAssembled   State = "assembled"
	StateEmptyResult State = "empty_result"
	StateFailed      State = "failed"
)

// Set is the assembled response of one search request.
type Set struct {
	Results    []Scored
	TotalCount int
	TookMs     int64
	State      State
	// Degraded marks a response where at least one content kind's
	// sub-query failed and only the successful subset is included.
	Degraded bool
}

// SortByRelevance orders results by (score DESC, publishedAt DESC, id ASC).
// The two trailing keys are pure tie-breaks; applied in exactly that order
// so repeated calls over identical inputs reproduce the same ordering.
func SortByRelevance(rs []Scored) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		if !rs[i].Item.PublishedAt.Equal(rs[j].Item.PublishedAt) {
			return rs[i].Item.PublishedAt.After(rs[j].Item.PublishedAt)
		}
		return rs[i].Item.ID < rs[j].Item.ID
	})
}

// SortByField orders results by the requested sort key with id ASC as the
// final tie-break. Relevance score is ignored entirely for field sorts.
func SortByField(rs []Scored, key filter.SortKey, order filter.SortOrder) {
	asc := order == filter.Asc
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := fieldValue(&rs[i], key), fieldValue(&rs[j], key)
		if a != b {
			if asc {
				return a < b
			}
			return a > b
		}
		return rs[i].Item.ID < rs[j].Item.ID
	})
}

func fieldValue(r *Scored, key filter.SortKey) int64 {
	switch key {
	case filter.SortDate:
		return r.Item.PublishedAt.UnixMilli()
	case filter.SortViews:
		return r.Item.Engagement.Views
	case filter.SortEngagement:
		return r.Item.Engagement.Total()
	default:
		return 0
	}
}

// Renumber assigns dense zero-based positions in current slice order.
func Renumber(rs []Scored) {
	for i := range rs {
		rs[i].Position = i
	}
}
