package feed

import (
	"fmt"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// Algorithm selects the feed ordering strategy.
type Algorithm string

// Feed algorithms.
const (
	Trending     Algorithm = "trending"
	Personalized Algorithm = "personalized"
	Similar      Algorithm = "similar"
	Popular      Algorithm = "popular"
)

// ParseAlgorithm validates an algorithm string, defaulting to trending.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Trending, Personalized, Similar, Popular:
		return Algorithm(s), nil
	case "":
		return Trending, nil
	}
	return "", fmt.Errorf("%w: unknown feed algorithm %q", domain.ErrInvalidArgument, s)
}

// Fallback returns the algorithm to use when the actor has no derivable
// history. personalized degrades to trending, similar to popular; the
// history-free algorithms are their own fallback.
func (a Algorithm) Fallback() Algorithm {
	switch a {
	case Personalized:
		return Trending
	case Similar:
		return Popular
	default:
		return a
	}
}

// NeedsHistory reports whether the algorithm requires an affinity profile.
func (a Algorithm) NeedsHistory() bool {
	return a == Personalized || a == Similar
}

// View is one entry of an actor's recent view history, carrying enough item
// metadata to derive affinity weights.
type View struct {
	ItemID      string
	AuthorID    string
	CategoryIDs []string
	Tags        []string
	ViewedAt    time.Time
}

// AffinityProfile is a per-actor weighting over categories and tags,
// derived transiently per request from recent views and active follows.
// Never persisted.
type AffinityProfile struct {
	ActorID         string
	CategoryWeights map[string]float64
	TagWeights      map[string]float64
	FollowedAuthors map[string]bool
	ViewedItems     map[string]bool
}

// IsEmpty reports whether no affinity signal could be derived. Callers must
// fall back to the trending ordering in that case.
func (p *AffinityProfile) IsEmpty() bool {
	return len(p.CategoryWeights) == 0 && len(p.TagWeights) == 0 && len(p.FollowedAuthors) == 0
}

// BuildProfile derives an affinity profile from view history and follows.
// Each category/tag occurrence in a view adds one unit of weight; views of
// followed authors count followMultiplier times.
func BuildProfile(actorID string, views []View, follows []string, followMultiplier float64) AffinityProfile {
	p := AffinityProfile{
		ActorID:         actorID,
		CategoryWeights: make(map[string]float64),
		TagWeights:      make(map[string]float64),
		FollowedAuthors: make(map[string]bool, len(follows)),
		ViewedItems:     make(map[string]bool, len(views)),
	}
	for _, f := range follows {
		p.FollowedAuthors[f] = true
	}
	for _, v := range views {
		p.ViewedItems[v.ItemID] = true
		unit := 1.0
		if p.FollowedAuthors[v.AuthorID] {
			unit = followMultiplier
		}
		for _, c := range v.CategoryIDs {
			p.CategoryWeights[c] += unit
		}
		for _, t := range v.Tags {
			p.TagWeights[t] += unit
		}
	}
	return p
}

// Overlap sums the profile weights of the given keys against a weight map.
func Overlap(weights map[string]float64, keys []string) float64 {
	var sum float64
	for _, k := range keys {
		sum += weights[k]
	}
	return sum
}
