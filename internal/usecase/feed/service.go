package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	domfeed "github.com/lumenpress/discovery/internal/domain/feed"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
)

// Config holds the personalization tunables.
type Config struct {
	HistoryWindow       time.Duration // how far back views feed the profile
	Eligibility         time.Duration // max age of feed candidates
	CandidateLimit      int           // max candidates scored per request
	FollowMultiplier    float64       // weight multiplier for views of followed authors
	FollowedAuthorBonus float64       // additive bonus for candidates by followed authors
	FallbackTimeframe   domtrending.Timeframe
}

// Service assembles personalized feeds. Affinity profiles are derived per
// request from recent views and follows, used for one scoring pass, and
// discarded; nothing about an actor's taste is ever persisted.
type Service struct {
	history  HistoryReader
	content  ContentReader
	lister   CandidateLister
	trending TrendingSource
	cfg      Config
	now      func() time.Time
}

// New creates a feed service.
func New(history HistoryReader, content ContentReader, lister CandidateLister, trending TrendingSource, cfg Config) *Service {
	return &Service{
		history:  history,
		content:  content,
		lister:   lister,
		trending: trending,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Feed returns one page of the requested feed. History-dependent
// algorithms degrade for actors without usable history: personalized
// becomes trending, similar becomes popular, producing exactly the
// ordering those algorithms would.
func (s *Service) Feed(
	ctx context.Context, actor domain.ActorContext, alg domfeed.Algorithm, limit, offset int,
) ([]result.Scored, bool, error) {
	if alg.NeedsHistory() {
		if actor.IsAnonymous() {
			alg = alg.Fallback()
		} else {
			profile, err := s.buildProfile(ctx, actor.ID)
			if err != nil {
				return nil, false, err
			}
			if profile.IsEmpty() {
				alg = alg.Fallback()
			} else {
				return s.affinityFeed(ctx, actor, alg, &profile, limit, offset)
			}
		}
	}

	switch alg {
	case domfeed.Trending:
		return s.trendingFeed(ctx, limit, offset)
	case domfeed.Popular:
		return s.popularFeed(ctx, limit, offset)
	default:
		return nil, false, fmt.Errorf("%w: unhandled feed algorithm %q", domain.ErrInvalidArgument, alg)
	}
}

func (s *Service) buildProfile(ctx context.Context, actorID string) (domfeed.AffinityProfile, error) {
	now := s.now()
	ids, err := s.history.RecentViewIDs(ctx, actorID, now.Add(-s.cfg.HistoryWindow), now)
	if err != nil {
		return domfeed.AffinityProfile{}, fmt.Errorf("view history: %w", err)
	}
	follows, err := s.history.Follows(ctx, actorID)
	if err != nil {
		return domfeed.AffinityProfile{}, fmt.Errorf("follows: %w", err)
	}

	var views []domfeed.View
	if len(ids) > 0 {
		items, err := s.content.GetMulti(ctx, domain.TypePost, ids)
		if err != nil {
			return domfeed.AffinityProfile{}, fmt.Errorf("hydrate history: %w", err)
		}
		views = make([]domfeed.View, 0, len(items))
		for _, it := range items {
			views = append(views, domfeed.View{
				ItemID:      it.ID,
				AuthorID:    it.AuthorID,
				CategoryIDs: it.CategoryIDs,
				Tags:        it.Tags,
			})
		}
	}

	return domfeed.BuildProfile(actorID, views, follows, s.cfg.FollowMultiplier), nil
}

// affinityFeed scores recent candidates against the profile. personalized
// blends affinity on top of base popularity; similar ranks on content
// overlap alone.
func (s *Service) affinityFeed(
	ctx context.Context, actor domain.ActorContext, alg domfeed.Algorithm,
	profile *domfeed.AffinityProfile, limit, offset int,
) ([]result.Scored, bool, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, false, err
	}

	weights := s.trending.Weights()
	scored := make([]result.Scored, 0, len(candidates))
	for _, item := range candidates {
		if profile.ViewedItems[item.ID] || item.AuthorID == actor.ID {
			continue
		}

		affinity := domfeed.Overlap(profile.CategoryWeights, item.CategoryIDs) +
			domfeed.Overlap(profile.TagWeights, item.Tags)
		if profile.FollowedAuthors[item.AuthorID] {
			affinity += s.cfg.FollowedAuthorBonus
		}

		score := affinity
		if alg == domfeed.Personalized {
			score += weights.Engagement(item.Engagement)
		} else if affinity == 0 {
			// similar: items with no overlap at all are not similar.
			continue
		}

		scored = append(scored, result.Scored{
			Item:   item,
			Score:  score,
			Reason: result.ReasonAffinity,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	return pageOf(scored, limit, offset)
}

func (s *Service) trendingFeed(ctx context.Context, limit, offset int) ([]result.Scored, bool, error) {
	ranks, more, err := s.trending.Trending(ctx, s.cfg.FallbackTimeframe, limit, offset)
	if err != nil {
		return nil, false, fmt.Errorf("trending feed: %w", err)
	}

	ids := make([]string, len(ranks))
	for i, r := range ranks {
		ids[i] = r.ItemID
	}
	items, err := s.content.GetMulti(ctx, domain.TypePost, ids)
	if err != nil {
		return nil, false, fmt.Errorf("hydrate trending feed: %w", err)
	}

	byID := make(map[string]domain.ContentItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	scored := make([]result.Scored, 0, len(ranks))
	for _, r := range ranks {
		item, ok := byID[r.ItemID]
		if !ok {
			continue
		}
		scored = append(scored, result.Scored{
			Item:   item,
			Score:  r.Score,
			Reason: result.ReasonTrending,
		})
	}
	result.Renumber(scored)
	return scored, more, nil
}

// popularFeed ranks recent items on raw weighted engagement with no decay
// and no personal signal.
func (s *Service) popularFeed(ctx context.Context, limit, offset int) ([]result.Scored, bool, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, false, err
	}

	weights := s.trending.Weights()
	scored := make([]result.Scored, 0, len(candidates))
	for _, item := range candidates {
		scored = append(scored, result.Scored{
			Item:   item,
			Score:  weights.Engagement(item.Engagement),
			Reason: result.ReasonPopularity,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	return pageOf(scored, limit, offset)
}

func (s *Service) candidates(ctx context.Context) ([]domain.ContentItem, error) {
	since := s.now().Add(-s.cfg.Eligibility)
	ids, err := s.lister.RecentIDs(ctx, domain.TypePost, since.Unix(), s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("feed candidates: %w", err)
	}
	items, err := s.content.GetMulti(ctx, domain.TypePost, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}
	live := items[:0]
	for _, it := range items {
		if it.Status == domain.StatusPublished {
			live = append(live, it)
		}
	}
	return live, nil
}

func pageOf(scored []result.Scored, limit, offset int) ([]result.Scored, bool, error) {
	if offset >= len(scored) {
		return nil, false, nil
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	page := scored[offset:end]
	result.Renumber(page)
	return page, end < len(scored), nil
}
