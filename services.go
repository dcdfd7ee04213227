package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	domfeed "github.com/lumenpress/discovery/internal/domain/feed"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
	contentrepo "github.com/lumenpress/discovery/internal/repository/content"
	engagementrepo "github.com/lumenpress/discovery/internal/repository/engagement"
	historyrepo "github.com/lumenpress/discovery/internal/repository/history"
	taxonomyrepo "github.com/lumenpress/discovery/internal/repository/taxonomy"
	analyticsuc "github.com/lumenpress/discovery/internal/usecase/analytics"
	feeduc "github.com/lumenpress/discovery/internal/usecase/feed"
	"github.com/lumenpress/discovery/internal/usecase/orchestrator"
	suggestuc "github.com/lumenpress/discovery/internal/usecase/suggest"
	trendinguc "github.com/lumenpress/discovery/internal/usecase/trending"
)

// ContentService indexes and reads content items.
type ContentService struct {
	content  *contentrepo.Repo
	taxonomy *taxonomyrepo.Repo
}

// Index upserts one item into its kind's index and registers its tags
// with the typeahead registry.
func (s *ContentService) Index(ctx context.Context, item *Item) error {
	if err := s.content.Put(ctx, itemToDomain(item)); err != nil {
		return err
	}
	for _, tag := range item.Tags {
		if err := s.taxonomy.BumpTag(ctx, tag); err != nil {
			return fmt.Errorf("register tag %q: %w", tag, err)
		}
	}
	return nil
}

// Get reads one item back.
func (s *ContentService) Get(ctx context.Context, kind ContentKind, id string) (Item, error) {
	item, err := s.content.Get(ctx, domain.ContentType(kind), id)
	if err != nil {
		return Item{}, err
	}
	return itemFromDomain(&item), nil
}

// Delete removes one item from its index.
func (s *ContentService) Delete(ctx context.Context, kind ContentKind, id string) error {
	return s.content.Delete(ctx, domain.ContentType(kind), id)
}

// SearchService runs searches, facet counts and typeahead suggestions.
type SearchService struct {
	search    *orchestrator.Service
	suggest   *suggestuc.Service
	analytics *analyticsuc.Service
}

// Query runs one search. actorID may be empty for anonymous callers;
// a non-empty one widens visibility to the actor's own drafts.
func (s *SearchService) Query(ctx context.Context, actorID string, req *SearchRequest) (*SearchResult, error) {
	domReq, err := request.New(req.Query, filtersToRaw(req.Filters),
		request.NewPage(req.Limit, req.Offset))
	if err != nil {
		return nil, err
	}
	ctx = domain.ContextWithActor(ctx, domain.ActorContext{ID: actorID})
	resp, err := s.search.Search(ctx, &domReq)
	if err != nil {
		return nil, err
	}
	return searchResultFromResponse(resp), nil
}

// Facets returns per-dimension value counts for a query without fetching
// any results.
func (s *SearchService) Facets(
	ctx context.Context, actorID, query string, filters *Filters,
) (map[string][]FacetValue, error) {
	ctx = domain.ContextWithActor(ctx, domain.ActorContext{ID: actorID})
	facets, err := s.search.Facets(ctx, query, filtersToRaw(filters))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]FacetValue, len(facets))
	for dim, values := range facets {
		out[string(dim)] = facetValues(values)
	}
	return out, nil
}

// Suggest returns typeahead candidates for a partial query.
func (s *SearchService) Suggest(
	ctx context.Context, partial string, kinds []ContentKind, limit int,
) ([]Suggestion, error) {
	domKinds := make([]domain.ContentType, len(kinds))
	for i, k := range kinds {
		domKinds[i] = domain.ContentType(k)
	}
	suggestions, err := s.suggest.Suggest(ctx, partial, domKinds, limit)
	if err != nil {
		return nil, err
	}
	return suggestionsFromDomain(suggestions), nil
}

// ReportClick attaches a result selection to its originating search
// record. Best-effort; unmatched clicks are dropped silently.
func (s *SearchService) ReportClick(ctx context.Context, query, resultID string, kind ContentKind, position int) {
	s.analytics.RecordClick(ctx, &domanalytics.Click{
		Query:      query,
		ResultID:   resultID,
		ResultType: domain.ContentType(kind),
		Position:   position,
	})
}

// FeedService serves trending orderings and personalized feeds.
type FeedService struct {
	trending *trendinguc.Service
	feed     *feeduc.Service
}

// Trending returns one page of the ordering for a timeframe string
// ("24h", "7d" or "30d"; empty defaults to "7d").
func (s *FeedService) Trending(
	ctx context.Context, timeframe string, limit, offset int,
) ([]TrendingItem, bool, error) {
	tf, err := domtrending.Parse(timeframe)
	if err != nil {
		return nil, false, err
	}
	page := request.NewPage(limit, offset)
	scores, more, err := s.trending.Trending(ctx, tf, page.Limit(), page.Offset())
	if err != nil {
		return nil, false, err
	}
	items := make([]TrendingItem, len(scores))
	for i, sc := range scores {
		items[i] = TrendingItem{
			ItemID:        sc.ItemID,
			Kind:          ContentKind(sc.Kind),
			Score:         sc.Score,
			GrowthPercent: sc.GrowthPercent,
		}
	}
	return items, more, nil
}

// ForActor returns one feed page for an actor. algorithm is one of
// "trending", "popular", "personalized" or "similar"; empty defaults to
// "trending". History-dependent algorithms degrade when the actor has no
// usable history.
func (s *FeedService) ForActor(
	ctx context.Context, actorID, algorithm string, limit, offset int,
) ([]ResultItem, bool, error) {
	alg, err := domfeed.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, false, err
	}
	page := request.NewPage(limit, offset)
	scored, more, err := s.feed.Feed(ctx, domain.ActorContext{ID: actorID}, alg, page.Limit(), page.Offset())
	if err != nil {
		return nil, false, err
	}
	return resultItems(scored), more, nil
}

// ActivityService records the actor signals the feed and trending
// services consume.
type ActivityService struct {
	history    *historyrepo.Repo
	engagement *engagementrepo.Repo
}

// RecordView stores one content view for feed personalization and bumps
// the item's engagement window.
func (s *ActivityService) RecordView(ctx context.Context, actorID string, kind ContentKind, itemID string) error {
	now := time.Now()
	if actorID != "" {
		if err := s.history.RecordView(ctx, actorID, itemID, now); err != nil {
			return err
		}
	}
	return s.engagement.Record(ctx, domain.ContentType(kind), itemID, uuid.NewString(), now)
}

// RecordEngagement stores one like, comment or share event for trending
// growth tracking.
func (s *ActivityService) RecordEngagement(ctx context.Context, kind ContentKind, itemID string) error {
	return s.engagement.Record(ctx, domain.ContentType(kind), itemID, uuid.NewString(), time.Now())
}

// Follow records an actor following an author.
func (s *ActivityService) Follow(ctx context.Context, actorID, authorID string) error {
	return s.history.Follow(ctx, actorID, authorID)
}
