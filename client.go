package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/config"
	"github.com/lumenpress/discovery/internal/db"
	dbRedis "github.com/lumenpress/discovery/internal/db/redis"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
	analyticsrepo "github.com/lumenpress/discovery/internal/repository/analytics"
	contentrepo "github.com/lumenpress/discovery/internal/repository/content"
	engagementrepo "github.com/lumenpress/discovery/internal/repository/engagement"
	facetrepo "github.com/lumenpress/discovery/internal/repository/facet"
	historyrepo "github.com/lumenpress/discovery/internal/repository/history"
	searchrepo "github.com/lumenpress/discovery/internal/repository/search"
	taxonomyrepo "github.com/lumenpress/discovery/internal/repository/taxonomy"
	analyticsuc "github.com/lumenpress/discovery/internal/usecase/analytics"
	facetuc "github.com/lumenpress/discovery/internal/usecase/facet"
	feeduc "github.com/lumenpress/discovery/internal/usecase/feed"
	"github.com/lumenpress/discovery/internal/usecase/filtering"
	"github.com/lumenpress/discovery/internal/usecase/orchestrator"
	"github.com/lumenpress/discovery/internal/usecase/planner"
	"github.com/lumenpress/discovery/internal/usecase/relevance"
	suggestuc "github.com/lumenpress/discovery/internal/usecase/suggest"
	trendinguc "github.com/lumenpress/discovery/internal/usecase/trending"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded discovery SDK entry point. It wires the same
// services the HTTP server runs, minus the transport.
type Client struct {
	store        db.Store
	content      *contentrepo.Repo
	taxonomy     *taxonomyrepo.Repo
	history      *historyrepo.Repo
	engagement   *engagementrepo.Repo
	searchSvc    *orchestrator.Service
	trendingSvc  *trendinguc.Service
	feedSvc      *feeduc.Service
	suggestSvc   *suggestuc.Service
	analyticsSvc *analyticsuc.Service
	bgCancel     context.CancelFunc
}

// New creates a discovery Client, connects to the database and creates
// the per-kind content indexes.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{log: zap.NewNop()}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("discovery: database address required (use WithRedis or WithValkey)")
	}

	baseStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: create store: %w", err)
	}

	ctx := context.Background()
	if err := baseStore.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		baseStore.Close()
		return nil, fmt.Errorf("discovery: database not ready: %w", err)
	}

	c, err := wireClient(baseStore, cfg)
	if err != nil {
		baseStore.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(baseStore db.Store, cfg *clientConfig) (*Client, error) {
	// Knob defaults match the server's config defaults.
	var defaults config.Config
	defaults.ApplyDefaults()

	var store db.Store = baseStore
	if cfg.callTimeout > 0 {
		store = db.WithCallTimeout(baseStore, cfg.callTimeout)
	}

	contentRepo := contentrepo.New(store)
	searchRepo := searchrepo.New(store)
	facetRepo := facetrepo.New(store)
	taxonomyRepo := taxonomyrepo.New(store)
	engagementRepo := engagementrepo.New(store)
	historyRepo := historyrepo.New(store)
	analyticsRepo := analyticsrepo.New(store)

	ctx := context.Background()
	if err := contentRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("discovery: ensure indexes: %w", err)
	}

	filterSvc := filtering.New(taxonomyRepo)
	plannerSvc := planner.New(planner.Config{
		ModerateMinSignals: defaults.Planner.ModerateMinSignals,
		ComplexMinSignals:  defaults.Planner.ComplexMinSignals,
		SimpleCap:          defaults.Planner.SimpleCap,
		ModerateCap:        defaults.Planner.ModerateCap,
		ComplexCap:         defaults.Planner.ComplexCap,
	})
	rankSvc := relevance.New(searchRepo)
	facetSvc := facetuc.New(facetRepo, defaults.Search.FacetTopK)
	suggestSvc := suggestuc.New(searchRepo, taxonomyRepo,
		defaults.Search.SuggestMinChars, defaults.Search.SuggestMaxCount)

	analyticsSvc := analyticsuc.New(analyticsRepo, cfg.log,
		defaults.Analytics.BufferSize,
		time.Duration(defaults.Analytics.ClickWindowSec)*time.Second)

	weights := domtrending.Weights{
		View:          defaults.Trending.ViewWeight,
		Like:          defaults.Trending.LikeWeight,
		Comment:       defaults.Trending.CommentWeight,
		Share:         defaults.Trending.ShareWeight,
		RecencyWeight: defaults.Trending.RecencyWeight,
		HalfLife:      time.Duration(defaults.Trending.DecayHalfLifeHrs) * time.Hour,
		VerifiedBoost: defaults.Trending.VerifiedBoost,
	}
	if cfg.weights != nil {
		weights.View = cfg.weights.View
		weights.Like = cfg.weights.Like
		weights.Comment = cfg.weights.Comment
		weights.Share = cfg.weights.Share
	}
	trendingSvc := trendinguc.New(searchRepo, contentRepo, engagementRepo, trendinguc.Config{
		Weights:        weights,
		CandidateLimit: defaults.Trending.CandidateLimit,
		RefreshEvery:   time.Duration(defaults.Trending.RefreshEverySec) * time.Second,
		MaxStale:       time.Duration(defaults.Trending.MaxStaleSec) * time.Second,
	}, cfg.log)

	feedSvc := feeduc.New(historyRepo, contentRepo, searchRepo, trendingSvc, feeduc.Config{
		HistoryWindow:       time.Duration(defaults.Feed.HistoryDays) * 24 * time.Hour,
		Eligibility:         time.Duration(defaults.Feed.EligibilityDays) * 24 * time.Hour,
		CandidateLimit:      defaults.Feed.CandidateLimit,
		FollowMultiplier:    defaults.Feed.FollowMultiplier,
		FollowedAuthorBonus: defaults.Feed.FollowedAuthorBonus,
		FallbackTimeframe:   domtrending.Timeframe7d,
	})

	searchSvc := orchestrator.New(filterSvc, plannerSvc, rankSvc, facetSvc, analyticsSvc, cfg.log)

	// The analytics dispatcher drains its buffer in the background; the
	// trending service computes live on demand, no refresher needed here.
	bgCtx, bgCancel := context.WithCancel(ctx)
	go analyticsSvc.Run(bgCtx)

	return &Client{
		store:        baseStore,
		content:      contentRepo,
		taxonomy:     taxonomyRepo,
		history:      historyRepo,
		engagement:   engagementRepo,
		searchSvc:    searchSvc,
		trendingSvc:  trendingSvc,
		feedSvc:      feedSvc,
		suggestSvc:   suggestSvc,
		analyticsSvc: analyticsSvc,
		bgCancel:     bgCancel,
	}, nil
}

// Close stops the background dispatcher, flushes buffered analytics
// records and releases the database connection.
func (c *Client) Close() {
	if c.bgCancel != nil {
		c.bgCancel()
	}
	if c.analyticsSvc != nil {
		c.analyticsSvc.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Content returns the content indexing service.
func (c *Client) Content() *ContentService {
	return &ContentService{content: c.content, taxonomy: c.taxonomy}
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return &SearchService{
		search:    c.searchSvc,
		suggest:   c.suggestSvc,
		analytics: c.analyticsSvc,
	}
}

// Feeds returns the trending and personalized feed service.
func (c *Client) Feeds() *FeedService {
	return &FeedService{trending: c.trendingSvc, feed: c.feedSvc}
}

// Activity returns the actor activity recording service.
func (c *Client) Activity() *ActivityService {
	return &ActivityService{history: c.history, engagement: c.engagement}
}
