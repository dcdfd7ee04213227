package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/config"
	"github.com/lumenpress/discovery/internal/db"
	dbRedis "github.com/lumenpress/discovery/internal/db/redis"
	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
	logpkg "github.com/lumenpress/discovery/internal/logger"
	"github.com/lumenpress/discovery/internal/metrics"
	analyticsrepo "github.com/lumenpress/discovery/internal/repository/analytics"
	contentrepo "github.com/lumenpress/discovery/internal/repository/content"
	engagementrepo "github.com/lumenpress/discovery/internal/repository/engagement"
	facetrepo "github.com/lumenpress/discovery/internal/repository/facet"
	historyrepo "github.com/lumenpress/discovery/internal/repository/history"
	searchrepo "github.com/lumenpress/discovery/internal/repository/search"
	taxonomyrepo "github.com/lumenpress/discovery/internal/repository/taxonomy"
	chiTransport "github.com/lumenpress/discovery/internal/transport/chi"
	analyticsuc "github.com/lumenpress/discovery/internal/usecase/analytics"
	facetuc "github.com/lumenpress/discovery/internal/usecase/facet"
	feeduc "github.com/lumenpress/discovery/internal/usecase/feed"
	"github.com/lumenpress/discovery/internal/usecase/filtering"
	healthuc "github.com/lumenpress/discovery/internal/usecase/health"
	"github.com/lumenpress/discovery/internal/usecase/orchestrator"
	"github.com/lumenpress/discovery/internal/usecase/planner"
	"github.com/lumenpress/discovery/internal/usecase/relevance"
	suggestuc "github.com/lumenpress/discovery/internal/usecase/suggest"
	trendinguc "github.com/lumenpress/discovery/internal/usecase/trending"
	"github.com/lumenpress/discovery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting discovery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// rueidis speaks to both Redis and Valkey; the driver setting only
	// gates which addresses and auth we expect.
	switch cfg.Database.Driver {
	case "redis", "valkey":
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	baseStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer baseStore.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := baseStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Every repository call runs under a bounded per-call budget.
	store := db.WithCallTimeout(baseStore, time.Duration(cfg.Database.CallTimeoutMs)*time.Millisecond)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Create repositories (domain-native, no adapters)
	contentRepo := contentrepo.New(store)
	searchRepo := searchrepo.New(store)
	facetRepo := facetrepo.New(store)
	taxonomyRepo := taxonomyrepo.New(store)
	engagementRepo := engagementrepo.New(store)
	historyRepo := historyrepo.New(store)
	analyticsRepo := analyticsrepo.New(store)

	if err := contentRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure content indexes", zap.Error(err))
	}

	// Create use case services
	filterSvc := filtering.New(taxonomyRepo)
	plannerSvc := planner.New(planner.Config{
		ModerateMinSignals: cfg.Planner.ModerateMinSignals,
		ComplexMinSignals:  cfg.Planner.ComplexMinSignals,
		SimpleCap:          cfg.Planner.SimpleCap,
		ModerateCap:        cfg.Planner.ModerateCap,
		ComplexCap:         cfg.Planner.ComplexCap,
	})
	rankSvc := relevance.New(searchRepo)
	facetSvc := facetuc.New(facetRepo, cfg.Search.FacetTopK)
	suggestSvc := suggestuc.New(searchRepo, taxonomyRepo, cfg.Search.SuggestMinChars, cfg.Search.SuggestMaxCount)

	analyticsSvc := analyticsuc.New(analyticsRepo, logger,
		cfg.Analytics.BufferSize, time.Duration(cfg.Analytics.ClickWindowSec)*time.Second)

	weights := domtrending.Weights{
		View:          cfg.Trending.ViewWeight,
		Like:          cfg.Trending.LikeWeight,
		Comment:       cfg.Trending.CommentWeight,
		Share:         cfg.Trending.ShareWeight,
		RecencyWeight: cfg.Trending.RecencyWeight,
		HalfLife:      time.Duration(cfg.Trending.DecayHalfLifeHrs) * time.Hour,
		VerifiedBoost: cfg.Trending.VerifiedBoost,
	}
	trendingSvc := trendinguc.New(searchRepo, contentRepo, engagementRepo, trendinguc.Config{
		Weights:        weights,
		CandidateLimit: cfg.Trending.CandidateLimit,
		RefreshEvery:   time.Duration(cfg.Trending.RefreshEverySec) * time.Second,
		MaxStale:       time.Duration(cfg.Trending.MaxStaleSec) * time.Second,
	}, logger)

	feedSvc := feeduc.New(historyRepo, contentRepo, searchRepo, trendingSvc, feeduc.Config{
		HistoryWindow:       time.Duration(cfg.Feed.HistoryDays) * 24 * time.Hour,
		Eligibility:         time.Duration(cfg.Feed.EligibilityDays) * 24 * time.Hour,
		CandidateLimit:      cfg.Feed.CandidateLimit,
		FollowMultiplier:    cfg.Feed.FollowMultiplier,
		FollowedAuthorBonus: cfg.Feed.FollowedAuthorBonus,
		FallbackTimeframe:   domtrending.Timeframe7d,
	})

	searchSvc := orchestrator.New(filterSvc, plannerSvc, rankSvc, facetSvc, analyticsSvc, logger)

	// Health service
	maxStale := time.Duration(cfg.Trending.MaxStaleSec) * time.Second
	healthSvc := healthuc.New(store, trendingSvc, maxStale)

	// Background workers: trending refresher and analytics dispatcher.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	if err := trendingSvc.Refresh(bgCtx); err != nil {
		logger.Warn("Initial trending refresh failed, snapshots start cold", zap.Error(err))
	}
	go trendingSvc.Run(bgCtx)
	go analyticsSvc.Run(bgCtx)

	// Create chi server
	server := chiTransport.NewServer(
		searchSvc, trendingSvc, feedSvc, suggestSvc, analyticsSvc, healthSvc,
		logger, chiTransport.Limits{
			DefaultPageSize: cfg.Search.DefaultPageSize,
			MaxPageSize:     cfg.Search.MaxPageSize,
		})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.ActorMiddleware())
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop workers, then flush buffered analytics records.
	bgCancel()
	analyticsSvc.Close()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "INTERNAL_ERROR",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
