package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/api"
	"github.com/saferoute/saferoute-backend-go/internal/auth"
	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/database"
	"github.com/saferoute/saferoute-backend-go/internal/handler"
	"github.com/saferoute/saferoute-backend-go/internal/navigation"
	"github.com/saferoute/saferoute-backend-go/internal/repository"
	"github.com/saferoute/saferoute-backend-go/internal/routing"
	"github.com/saferoute/saferoute-backend-go/internal/scoring"
	"github.com/saferoute/saferoute-backend-go/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	db := database.GetDB()

	// Repositories
	locationRepo := repository.NewLocationRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	cacheRepo := repository.NewRouteCacheRepository(db)

	// Scoring pipeline
	blender := scoring.NewBlender(cfg.Engine)
	predictor := scoring.NewPredictor(reviewRepo, locationRepo, nil, blender)
	aggregator := scoring.NewAggregator(reviewRepo, locationRepo, cfg.Engine)
	segmentScorer := scoring.NewSegmentScorer(locationRepo, predictor, blender, cfg.Engine, logger)
	selector := scoring.NewSelector(segmentScorer, cfg.Engine, logger)
	analyzer := scoring.NewDangerZoneAnalyzer(cfg.Engine)

	// Routing oracle with a shared cross-session cache
	oracle := routing.NewHTTPOracle(cfg.OracleURL, cfg.OracleAPIKey,
		cfg.Engine.RouteRequestTimeout, cfg.Engine.MaxAlternativeRoutes)
	cachedOracle := routing.NewCachedOracle(oracle, cacheRepo, cfg.Engine.RouteCacheTTL)
	planStore := routing.NewPlanStore(cfg.Engine.RouteCacheTTL)

	// Navigation
	rerouter := navigation.NewRerouter(cachedOracle, selector, sessionRepo, cfg.Engine, logger)
	alerts := navigation.NewAlertManager(reviewRepo, ledgerRepo, rerouter, cfg.Engine, logger)
	manager := navigation.NewManager(sessionRepo, rerouter, alerts, cfg.Engine, logger)

	// Services
	routeService := service.NewRouteService(cachedOracle, selector, analyzer, locationRepo, planStore, cfg.Engine, logger)
	predictionService := service.NewPredictionService(locationRepo, predictor, voteRepo)
	voteService := service.NewVoteService(voteRepo, locationRepo)
	reviewService := service.NewReviewService(reviewRepo, locationRepo, aggregator)
	navigationService := service.NewNavigationService(manager, planStore, sessionRepo, ledgerRepo)

	tokens := auth.NewService(cfg.JWTSecret)

	router := api.SetupRouter(tokens, api.Handlers{
		Auth:       handler.NewAuthHandler(tokens),
		Route:      handler.NewRouteHandler(routeService),
		Prediction: handler.NewPredictionHandler(predictionService),
		Vote:       handler.NewVoteHandler(voteService),
		Review:     handler.NewReviewHandler(reviewService),
		Navigation: handler.NewNavigationHandler(navigationService),
	}, logger)

	// Periodic route cache cleanup
	go cachePurger(context.Background(), cacheRepo, cfg.Engine.RouteCacheTTL, logger)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// cachePurger removes expired route cache rows on the TTL interval.
func cachePurger(ctx context.Context, cache *repository.RouteCacheRepository, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := cache.PurgeExpired(time.Now())
			if err != nil {
				logger.Warn("route cache purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("route cache purged", zap.Int64("removed", n))
			}
		}
	}
}
