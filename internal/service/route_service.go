package service

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/routing"
	"github.com/saferoute/saferoute-backend-go/internal/scoring"
)

// RouteService handles business logic for safety-ranked route requests and
// danger zone queries.
type RouteService struct {
	oracle    routing.Oracle
	selector  *scoring.Selector
	analyzer  *scoring.DangerZoneAnalyzer
	locations scoring.LocationSource
	plans     *routing.PlanStore
	cfg       config.EngineConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewRouteService creates a new route service
func NewRouteService(oracle routing.Oracle, selector *scoring.Selector, analyzer *scoring.DangerZoneAnalyzer, locations scoring.LocationSource, plans *routing.PlanStore, cfg config.EngineConfig, logger *zap.Logger) *RouteService {
	if logger == nil {
		logger = zap.L()
	}
	return &RouteService{
		oracle:    oracle,
		selector:  selector,
		analyzer:  analyzer,
		locations: locations,
		plans:     plans,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SafestRoutes requests candidate routes steering around high-severity
// danger zones, scores them per segment, and returns them ranked by safety
// under the detour cap. Ranked plans are registered so navigation can start
// on one by ID.
func (s *RouteService) SafestRoutes(ctx context.Context, origin, destination models.Coordinate) ([]models.RoutePlan, error) {
	avoid, err := s.avoidPolygons(origin, destination)
	if err != nil {
		// Zone lookup failures degrade to unsteered routing rather than
		// failing the request.
		s.logger.Warn("danger zone lookup failed, routing without avoidance", zap.Error(err))
		avoid = nil
	}

	candidates, err := s.oracle.Routes(ctx, origin, destination, avoid)
	if err != nil {
		return nil, eris.Wrap(err, "route service: fetch candidates")
	}

	ranked, err := s.selector.Rank(candidates, s.now().Hour())
	if err != nil {
		return nil, eris.Wrap(err, "route service: rank candidates")
	}

	s.plans.Put(ranked)
	return ranked, nil
}

// DangerZones returns the danger zones around a center point, ordered by
// severity. radiusMeters falls back to the scoring radius when zero.
func (s *RouteService) DangerZones(center models.Coordinate, radiusMeters float64) ([]models.DangerZone, error) {
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.ScoringRadiusMeters
	}

	profiles, err := s.locations.NearbyProfiles(center, radiusMeters, 0)
	if err != nil {
		return nil, eris.Wrap(err, "route service: nearby profiles")
	}
	return s.analyzer.Zones(profiles), nil
}

// avoidPolygons collects high-severity danger zone polygons in the corridor
// between origin and destination. Medium and low zones inform scoring but
// do not steer the oracle.
func (s *RouteService) avoidPolygons(origin, destination models.Coordinate) ([]models.Polygon, error) {
	center := geo.Midpoint(origin, destination)
	radius := geo.Distance(origin, destination)/2 + s.cfg.ScoringRadiusMeters

	zones, err := s.DangerZones(center, radius)
	if err != nil {
		return nil, err
	}

	var avoid []models.Polygon
	for _, z := range zones {
		if z.Severity == models.ZoneSeverityHigh {
			avoid = append(avoid, z.Polygon)
		}
	}
	return avoid, nil
}
