package navigation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/routing"
)

// RouteRanker ranks oracle candidates by safety.
type RouteRanker interface {
	Rank(candidates []models.RoutePlan, hour int) ([]models.RoutePlan, error)
}

// RouteBinder persists the route plans a session has used.
type RouteBinder interface {
	BindRoute(sessionID, routeID string, at time.Time) error
	SetState(sessionID string, state models.SessionState) error
}

// Rerouter watches for off-route positions and requests replacement
// routes. One reroute may be outstanding per session; a weighted semaphore
// caps concurrent oracle requests across all sessions.
type Rerouter struct {
	oracle   routing.Oracle
	selector RouteRanker
	binder   RouteBinder
	sem      *semaphore.Weighted
	cfg      config.EngineConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewRerouter creates a rerouter.
func NewRerouter(oracle routing.Oracle, selector RouteRanker, binder RouteBinder, cfg config.EngineConfig, logger *zap.Logger) *Rerouter {
	if logger == nil {
		logger = zap.L()
	}
	return &Rerouter{
		oracle:   oracle,
		selector: selector,
		binder:   binder,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentRouteRequests),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Check measures the distance from pos to the nearest route vertex and
// triggers a reroute when it exceeds the recalculation threshold.
func (r *Rerouter) Check(ctx context.Context, s *Session, pos models.Coordinate) {
	route := s.Route()
	_, _, dist := geo.NearestVertex(pos, route.Polyline)
	if dist <= r.cfg.RouteRecalcThresholdMeters {
		return
	}

	r.logger.Info("position off route",
		zap.String("session_id", s.ID()),
		zap.Float64("distance_m", dist),
	)
	r.Trigger(ctx, s, pos)
}

// Trigger starts a reroute from pos to the session destination regardless
// of the deviation distance. Used both by Check and by the safety alert
// path, which bypasses the threshold. No-op when the session is not
// Active or already has a reroute outstanding.
func (r *Rerouter) Trigger(ctx context.Context, s *Session, pos models.Coordinate) {
	generation, ok := s.BeginReroute()
	if !ok {
		return
	}

	// Heavy work off the update-delivery path. The goroutine outlives its
	// caller, so it must not inherit request-scoped cancellation.
	go r.run(context.WithoutCancel(ctx), s, pos, generation)
}

func (r *Rerouter) run(ctx context.Context, s *Session, pos models.Coordinate, generation int) {
	if !r.sem.TryAcquire(1) {
		r.logger.Warn("route request cap reached, continuing on current route",
			zap.String("session_id", s.ID()))
		s.FailReroute(generation)
		return
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RouteRequestTimeout)
	defer cancel()

	candidates, err := r.oracle.Routes(ctx, pos, s.Destination(), nil)
	if err != nil {
		r.logger.Warn("reroute request failed, continuing on current route",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
		s.FailReroute(generation)
		return
	}

	ranked, err := r.selector.Rank(candidates, r.now().Hour())
	if err != nil {
		r.logger.Warn("reroute ranking failed, continuing on current route",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
		s.FailReroute(generation)
		return
	}

	best := ranked[0]
	if !s.CompleteReroute(generation, &best) {
		// Stale response: the route changed again or the session ended.
		r.logger.Debug("discarding stale reroute response",
			zap.String("session_id", s.ID()),
			zap.String("route_id", best.ID),
		)
		return
	}

	if err := r.binder.BindRoute(s.ID(), best.ID, r.now().UTC()); err != nil {
		r.logger.Error("failed to persist reroute",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
	}

	r.logger.Info("reroute applied",
		zap.String("session_id", s.ID()),
		zap.String("route_id", best.ID),
		zap.String("classification", best.Safety.Classification),
	)
}
