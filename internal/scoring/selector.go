package scoring

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// RouteScorer scores a single route plan.
type RouteScorer interface {
	ScoreRoute(plan *models.RoutePlan, hour int) (*models.SafetyAnalysis, error)
}

// Selector ranks alternative route plans by safety under a detour cap.
type Selector struct {
	scorer RouteScorer
	cfg    config.EngineConfig
	logger *zap.Logger
}

// NewSelector creates a route selector.
func NewSelector(scorer RouteScorer, cfg config.EngineConfig, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.L()
	}
	return &Selector{scorer: scorer, cfg: cfg, logger: logger}
}

// Classify maps a route score onto safe/mixed/unsafe. Boundaries are
// inclusive: exactly 4.0 is safe, exactly 3.0 is mixed.
func (s *Selector) Classify(score float64) string {
	switch {
	case score >= s.cfg.SafeRouteThreshold:
		return models.RouteSafe
	case score >= s.cfg.MixedRouteThreshold:
		return models.RouteMixed
	default:
		return models.RouteUnsafe
	}
}

// Rank scores the candidate plans, discards those exceeding the detour
// cap relative to the fastest candidate, and orders the survivors by
// safety score descending with shorter duration breaking ties. Results
// below the recommendation confidence floor are flagged low-confidence
// but still returned.
func (s *Selector) Rank(candidates []models.RoutePlan, hour int) ([]models.RoutePlan, error) {
	if len(candidates) == 0 {
		return nil, eris.Wrap(models.ErrRouteUnavailable, "selector: no candidates")
	}

	if len(candidates) > s.cfg.MaxAlternativeRoutes {
		candidates = candidates[:s.cfg.MaxAlternativeRoutes]
	}

	fastest := candidates[0].DurationSeconds
	for _, c := range candidates[1:] {
		if c.DurationSeconds < fastest {
			fastest = c.DurationSeconds
		}
	}
	maxDuration := fastest * s.cfg.MaxDetourMultiplier

	var survivors []models.RoutePlan
	for _, c := range candidates {
		if c.DurationSeconds > maxDuration {
			s.logger.Debug("discarding detour candidate",
				zap.String("route_id", c.ID),
				zap.Float64("duration_s", c.DurationSeconds),
				zap.Float64("max_duration_s", maxDuration),
			)
			continue
		}

		analysis, err := s.scorer.ScoreRoute(&c, hour)
		if err != nil {
			return nil, eris.Wrapf(err, "selector: score route %s", c.ID)
		}
		analysis.Classification = s.Classify(analysis.OverallScore)
		analysis.LowConfidence = analysis.Confidence < s.cfg.MinConfidenceForRecommendations
		c.Safety = analysis
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		return nil, eris.Wrap(models.ErrRouteUnavailable, "selector: all candidates exceeded detour cap")
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		si, sj := survivors[i].Safety.OverallScore, survivors[j].Safety.OverallScore
		if si != sj {
			return si > sj
		}
		return survivors[i].DurationSeconds < survivors[j].DurationSeconds
	})

	for i := range survivors {
		survivors[i].AlternativeRank = i
	}

	return survivors, nil
}
