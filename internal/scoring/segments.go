package scoring

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/stats"
)

// LocationSource finds scored locations near a point.
type LocationSource interface {
	NearbyProfiles(center models.Coordinate, radiusMeters float64, limit int) ([]models.LocationSafetyProfile, error)
}

// PredictionProvider supplies blended predictions for locations without
// usable direct scores.
type PredictionProvider interface {
	Predict(locationID string) (models.PredictionResult, error)
}

// Segment is one fixed-length slice of a route polyline.
type Segment struct {
	Start models.Coordinate
	End   models.Coordinate
}

// SegmentScorer slices a route polyline into fixed-length segments and
// scores each from nearby locations, applying a time-of-day penalty.
type SegmentScorer struct {
	locations LocationSource
	predictor PredictionProvider
	blender   *Blender
	cfg       config.EngineConfig
	logger    *zap.Logger
}

// NewSegmentScorer creates a segment scorer.
func NewSegmentScorer(locations LocationSource, predictor PredictionProvider, blender *Blender, cfg config.EngineConfig, logger *zap.Logger) *SegmentScorer {
	if logger == nil {
		logger = zap.L()
	}
	return &SegmentScorer{
		locations: locations,
		predictor: predictor,
		blender:   blender,
		cfg:       cfg,
		logger:    logger,
	}
}

// SplitSegments walks the polyline and emits a boundary every
// segmentLength meters of cumulative distance, interpolating boundary
// points along edges. The last segment may be shorter, so the segment
// count is ceil(routeLength / segmentLength).
func SplitSegments(polyline []models.Coordinate, segmentLength float64) []Segment {
	if len(polyline) < 2 || segmentLength <= 0 {
		return nil
	}

	var segments []Segment
	segStart := polyline[0]
	remaining := segmentLength

	cursor := polyline[0]
	for i := 1; i < len(polyline); i++ {
		edgeEnd := polyline[i]
		edgeLen := geo.Distance(cursor, edgeEnd)

		for edgeLen >= remaining && edgeLen > 0 {
			boundary := geo.Interpolate(cursor, edgeEnd, remaining/edgeLen)
			segments = append(segments, Segment{Start: segStart, End: boundary})

			segStart = boundary
			cursor = boundary
			edgeLen = geo.Distance(cursor, edgeEnd)
			remaining = segmentLength
		}

		remaining -= edgeLen
		cursor = edgeEnd
	}

	// Trailing partial segment. The sub-millimeter guard avoids emitting a
	// zero-length tail when the route length is an exact multiple of the
	// segment length.
	if tail := segmentLength - remaining; tail > 1e-3 {
		segments = append(segments, Segment{Start: segStart, End: polyline[len(polyline)-1]})
	}

	return segments
}

// ScoreRoute produces the per-segment scores and route-level safety
// analysis for a plan at the given hour of day.
func (s *SegmentScorer) ScoreRoute(plan *models.RoutePlan, hour int) (*models.SafetyAnalysis, error) {
	segments := SplitSegments(plan.Polyline, s.cfg.SegmentLengthMeters)
	if len(segments) == 0 {
		return nil, eris.New("segment scorer: route polyline too short")
	}

	multiplier := s.penaltyMultiplier(hour)

	var (
		segScores   []models.SegmentScore
		rawScores   []float64
		confidences []float64
	)

	for i, seg := range segments {
		mid := geo.Midpoint(seg.Start, seg.End)

		nearby, err := s.locations.NearbyProfiles(mid, s.cfg.ScoringRadiusMeters, s.cfg.MaxNearbyLocations)
		if err != nil {
			return nil, eris.Wrapf(err, "segment scorer: nearby query for segment %d", i)
		}

		var (
			locScores    []float64
			demographics = map[string]bool{}
		)
		for _, profile := range nearby {
			score, confidence, err := s.locationScore(profile)
			if err != nil {
				return nil, err
			}
			locScores = append(locScores, score)
			confidences = append(confidences, confidence)

			for _, row := range profile.Scores {
				if row.DemographicType != models.DemographicOverall {
					demographics[row.DemographicType] = true
				}
			}
		}

		var raw float64
		switch {
		case len(locScores) > 0:
			raw = stats.Mean(locScores)
		case len(rawScores) > 0:
			// No data near this segment: inherit the route's running
			// average so one empty segment cannot zero out the route.
			raw = stats.Mean(rawScores)
		default:
			raw = s.cfg.NeutralScoreBaseline
		}
		rawScores = append(rawScores, raw)

		penalty := 5.0 - raw
		if penalty < 0 {
			penalty = 0
		}
		adjusted := 5.0 - penalty*multiplier
		if adjusted < 0 {
			adjusted = 0
		}

		segScores = append(segScores, models.SegmentScore{
			SegmentIndex:             i,
			StartLocation:            seg.Start,
			EndLocation:              seg.End,
			Score:                    adjusted,
			NearbyLocationCount:      len(nearby),
			ContributingDemographics: sortedKeys(demographics),
		})
	}

	overall := 0.0
	{
		vals := make([]float64, len(segScores))
		for i, sc := range segScores {
			vals[i] = sc.Score
		}
		overall = stats.Mean(vals)
	}

	confidence := s.cfg.MinConfidenceBaseline
	if len(confidences) > 0 {
		confidence = stats.Mean(confidences)
	}

	return &models.SafetyAnalysis{
		OverallScore: overall,
		Segments:     segScores,
		Confidence:   confidence,
	}, nil
}

func (s *SegmentScorer) locationScore(profile models.LocationSafetyProfile) (float64, float64, error) {
	if overall, ok := profile.OverallScore(); ok && overall.ReviewCount > 0 {
		return overall.AvgOverallScore, s.blender.Confidence(overall.ReviewCount), nil
	}

	pred, err := s.predictor.Predict(profile.LocationID)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "segment scorer: predict for %s", profile.LocationID)
	}
	return pred.PredictedSafetyScore, pred.Confidence, nil
}

// penaltyMultiplier scales the safety penalty by time of day. Applied to
// the penalty (5 - score), not the score itself.
func (s *SegmentScorer) penaltyMultiplier(hour int) float64 {
	switch {
	case hour >= s.cfg.NightStartHour:
		return s.cfg.NightPenaltyMultiplier
	case hour >= s.cfg.EveningStartHour:
		return s.cfg.EveningPenaltyMultiplier
	default:
		return 1.0
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
