package scoring

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/stats"
)

// ReviewSource supplies raw reviews for a location.
type ReviewSource interface {
	ForLocation(locationID string) ([]models.Review, error)
}

// StatsSource supplies area statistics used as a fallback signal.
type StatsSource interface {
	GetAreaStats(locationID string) (*models.AreaStats, error)
}

// ScoreSink persists aggregated score rows.
type ScoreSink interface {
	ReplaceScores(locationID string, scores []models.SafetyScore) error
}

// Aggregator turns raw reviews and area statistics into per-demographic
// SafetyScore rows.
type Aggregator struct {
	reviews ReviewSource
	areas   StatsSource
	cfg     config.EngineConfig
}

// NewAggregator creates a signal aggregator.
func NewAggregator(reviews ReviewSource, areas StatsSource, cfg config.EngineConfig) *Aggregator {
	return &Aggregator{reviews: reviews, areas: areas, cfg: cfg}
}

// Aggregate computes one SafetyScore row per demographic slice present in
// the reviews, always including the overall slice when at least one review
// exists. Slices under the pattern-detection minimum are retained and
// flagged low-confidence rather than dropped.
func (a *Aggregator) Aggregate(locationID string, reviews []models.Review) []models.SafetyScore {
	if len(reviews) == 0 {
		return nil
	}

	type sliceKey struct {
		demographicType  string
		demographicValue string
	}

	ratings := make(map[sliceKey][]float64)
	for _, rv := range reviews {
		overall := sliceKey{demographicType: models.DemographicOverall}
		ratings[overall] = append(ratings[overall], rv.SafetyRating)

		for _, tag := range rv.DemographicTags {
			key := sliceKey{demographicType: tag.Type, demographicValue: tag.Value}
			ratings[key] = append(ratings[key], rv.SafetyRating)
		}
	}

	scores := make([]models.SafetyScore, 0, len(ratings))
	for key, vals := range ratings {
		scores = append(scores, models.SafetyScore{
			LocationID:       locationID,
			DemographicType:  key.demographicType,
			DemographicValue: key.demographicValue,
			AvgOverallScore:  stats.Mean(vals),
			ReviewCount:      len(vals),
			LowConfidence:    len(vals) < a.cfg.MinReviewsForPatterns,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].DemographicType != scores[j].DemographicType {
			// Overall row first, then lexical.
			if scores[i].DemographicType == models.DemographicOverall {
				return true
			}
			if scores[j].DemographicType == models.DemographicOverall {
				return false
			}
			return scores[i].DemographicType < scores[j].DemographicType
		}
		return scores[i].DemographicValue < scores[j].DemographicValue
	})

	return scores
}

// Refresh recomputes and persists the score rows for a location.
func (a *Aggregator) Refresh(locationID string, sink ScoreSink) ([]models.SafetyScore, error) {
	reviews, err := a.reviews.ForLocation(locationID)
	if err != nil {
		return nil, eris.Wrap(err, "aggregator: load reviews")
	}

	scores := a.Aggregate(locationID, reviews)
	if err := sink.ReplaceScores(locationID, scores); err != nil {
		return nil, eris.Wrap(err, "aggregator: persist scores")
	}
	return scores, nil
}

// RequiredOverall returns the overall slice for a location. With zero
// reviews it falls back to the neutral baseline at minimum confidence when
// area statistics exist; ErrInsufficientData is returned only when neither
// reviews nor area statistics are available.
func (a *Aggregator) RequiredOverall(locationID string) (models.SafetyScore, error) {
	reviews, err := a.reviews.ForLocation(locationID)
	if err != nil {
		return models.SafetyScore{}, eris.Wrap(err, "aggregator: load reviews")
	}

	if len(reviews) > 0 {
		for _, s := range a.Aggregate(locationID, reviews) {
			if s.DemographicType == models.DemographicOverall {
				return s, nil
			}
		}
	}

	area, err := a.areas.GetAreaStats(locationID)
	if err != nil {
		return models.SafetyScore{}, eris.Wrap(err, "aggregator: load area stats")
	}
	if area == nil {
		return models.SafetyScore{}, eris.Wrapf(models.ErrInsufficientData,
			"no reviews or area statistics for location %s", locationID)
	}

	return models.SafetyScore{
		LocationID:      locationID,
		DemographicType: models.DemographicOverall,
		AvgOverallScore: a.cfg.NeutralScoreBaseline,
		ReviewCount:     0,
		LowConfidence:   true,
	}, nil
}
