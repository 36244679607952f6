package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/stats"
)

// MLSource optionally supplies a similar-user inferred score for a
// location. May be nil when no inference backend is configured.
type MLSource interface {
	InferScore(locationID string) (avg float64, dataPoints int, err error)
}

// Predictor assembles the available signals for a location and runs them
// through the blender. It is the path used for locations without enough
// direct reviews.
type Predictor struct {
	reviews ReviewSource
	areas   StatsSource
	ml      MLSource // optional
	blender *Blender
}

// NewPredictor creates a predictor. ml may be nil.
func NewPredictor(reviews ReviewSource, areas StatsSource, ml MLSource, blender *Blender) *Predictor {
	return &Predictor{reviews: reviews, areas: areas, ml: ml, blender: blender}
}

// Predict builds a bounded-confidence safety prediction for a location.
// Data sparsity is never an error here; the blender falls back to the
// neutral baseline.
func (p *Predictor) Predict(locationID string) (models.PredictionResult, error) {
	var sig Signals

	reviews, err := p.reviews.ForLocation(locationID)
	if err != nil {
		return models.PredictionResult{}, eris.Wrap(err, "predictor: load reviews")
	}
	if len(reviews) > 0 {
		ratings := make([]float64, 0, len(reviews))
		for _, rv := range reviews {
			ratings = append(ratings, rv.SafetyRating)
		}
		sig.CommunityAvg = stats.Mean(ratings)
		sig.CommunityCount = len(ratings)
	}

	if p.ml != nil {
		avg, n, err := p.ml.InferScore(locationID)
		if err == nil && n > 0 {
			sig.MLAvg = avg
			sig.MLCount = n
		}
	}

	area, err := p.areas.GetAreaStats(locationID)
	if err != nil {
		return models.PredictionResult{}, eris.Wrap(err, "predictor: load area stats")
	}
	if area != nil && area.DataPointCount > 0 {
		sig.StatAvg = area.SafetyScale()
		sig.StatCount = area.DataPointCount
	}

	return p.blender.Predict(sig), nil
}
