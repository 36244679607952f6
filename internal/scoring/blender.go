package scoring

import (
	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/stats"
)

// Signals are the optional inputs to a blended prediction, in priority
// order: community reviews, similar-user inference, area statistics. A
// signal with a zero count is treated as absent.
type Signals struct {
	CommunityAvg   float64
	CommunityCount int

	MLAvg   float64
	MLCount int

	StatAvg   float64
	StatCount int
}

// Blender combines sparse signals into one bounded-confidence prediction.
type Blender struct {
	cfg config.EngineConfig
}

// NewBlender creates a prediction blender.
func NewBlender(cfg config.EngineConfig) *Blender {
	return &Blender{cfg: cfg}
}

// Confidence maps a data point count onto [MinConfidenceBaseline,
// LocationConfidenceMax] via count / divisor.
func (b *Blender) Confidence(dataPoints int) float64 {
	c := float64(dataPoints) / b.cfg.ConfidenceDataPointsDivisor
	return stats.Clamp(c, b.cfg.MinConfidenceBaseline, b.cfg.LocationConfidenceMax)
}

// Blend pulls an observed average toward the neutral baseline as
// confidence drops: predicted = observed*c + baseline*(1-c). The result
// always lies between the baseline and the observed value and is monotonic
// in confidence.
func (b *Blender) Blend(observed, confidence float64) float64 {
	return observed*confidence + b.cfg.NeutralScoreBaseline*(1-confidence)
}

// Predict blends the highest-priority available signal into a prediction.
// With no signals at all it returns the neutral baseline at the fallback
// confidence.
func (b *Blender) Predict(sig Signals) models.PredictionResult {
	basis := models.PredictionBasis{
		ReviewCount:      sig.CommunityCount,
		SimilarUserCount: sig.MLCount,
		StatDataPoints:   sig.StatCount,
	}

	var observed float64
	var count int
	var source string

	switch {
	case sig.CommunityCount > 0:
		observed, count, source = sig.CommunityAvg, sig.CommunityCount, models.SourceCommunityReviews
	case sig.MLCount > 0:
		observed, count, source = sig.MLAvg, sig.MLCount, models.SourceMLPrediction
	case sig.StatCount > 0:
		observed, count, source = sig.StatAvg, sig.StatCount, models.SourceStatistics
	default:
		return models.PredictionResult{
			PredictedSafetyScore: b.cfg.NeutralScoreBaseline,
			Confidence:           b.cfg.FallbackConfidence,
			PrimarySource:        models.SourceStatistics,
			BasedOn:              basis,
		}
	}

	confidence := b.Confidence(count)
	return models.PredictionResult{
		PredictedSafetyScore: b.Blend(observed, confidence),
		Confidence:           confidence,
		PrimarySource:        source,
		BasedOn:              basis,
	}
}
