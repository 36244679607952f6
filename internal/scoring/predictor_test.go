package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

type fakeML struct {
	avg float64
	n   int
	err error
}

func (f *fakeML) InferScore(string) (float64, int, error) {
	return f.avg, f.n, f.err
}

func TestPredictUsesCommunityReviewsFirst(t *testing.T) {
	reviews := &fakeReviews{byLocation: map[string][]models.Review{
		"loc-1": {review(4), review(5)},
	}}
	areas := &fakeAreas{byLocation: map[string]*models.AreaStats{
		"loc-1": {LocationID: "loc-1", CrimeIndex: 90, DataPointCount: 100},
	}}
	p := NewPredictor(reviews, areas, &fakeML{avg: 1.0, n: 9}, NewBlender(config.DefaultEngineConfig()))

	got, err := p.Predict("loc-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCommunityReviews, got.PrimarySource)
	assert.Equal(t, 2, got.BasedOn.ReviewCount)
}

func TestPredictFallsBackToAreaStats(t *testing.T) {
	areas := &fakeAreas{byLocation: map[string]*models.AreaStats{
		// Crime index 20 maps to 4.0 on the safety scale.
		"loc-1": {LocationID: "loc-1", CrimeIndex: 20, DataPointCount: 10},
	}}
	p := NewPredictor(&fakeReviews{}, areas, nil, NewBlender(config.DefaultEngineConfig()))

	got, err := p.Predict("loc-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceStatistics, got.PrimarySource)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.InDelta(t, 4.0*0.9+3.5*0.1, got.PredictedSafetyScore, 1e-9)
}

func TestPredictNoSignals(t *testing.T) {
	p := NewPredictor(&fakeReviews{}, &fakeAreas{}, nil, NewBlender(config.DefaultEngineConfig()))

	got, err := p.Predict("loc-unknown")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.PredictedSafetyScore, 1e-9)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
}

func TestPredictIgnoresFailedMLSource(t *testing.T) {
	p := NewPredictor(&fakeReviews{}, &fakeAreas{},
		&fakeML{err: assert.AnError}, NewBlender(config.DefaultEngineConfig()))

	got, err := p.Predict("loc-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceStatistics, got.PrimarySource)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
}
