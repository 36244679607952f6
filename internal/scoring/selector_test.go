package scoring

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// scoreByID returns a canned analysis per plan ID.
type scoreByID struct {
	scores      map[string]float64
	confidences map[string]float64
}

func (s *scoreByID) ScoreRoute(plan *models.RoutePlan, hour int) (*models.SafetyAnalysis, error) {
	confidence := 0.8
	if c, ok := s.confidences[plan.ID]; ok {
		confidence = c
	}
	return &models.SafetyAnalysis{
		OverallScore: s.scores[plan.ID],
		Confidence:   confidence,
	}, nil
}

func plan(id string, durationSeconds float64) models.RoutePlan {
	return models.RoutePlan{ID: id, DurationSeconds: durationSeconds}
}

func TestClassifyBoundaries(t *testing.T) {
	sel := NewSelector(&scoreByID{}, config.DefaultEngineConfig(), nil)

	assert.Equal(t, models.RouteSafe, sel.Classify(4.0))
	assert.Equal(t, models.RouteSafe, sel.Classify(5.0))
	assert.Equal(t, models.RouteMixed, sel.Classify(3.999))
	assert.Equal(t, models.RouteMixed, sel.Classify(3.0))
	assert.Equal(t, models.RouteUnsafe, sel.Classify(2.999))
	assert.Equal(t, models.RouteUnsafe, sel.Classify(0))
}

func TestRankOrdersBySafetyThenDuration(t *testing.T) {
	scorer := &scoreByID{scores: map[string]float64{
		"a": 3.2, "b": 4.5, "c": 4.5,
	}}
	sel := NewSelector(scorer, config.DefaultEngineConfig(), nil)

	ranked, err := sel.Rank([]models.RoutePlan{
		plan("a", 600),
		plan("b", 800),
		plan("c", 700),
	}, 12)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// Equal scores break ties on shorter duration.
	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "a", ranked[2].ID)

	for i, p := range ranked {
		assert.Equal(t, i, p.AlternativeRank)
		require.NotNil(t, p.Safety)
	}
	assert.Equal(t, models.RouteSafe, ranked[0].Safety.Classification)
	assert.Equal(t, models.RouteMixed, ranked[2].Safety.Classification)
}

func TestRankDiscardsDetoursOverCap(t *testing.T) {
	scorer := &scoreByID{scores: map[string]float64{
		"fast": 3.0, "ok": 4.8, "slow": 5.0,
	}}
	sel := NewSelector(scorer, config.DefaultEngineConfig(), nil)

	ranked, err := sel.Rank([]models.RoutePlan{
		plan("fast", 600),
		plan("ok", 900),    // exactly at the 1.5x cap, kept
		plan("slow", 1000), // over the cap, dropped despite best score
	}, 12)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "ok", ranked[0].ID)
	assert.Equal(t, "fast", ranked[1].ID)
}

func TestRankTruncatesCandidates(t *testing.T) {
	scorer := &scoreByID{scores: map[string]float64{}}
	sel := NewSelector(scorer, config.DefaultEngineConfig(), nil)

	var candidates []models.RoutePlan
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		candidates = append(candidates, plan(id, 600))
	}

	ranked, err := sel.Rank(candidates, 12)
	require.NoError(t, err)
	assert.Len(t, ranked, 5)
}

func TestRankFlagsLowConfidence(t *testing.T) {
	scorer := &scoreByID{
		scores:      map[string]float64{"a": 4.0, "b": 4.0},
		confidences: map[string]float64{"a": 0.5, "b": 0.6},
	}
	sel := NewSelector(scorer, config.DefaultEngineConfig(), nil)

	ranked, err := sel.Rank([]models.RoutePlan{plan("a", 600), plan("b", 700)}, 12)
	require.NoError(t, err)

	byID := map[string]*models.SafetyAnalysis{}
	for _, p := range ranked {
		byID[p.ID] = p.Safety
	}
	assert.True(t, byID["a"].LowConfidence)
	assert.False(t, byID["b"].LowConfidence)
}

func TestRankNoCandidates(t *testing.T) {
	sel := NewSelector(&scoreByID{}, config.DefaultEngineConfig(), nil)

	_, err := sel.Rank(nil, 12)
	require.Error(t, err)
	assert.True(t, eris.Is(err, models.ErrRouteUnavailable))
}

func TestRankAllOverCap(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	sel := NewSelector(&scoreByID{}, cfg, nil)

	// Only one candidate: it is the fastest, so it always survives.
	ranked, err := sel.Rank([]models.RoutePlan{plan("only", 5000)}, 12)
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
}
