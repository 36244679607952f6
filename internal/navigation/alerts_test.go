package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

type fakeFeed struct {
	reviews []models.Review
}

func (f *fakeFeed) LowRatedSince(since time.Time, maxRating float64) ([]models.Review, error) {
	var out []models.Review
	for _, rv := range f.reviews {
		if rv.SafetyRating < maxRating && rv.CreatedAt.After(since) {
			out = append(out, rv)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]map[string]models.SafetyAlertHandled
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]map[string]models.SafetyAlertHandled)}
}

func (f *fakeLedger) MarkHandled(entry models.SafetyAlertHandled) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bySession := f.entries[entry.SessionID]
	if bySession == nil {
		bySession = make(map[string]models.SafetyAlertHandled)
		f.entries[entry.SessionID] = bySession
	}
	if _, ok := bySession[entry.ReviewID]; ok {
		return false, nil
	}
	bySession[entry.ReviewID] = entry
	return true, nil
}

func (f *fakeLedger) HandledReviewIDs(sessionID string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	handled := make(map[string]bool)
	for id := range f.entries[sessionID] {
		handled[id] = true
	}
	return handled, nil
}

type fakeOracle struct {
	plans []models.RoutePlan
	err   error
}

func (f *fakeOracle) Routes(ctx context.Context, _, _ models.Coordinate, _ []models.Polygon) ([]models.RoutePlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.plans, f.err
}

type passRanker struct{}

func (passRanker) Rank(candidates []models.RoutePlan, hour int) ([]models.RoutePlan, error) {
	if len(candidates) == 0 {
		return nil, eris.Wrap(models.ErrRouteUnavailable, "no candidates")
	}
	for i := range candidates {
		candidates[i].Safety = &models.SafetyAnalysis{
			OverallScore:   3.5,
			Classification: models.RouteMixed,
			Confidence:     0.5,
		}
	}
	return candidates, nil
}

type nopBinder struct{}

func (nopBinder) BindRoute(string, string, time.Time) error  { return nil }
func (nopBinder) SetState(string, models.SessionState) error { return nil }

func newTestAlertManager(feed ReviewFeed, ledger Ledger, oracle *fakeOracle) *AlertManager {
	cfg := config.DefaultEngineConfig()
	rerouter := NewRerouter(oracle, passRanker{}, nopBinder{}, cfg, nil)
	return NewAlertManager(feed, ledger, rerouter, cfg, nil)
}

func corridorReview(id string, createdAt time.Time) models.Review {
	return models.Review{
		ID:           id,
		LocationID:   "loc-1",
		Location:     pointAt(100),
		SafetyRating: 1.5,
		CreatedAt:    createdAt,
	}
}

func TestCheckRaisesAlertForCorridorReview(t *testing.T) {
	s, _ := newTestSession(t)
	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, newFakeLedger(), &fakeOracle{err: assert.AnError})

	prompt, err := m.Check(s)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "rv-1", prompt.ReviewID)
	assert.Equal(t, prompt, s.PendingAlert())
}

func TestCheckIgnoresReviewsBeforeRouteCreation(t *testing.T) {
	s, _ := newTestSession(t)
	rv := corridorReview("rv-old", s.Route().CreatedAt.Add(-time.Hour))
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, newFakeLedger(), &fakeOracle{})

	prompt, err := m.Check(s)
	require.NoError(t, err)
	assert.Nil(t, prompt)
}

func TestCheckIgnoresReviewsOutsideCorridor(t *testing.T) {
	s, _ := newTestSession(t)
	rv := corridorReview("rv-far", time.Now().Add(time.Minute))
	rv.Location = geo.DestinationPoint(testOrigin, 90, 2000)
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, newFakeLedger(), &fakeOracle{})

	prompt, err := m.Check(s)
	require.NoError(t, err)
	assert.Nil(t, prompt)
}

func TestCheckSuppressedWhilePromptPending(t *testing.T) {
	s, _ := newTestSession(t)
	feed := &fakeFeed{reviews: []models.Review{
		corridorReview("rv-1", time.Now().Add(time.Minute)),
		corridorReview("rv-2", time.Now().Add(time.Minute)),
	}}
	m := newTestAlertManager(feed, newFakeLedger(), &fakeOracle{})

	first, err := m.Check(s)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.Check(s)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestDecideWritesLedgerOnce(t *testing.T) {
	s, _ := newTestSession(t)
	ledger := newFakeLedger()
	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, ledger, &fakeOracle{})

	_, err := m.Check(s)
	require.NoError(t, err)

	already, err := m.Decide(context.Background(), s, "rv-1", models.AlertActionUserContinued)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Nil(t, s.PendingAlert())

	// The prompt was cleared, so a repeat decision has nothing pending.
	_, err = m.Decide(context.Background(), s, "rv-1", models.AlertActionUserContinued)
	assert.True(t, eris.Is(err, models.ErrInvalidSessionState))

	handled, err := ledger.HandledReviewIDs(s.ID())
	require.NoError(t, err)
	assert.True(t, handled["rv-1"])
}

func TestDecideRejectsUnknownAction(t *testing.T) {
	s, _ := newTestSession(t)
	m := newTestAlertManager(&fakeFeed{}, newFakeLedger(), &fakeOracle{})

	_, err := m.Decide(context.Background(), s, "rv-1", "shrug")
	assert.Error(t, err)
}

func TestHandledReviewNeverPromptsAgainAcrossReroutes(t *testing.T) {
	s, _ := newTestSession(t)
	ledger := newFakeLedger()
	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, ledger, &fakeOracle{})

	_, err := m.Check(s)
	require.NoError(t, err)
	_, err = m.Decide(context.Background(), s, "rv-1", models.AlertActionUserContinued)
	require.NoError(t, err)

	// Two reroutes later the review is still handled: dedup is keyed by
	// session, and the replacement routes predate the review.
	for _, id := range []string{"route-2", "route-3"} {
		gen, ok := s.BeginReroute()
		require.True(t, ok)
		plan := twoStepPlan(id)
		plan.CreatedAt = rv.CreatedAt.Add(-time.Hour)
		require.True(t, s.CompleteReroute(gen, plan))

		prompt, err := m.Check(s)
		require.NoError(t, err)
		assert.Nil(t, prompt, "review should stay handled on %s", id)
	}
}

func TestDecideRerouteAttemptedTriggersReroute(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.ApplyPosition(update(500))
	require.NoError(t, err)

	ledger := newFakeLedger()
	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	oracle := &fakeOracle{plans: []models.RoutePlan{*twoStepPlan("route-2")}}
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, ledger, oracle)

	_, err = m.Check(s)
	require.NoError(t, err)

	already, err := m.Decide(context.Background(), s, "rv-1", models.AlertActionRerouteAttempted)
	require.NoError(t, err)
	assert.False(t, already)

	// The reroute runs asynchronously and installs the replacement route.
	require.Eventually(t, func() bool {
		return s.Route().ID == "route-2" && s.State() == models.SessionActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDecideRerouteOutlivesRequestContext(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.ApplyPosition(update(500))
	require.NoError(t, err)

	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	oracle := &fakeOracle{plans: []models.RoutePlan{*twoStepPlan("route-2")}}
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, newFakeLedger(), oracle)

	_, err = m.Check(s)
	require.NoError(t, err)

	// The decision request's context is already gone by the time the
	// reroute goroutine reaches the oracle.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Decide(ctx, s, "rv-1", models.AlertActionRerouteAttempted)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Route().ID == "route-2" && s.State() == models.SessionActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFailedRerouteKeepsCurrentRoute(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.ApplyPosition(update(500))
	require.NoError(t, err)

	rv := corridorReview("rv-1", time.Now().Add(time.Minute))
	m := newTestAlertManager(&fakeFeed{reviews: []models.Review{rv}}, newFakeLedger(), &fakeOracle{err: assert.AnError})

	_, err = m.Check(s)
	require.NoError(t, err)
	_, err = m.Decide(context.Background(), s, "rv-1", models.AlertActionRerouteAttempted)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.State() == models.SessionActive
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "route-1", s.Route().ID)
}
