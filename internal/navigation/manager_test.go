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
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

type memoryStore struct {
	mu       sync.Mutex
	records  map[string]models.NavigationSessionRecord
	progress map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records:  make(map[string]models.NavigationSessionRecord),
		progress: make(map[string]int),
	}
}

func (m *memoryStore) Create(rec models.NavigationSessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.SessionID] = rec
	return nil
}

func (m *memoryStore) UpdateProgress(sessionID string, stepIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[sessionID] = stepIndex
	return nil
}

func (m *memoryStore) SetState(sessionID string, state models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[sessionID]
	rec.State = state
	m.records[sessionID] = rec
	return nil
}

func (m *memoryStore) stateOf(sessionID string) models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[sessionID].State
}

func (m *memoryStore) progressOf(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[sessionID]
}

func newTestManager(store SessionStore) *Manager {
	cfg := config.DefaultEngineConfig()
	rerouter := NewRerouter(&fakeOracle{err: assert.AnError}, passRanker{}, nopBinder{}, cfg, nil)
	alerts := NewAlertManager(&fakeFeed{}, newFakeLedger(), rerouter, cfg, nil)
	return NewManager(store, rerouter, alerts, cfg, nil)
}

func TestManagerStartAndPushPosition(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)

	s, err := m.Start(context.Background(), "device-1", twoStepPlan("route-1"), NewChannelStream(4))
	require.NoError(t, err)
	require.NotNil(t, s)

	_, _, err = m.PushPosition(s.ID(), update(995))
	require.NoError(t, err)

	// The pump applies the update and persists the step change.
	require.Eventually(t, func() bool {
		return store.progressOf(s.ID()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	state, _, err := m.PushPosition(s.ID(), update(1100))
	require.NoError(t, err)
	assert.Equal(t, 1, state.StepIndex)
}

func TestManagerSessionOutlivesStartContext(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := m.Start(ctx, "device-1", twoStepPlan("route-1"), NewChannelStream(4))
	require.NoError(t, err)

	// The start request finishing must not end the session.
	cancel()

	_, _, err = m.PushPosition(s.ID(), update(995))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.progressOf(s.ID()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, s.Ended())
}

func TestManagerReplacesPreviousDeviceSession(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)

	first, err := m.Start(context.Background(), "device-1", twoStepPlan("route-1"), NewChannelStream(4))
	require.NoError(t, err)

	second, err := m.Start(context.Background(), "device-1", twoStepPlan("route-2"), NewChannelStream(4))
	require.NoError(t, err)

	assert.True(t, first.Ended())
	assert.False(t, second.Ended())
	assert.Equal(t, models.SessionEnded, store.stateOf(first.ID()))

	_, err = m.Get(first.ID())
	assert.True(t, eris.Is(err, models.ErrSessionNotFound))
}

func TestManagerEnd(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)

	s, err := m.Start(context.Background(), "device-1", twoStepPlan("route-1"), NewChannelStream(4))
	require.NoError(t, err)

	require.NoError(t, m.End(s.ID()))
	assert.True(t, s.Ended())
	assert.Equal(t, models.SessionEnded, store.stateOf(s.ID()))

	// Ended sessions are removed from the live set.
	err = m.End(s.ID())
	assert.True(t, eris.Is(err, models.ErrSessionNotFound))

	_, _, err = m.PushPosition(s.ID(), update(100))
	assert.True(t, eris.Is(err, models.ErrSessionNotFound))
}

func TestManagerPushPositionUnknownSession(t *testing.T) {
	m := newTestManager(newMemoryStore())

	_, _, err := m.PushPosition("nope", update(0))
	assert.True(t, eris.Is(err, models.ErrSessionNotFound))
}
