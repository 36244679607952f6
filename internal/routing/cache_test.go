package routing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

type countingOracle struct {
	mu    sync.Mutex
	calls int
	plans []models.RoutePlan
	err   error
}

func (o *countingOracle) Routes(context.Context, models.Coordinate, models.Coordinate, []models.Polygon) ([]models.RoutePlan, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.plans, o.err
}

func (o *countingOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type memoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]string
	expiry  map[string]time.Time
	getErr  error
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{
		entries: make(map[string]string),
		expiry:  make(map[string]time.Time),
	}
}

func (m *memoryCacheStore) Get(key string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	if exp, ok := m.expiry[key]; !ok || !exp.After(now) {
		return "", nil
	}
	return m.entries[key], nil
}

func (m *memoryCacheStore) Put(key, payload string, ttl time.Duration, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = payload
	m.expiry[key] = now.Add(ttl)
	return nil
}

var (
	testOrig = models.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	testDest = models.Coordinate{Latitude: 40.7484, Longitude: -73.9857}
)

func testPlans() []models.RoutePlan {
	return []models.RoutePlan{{
		ID:              "route-1",
		Polyline:        []models.Coordinate{testOrig, testDest},
		DistanceMeters:  4500,
		DurationSeconds: 900,
	}}
}

func TestCachedOracleReadThrough(t *testing.T) {
	oracle := &countingOracle{plans: testPlans()}
	store := newMemoryCacheStore()
	cached := NewCachedOracle(oracle, store, 15*time.Minute)

	plans, err := cached.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 1, oracle.callCount())

	// Second identical request is served from the cache.
	plans, err = cached.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "route-1", plans[0].ID)
	assert.Equal(t, 1, oracle.callCount())
}

func TestCachedOracleExpiry(t *testing.T) {
	oracle := &countingOracle{plans: testPlans()}
	store := newMemoryCacheStore()
	cached := NewCachedOracle(oracle, store, 15*time.Minute)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return base }

	_, err := cached.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)

	cached.now = func() time.Time { return base.Add(20 * time.Minute) }
	_, err = cached.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.callCount())
}

func TestCachedOracleDegradesOnCacheFailure(t *testing.T) {
	oracle := &countingOracle{plans: testPlans()}
	store := newMemoryCacheStore()
	store.getErr = assert.AnError
	cached := NewCachedOracle(oracle, store, 15*time.Minute)

	plans, err := cached.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestCachedOraclePropagatesOracleError(t *testing.T) {
	oracle := &countingOracle{err: assert.AnError}
	cached := NewCachedOracle(oracle, newMemoryCacheStore(), 15*time.Minute)

	_, err := cached.Routes(context.Background(), testOrig, testDest, nil)
	assert.Error(t, err)
}

func TestCacheKeyStability(t *testing.T) {
	k1 := CacheKey(testOrig, testDest, nil)
	k2 := CacheKey(testOrig, testDest, nil)
	assert.Equal(t, k1, k2)

	// Jitter below the rounding resolution hits the same entry.
	jittered := models.Coordinate{
		Latitude:  testOrig.Latitude + 0.00001,
		Longitude: testOrig.Longitude,
	}
	assert.Equal(t, k1, CacheKey(jittered, testDest, nil))

	// A different destination or avoidance set is a different key.
	assert.NotEqual(t, k1, CacheKey(testOrig, testOrig, nil))
	avoid := []models.Polygon{{testOrig, testDest, {Latitude: 40.8, Longitude: -74.1}}}
	assert.NotEqual(t, k1, CacheKey(testOrig, testDest, avoid))
}
