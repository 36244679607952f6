package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2,
	}
}

func oracleResponseBody() oracleResponse {
	return oracleResponse{Routes: []oracleRoute{
		{
			Polyline:        []models.Coordinate{testOrig, testDest},
			DistanceMeters:  4500,
			DurationSeconds: 900,
		},
		{
			Polyline:        []models.Coordinate{testOrig, testDest},
			DistanceMeters:  5200,
			DurationSeconds: 1100,
		},
	}}
}

func TestOracleRoutes(t *testing.T) {
	var gotReq oracleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(oracleResponseBody())
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "secret", 2*time.Second, 5)
	o.retry = fastRetry()

	plans, err := o.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, testOrig, gotReq.Origin)
	assert.Equal(t, 5, gotReq.Alternatives)

	// Plans get IDs and ranks in response order.
	assert.NotEmpty(t, plans[0].ID)
	assert.NotEqual(t, plans[0].ID, plans[1].ID)
	assert.Equal(t, 0, plans[0].AlternativeRank)
	assert.Equal(t, 1, plans[1].AlternativeRank)
}

func TestOracleRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(oracleResponseBody())
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", 2*time.Second, 5)
	o.retry = fastRetry()

	plans, err := o.Routes(context.Background(), testOrig, testDest, nil)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOracleDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", 2*time.Second, 5)
	o.retry = fastRetry()

	_, err := o.Routes(context.Background(), testOrig, testDest, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOracleEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(oracleResponse{})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", 2*time.Second, 5)
	o.retry = fastRetry()

	_, err := o.Routes(context.Background(), testOrig, testDest, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRouteUnavailable)
}
