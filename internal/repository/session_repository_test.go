package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

func sessionRecord(id string) models.NavigationSessionRecord {
	return models.NavigationSessionRecord{
		SessionID:     id,
		DeviceID:      "device-1",
		ActiveRouteID: "route-1",
		State:         models.SessionActive,
		CreatedAt:     time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	repo := NewSessionRepository(testDB(t))

	require.NoError(t, repo.Create(sessionRecord("sess-1")))

	rec, err := repo.Get("sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "device-1", rec.DeviceID)
	assert.Equal(t, "route-1", rec.ActiveRouteID)
	assert.Equal(t, models.SessionActive, rec.State)
	assert.Nil(t, rec.EndedAt)

	routes, err := repo.RouteIDs("sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"route-1"}, routes)
}

func TestSessionGetUnknown(t *testing.T) {
	repo := NewSessionRepository(testDB(t))

	rec, err := repo.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBindRouteAccumulatesHistory(t *testing.T) {
	repo := NewSessionRepository(testDB(t))
	require.NoError(t, repo.Create(sessionRecord("sess-1")))
	require.NoError(t, repo.UpdateProgress("sess-1", 3))

	require.NoError(t, repo.BindRoute("sess-1", "route-2",
		time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)))

	rec, err := repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "route-2", rec.ActiveRouteID)
	// A reroute resets progress on the new route.
	assert.Equal(t, 0, rec.CurrentStepIndex)

	routes, err := repo.RouteIDs("sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"route-1", "route-2"}, routes)
}

func TestSetStateEndStampsEndedAt(t *testing.T) {
	repo := NewSessionRepository(testDB(t))
	require.NoError(t, repo.Create(sessionRecord("sess-1")))

	require.NoError(t, repo.SetState("sess-1", models.SessionRerouting))
	rec, err := repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionRerouting, rec.State)
	assert.Nil(t, rec.EndedAt)

	require.NoError(t, repo.SetState("sess-1", models.SessionEnded))
	rec, err = repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, rec.State)
	require.NotNil(t, rec.EndedAt)
}

func TestUpdateProgress(t *testing.T) {
	repo := NewSessionRepository(testDB(t))
	require.NoError(t, repo.Create(sessionRecord("sess-1")))

	require.NoError(t, repo.UpdateProgress("sess-1", 4))
	rec, err := repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.CurrentStepIndex)
}
