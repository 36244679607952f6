package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

func disparityProfile(id string, overall, slice float64) models.LocationSafetyProfile {
	return models.LocationSafetyProfile{
		LocationID: id,
		Location:   models.Coordinate{Latitude: 40.7, Longitude: -74.0},
		Scores: []models.SafetyScore{
			{
				LocationID:      id,
				DemographicType: models.DemographicOverall,
				AvgOverallScore: overall,
				ReviewCount:     10,
			},
			{
				LocationID:       id,
				DemographicType:  models.DemographicLGBTQ,
				DemographicValue: "yes",
				AvgOverallScore:  slice,
				ReviewCount:      6,
			},
		},
	}
}

func TestZonesSeverityThresholds(t *testing.T) {
	a := NewDangerZoneAnalyzer(config.DefaultEngineConfig())

	tests := []struct {
		overall, slice float64
		severity       string
		expectZone     bool
	}{
		{4.5, 1.5, models.ZoneSeverityHigh, true},   // disparity 3.0
		{4.5, 2.0, models.ZoneSeverityMedium, true}, // disparity 2.5
		{4.5, 3.0, models.ZoneSeverityLow, true},    // disparity 1.5
		{4.5, 3.2, "", false},                       // disparity 1.3, below floor
	}

	for _, tt := range tests {
		zones := a.Zones([]models.LocationSafetyProfile{
			disparityProfile("loc-1", tt.overall, tt.slice),
		})
		if !tt.expectZone {
			assert.Empty(t, zones)
			continue
		}
		require.Len(t, zones, 1)
		assert.Equal(t, tt.severity, zones[0].Severity)
		assert.Equal(t, models.DemographicLGBTQ, zones[0].DemographicType)
	}
}

func TestZonesOrderedBySeverityThenDisparity(t *testing.T) {
	a := NewDangerZoneAnalyzer(config.DefaultEngineConfig())

	zones := a.Zones([]models.LocationSafetyProfile{
		disparityProfile("low", 4.5, 3.0),     // low, 1.5
		disparityProfile("high", 5.0, 1.0),    // high, 4.0
		disparityProfile("medium2", 4.5, 2.4), // medium, 2.1
		disparityProfile("medium1", 4.8, 2.0), // medium, 2.8
	})
	require.Len(t, zones, 4)

	assert.Equal(t, "high", zones[0].LocationID)
	assert.Equal(t, "medium1", zones[1].LocationID)
	assert.Equal(t, "medium2", zones[2].LocationID)
	assert.Equal(t, "low", zones[3].LocationID)
}

func TestZonesPolygonRadius(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	a := NewDangerZoneAnalyzer(cfg)

	zones := a.Zones([]models.LocationSafetyProfile{
		disparityProfile("loc-1", 5.0, 1.0),
	})
	require.Len(t, zones, 1)

	ring := zones[0].Polygon
	assert.Len(t, ring, cfg.DangerZonePolygonPoints)

	wantRadius := cfg.DangerZoneRadiusMiles * geo.MetersPerMile
	for _, v := range ring {
		assert.InDelta(t, wantRadius, geo.Distance(zones[0].Center, v), wantRadius*0.05)
	}
}

func TestZonesSkipsUnreviewedLocations(t *testing.T) {
	a := NewDangerZoneAnalyzer(config.DefaultEngineConfig())

	zones := a.Zones([]models.LocationSafetyProfile{
		{LocationID: "no-scores"},
		{
			LocationID: "overall-only",
			Scores: []models.SafetyScore{{
				DemographicType: models.DemographicOverall,
				AvgOverallScore: 1.0,
				ReviewCount:     10,
			}},
		},
	})
	assert.Empty(t, zones)
}
