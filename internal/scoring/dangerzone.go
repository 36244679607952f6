package scoring

import (
	"math"
	"sort"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// DangerZoneAnalyzer finds locations whose demographic slice scores
// diverge sharply from their overall score and wraps them in avoidance
// polygons for the routing oracle and session alerting.
type DangerZoneAnalyzer struct {
	cfg config.EngineConfig
}

// NewDangerZoneAnalyzer creates a danger zone analyzer.
func NewDangerZoneAnalyzer(cfg config.EngineConfig) *DangerZoneAnalyzer {
	return &DangerZoneAnalyzer{cfg: cfg}
}

// Zones computes at most one zone per location, keeping the slice with the
// largest disparity. Output is ordered high, medium, low; within a level,
// larger disparities first.
func (a *DangerZoneAnalyzer) Zones(profiles []models.LocationSafetyProfile) []models.DangerZone {
	var zones []models.DangerZone

	for _, p := range profiles {
		overall, ok := p.OverallScore()
		if !ok || overall.ReviewCount == 0 {
			continue
		}

		var worst *models.SafetyScore
		var worstDisparity float64
		for i, row := range p.Scores {
			if row.DemographicType == models.DemographicOverall {
				continue
			}
			disparity := math.Abs(row.AvgOverallScore - overall.AvgOverallScore)
			if disparity > worstDisparity {
				worstDisparity = disparity
				worst = &p.Scores[i]
			}
		}

		if worst == nil {
			continue
		}

		severity, ok := a.severity(worstDisparity)
		if !ok {
			continue
		}

		radius := a.cfg.DangerZoneRadiusMiles * geo.MetersPerMile
		zones = append(zones, models.DangerZone{
			LocationID:       p.LocationID,
			Center:           p.Location,
			Severity:         severity,
			Disparity:        worstDisparity,
			DemographicType:  worst.DemographicType,
			DemographicValue: worst.DemographicValue,
			Polygon:          geo.CirclePolygon(p.Location, radius, a.cfg.DangerZonePolygonPoints),
		})
	}

	sort.SliceStable(zones, func(i, j int) bool {
		ri, rj := severityRank(zones[i].Severity), severityRank(zones[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return zones[i].Disparity > zones[j].Disparity
	})

	return zones
}

func (a *DangerZoneAnalyzer) severity(disparity float64) (string, bool) {
	switch {
	case disparity >= a.cfg.PatternDisparityHigh:
		return models.ZoneSeverityHigh, true
	case disparity >= a.cfg.PatternDisparityMedium:
		return models.ZoneSeverityMedium, true
	case disparity >= a.cfg.PatternDetectionDefault:
		return models.ZoneSeverityLow, true
	default:
		return "", false
	}
}

func severityRank(s string) int {
	switch s {
	case models.ZoneSeverityHigh:
		return 0
	case models.ZoneSeverityMedium:
		return 1
	default:
		return 2
	}
}
