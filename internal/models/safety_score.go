package models

// Demographic slice types tracked per location.
const (
	DemographicOverall    = "overall"
	DemographicRace       = "race"
	DemographicGender     = "gender"
	DemographicLGBTQ      = "lgbtq"
	DemographicReligion   = "religion"
	DemographicDisability = "disability"
)

// SafetyScore is one aggregated row per (location, demographic slice).
// A row with DemographicType "overall" always exists once ReviewCount >= 1.
type SafetyScore struct {
	LocationID       string  `json:"location_id" db:"location_id"`
	DemographicType  string  `json:"demographic_type" db:"demographic_type"`
	DemographicValue string  `json:"demographic_value,omitempty" db:"demographic_value"`
	AvgOverallScore  float64 `json:"avg_overall_score" db:"avg_overall_score"` // 0-5
	ReviewCount      int     `json:"review_count" db:"review_count"`

	// LowConfidence marks slices below the minimum review count for
	// pattern detection. The row is retained, never dropped.
	LowConfidence bool `json:"low_confidence"`
}

// LocationSafetyProfile is a read-only snapshot of a location's full set of
// score rows plus its position and place type. Fetched per scoring run and
// never mutated by the engine.
type LocationSafetyProfile struct {
	LocationID string        `json:"location_id"`
	Name       string        `json:"name,omitempty"`
	PlaceType  string        `json:"place_type,omitempty"`
	Location   Coordinate    `json:"location"`
	Scores     []SafetyScore `json:"scores"`
}

// OverallScore returns the overall slice, if present.
func (p *LocationSafetyProfile) OverallScore() (SafetyScore, bool) {
	for _, s := range p.Scores {
		if s.DemographicType == DemographicOverall {
			return s, true
		}
	}
	return SafetyScore{}, false
}

// AreaStats holds area-level statistics used as a fallback signal for
// locations with no direct reviews. CrimeIndex is on a 0-100 scale where
// higher means more reported incidents.
type AreaStats struct {
	LocationID     string  `json:"location_id" db:"location_id"`
	CrimeIndex     float64 `json:"crime_index" db:"crime_index"`
	DiversityIndex float64 `json:"diversity_index" db:"diversity_index"`
	DataPointCount int     `json:"data_point_count" db:"data_point_count"`
}

// SafetyScale converts the crime index onto the 0-5 safety scale.
func (a AreaStats) SafetyScale() float64 {
	score := 5.0 - (a.CrimeIndex/100.0)*5.0
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}
