package models

import "time"

// Route classification levels.
const (
	RouteSafe   = "safe"
	RouteMixed  = "mixed"
	RouteUnsafe = "unsafe"
)

// RouteStep is one instruction-level leg of a route. Steps are contiguous:
// step[i].EndLocation is step[i+1].StartLocation.
type RouteStep struct {
	StartLocation   Coordinate `json:"start_location"`
	EndLocation     Coordinate `json:"end_location"`
	DistanceMeters  float64    `json:"distance_m"`
	DurationSeconds float64    `json:"duration_s"`
	Instruction     string     `json:"instruction"`
}

// SegmentScore is the safety score for one fixed-length slice of a route
// polyline.
type SegmentScore struct {
	SegmentIndex             int        `json:"segment_index"`
	StartLocation            Coordinate `json:"start_location"`
	EndLocation              Coordinate `json:"end_location"`
	Score                    float64    `json:"score"` // 0-5, after time-of-day adjustment
	NearbyLocationCount      int        `json:"nearby_location_count"`
	ContributingDemographics []string   `json:"contributing_demographics,omitempty"`
}

// SafetyAnalysis aggregates segment scores into a route-level result.
type SafetyAnalysis struct {
	OverallScore   float64        `json:"overall_score"`
	Classification string         `json:"classification"`
	Segments       []SegmentScore `json:"segments"`
	Confidence     float64        `json:"confidence"`
	LowConfidence  bool           `json:"low_confidence"`
}

// RoutePlan is one candidate or active route. Plans are immutable once
// scored; a reroute produces a new plan under the same session.
type RoutePlan struct {
	ID              string          `json:"id"`
	Polyline        []Coordinate    `json:"polyline"`
	Steps           []RouteStep     `json:"steps"`
	DistanceMeters  float64         `json:"distance_m"`
	DurationSeconds float64         `json:"duration_s"`
	Safety          *SafetyAnalysis `json:"safety_analysis,omitempty"`
	AlternativeRank int             `json:"alternative_rank"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Destination returns the final polyline vertex.
func (r *RoutePlan) Destination() Coordinate {
	if len(r.Polyline) == 0 {
		return Coordinate{}
	}
	return r.Polyline[len(r.Polyline)-1]
}
