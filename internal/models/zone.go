package models

// Danger zone severity levels, ordered high to low.
const (
	ZoneSeverityHigh   = "high"
	ZoneSeverityMedium = "medium"
	ZoneSeverityLow    = "low"
)

// DangerZone is an avoidance area around a location whose demographic
// slice scores diverge sharply from its overall score. The polygon is an
// 8-point ring approximating a circle around the location center.
type DangerZone struct {
	LocationID       string     `json:"location_id"`
	Center           Coordinate `json:"center"`
	Severity         string     `json:"severity"`
	Disparity        float64    `json:"disparity"`
	DemographicType  string     `json:"demographic_type"`
	DemographicValue string     `json:"demographic_value,omitempty"`
	Polygon          Polygon    `json:"polygon"`
}
