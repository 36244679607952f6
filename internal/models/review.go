package models

import "time"

// DemographicTag attaches a reviewer's self-reported demographic slice to a
// review.
type DemographicTag struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Review is a community safety review for a location. Reviews are owned by
// the review feed; the engine only reads them.
type Review struct {
	ID              string           `json:"id" db:"id"`
	LocationID      string           `json:"location_id" db:"location_id"`
	Location        Coordinate       `json:"location"`
	SafetyRating    float64          `json:"safety_rating" db:"safety_rating"` // 1-5
	DemographicTags []DemographicTag `json:"demographic_tags,omitempty"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}
