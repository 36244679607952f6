package models

// Coordinate is an immutable geographic position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Polygon is an ordered ring of coordinates. The ring is implicitly closed;
// the first vertex is not repeated at the end.
type Polygon []Coordinate
