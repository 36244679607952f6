package geo

import (
	"math"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// Centroid calculates the geographic centroid of a set of coordinates.
func Centroid(points []models.Coordinate) models.Coordinate {
	if len(points) == 0 {
		return models.Coordinate{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Latitude
		sumLon += p.Longitude
	}

	return models.Coordinate{
		Latitude:  sumLat / float64(len(points)),
		Longitude: sumLon / float64(len(points)),
	}
}

// PathLength calculates the total length of a polyline in meters.
func PathLength(points []models.Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// PointInPolygon checks whether a point lies inside a polygon ring using
// ray casting.
func PointInPolygon(point models.Coordinate, polygon models.Polygon) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		if ((polygon[i].Latitude > point.Latitude) != (polygon[j].Latitude > point.Latitude)) &&
			(point.Longitude < (polygon[j].Longitude-polygon[i].Longitude)*
				(point.Latitude-polygon[i].Latitude)/(polygon[j].Latitude-polygon[i].Latitude)+polygon[i].Longitude) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// CirclePolygon builds an n-point polygon approximating a circle of the
// given radius (meters) around center. Longitude deltas are scaled by
// cos(latitude) so the ring stays roughly circular away from the equator.
func CirclePolygon(center models.Coordinate, radiusMeters float64, n int) models.Polygon {
	if n < 3 {
		n = 3
	}

	latDelta := radiusMeters / 111320.0
	lonScale := math.Cos(center.Latitude * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}
	lonDelta := latDelta / lonScale

	ring := make(models.Polygon, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, models.Coordinate{
			Latitude:  center.Latitude + latDelta*math.Sin(angle),
			Longitude: center.Longitude + lonDelta*math.Cos(angle),
		})
	}
	return ring
}

// WithinRadius reports whether any vertex of the polyline lies within
// radiusMeters of p.
func WithinRadius(p models.Coordinate, polyline []models.Coordinate, radiusMeters float64) bool {
	for _, v := range polyline {
		if Distance(p, v) <= radiusMeters {
			return true
		}
	}
	return false
}
