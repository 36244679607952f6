package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// Earth radius constants.
const (
	EarthRadiusMeters = 6371000.0
	MetersPerMile     = 1609.344
)

// Distance calculates the great-circle distance between two coordinates in
// meters using the haversine formula. Symmetric; zero for identical points.
func Distance(a, b models.Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing calculates the initial bearing (forward azimuth) from a to b.
// Returns degrees in [0, 360), where 0 is North and 90 is East.
func Bearing(a, b models.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lonDiff := (b.Longitude - a.Longitude) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lonDiff)
	bearing := math.Atan2(y, x)

	bearingDeg := bearing * 180 / math.Pi
	return math.Mod(bearingDeg+360, 360)
}

// DestinationPoint calculates the point reached by travelling the given
// distance (meters) from start along the given bearing (degrees).
func DestinationPoint(start models.Coordinate, bearing, distance float64) models.Coordinate {
	bearingRad := bearing * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := start.Latitude * math.Pi / 180
	lonRad := start.Longitude * math.Pi / 180

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return models.Coordinate{
		Latitude:  lat2 * 180 / math.Pi,
		Longitude: lon2 * 180 / math.Pi,
	}
}

// Midpoint calculates the geographic midpoint between two coordinates using
// S2 interpolation.
func Midpoint(a, b models.Coordinate) models.Coordinate {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)

	mid := s2.Interpolate(0.5, s2.PointFromLatLng(p1), s2.PointFromLatLng(p2))
	midLatLng := s2.LatLngFromPoint(mid)

	return models.Coordinate{
		Latitude:  midLatLng.Lat.Degrees(),
		Longitude: midLatLng.Lng.Degrees(),
	}
}

// Interpolate returns the point at fraction f (0-1) along the great-circle
// arc from a to b.
func Interpolate(a, b models.Coordinate, f float64) models.Coordinate {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)

	p := s2.Interpolate(f, s2.PointFromLatLng(p1), s2.PointFromLatLng(p2))
	ll := s2.LatLngFromPoint(p)

	return models.Coordinate{
		Latitude:  ll.Lat.Degrees(),
		Longitude: ll.Lng.Degrees(),
	}
}

// NearestVertex scans a polyline and returns the vertex closest to p, its
// index, and the distance in meters. Ties resolve to the first occurrence.
// This is a vertex scan, not a projection onto segment interiors; callers
// only compare the result against thresholds.
func NearestVertex(p models.Coordinate, polyline []models.Coordinate) (models.Coordinate, int, float64) {
	if len(polyline) == 0 {
		return models.Coordinate{}, -1, math.Inf(1)
	}

	best := 0
	bestDist := Distance(p, polyline[0])
	for i := 1; i < len(polyline); i++ {
		d := Distance(p, polyline[i])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	return polyline[best], best, bestDist
}
