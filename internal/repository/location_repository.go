package repository

import (
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// LocationRepository handles database operations for locations and their
// aggregated safety scores.
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// UpsertLocation inserts or updates a location row.
func (r *LocationRepository) UpsertLocation(id, name, placeType string, pos models.Coordinate) error {
	query := `
		INSERT INTO locations (id, name, place_type, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			place_type = excluded.place_type,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`
	if _, err := r.db.Exec(query, id, name, placeType, pos.Latitude, pos.Longitude); err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}
	return nil
}

// GetProfile fetches a location's safety profile snapshot, or nil if the
// location is unknown.
func (r *LocationRepository) GetProfile(locationID string) (*models.LocationSafetyProfile, error) {
	var p models.LocationSafetyProfile
	err := r.db.QueryRow(
		"SELECT id, name, place_type, latitude, longitude FROM locations WHERE id = ?",
		locationID,
	).Scan(&p.LocationID, &p.Name, &p.PlaceType, &p.Location.Latitude, &p.Location.Longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	scores, err := r.scoresFor(locationID)
	if err != nil {
		return nil, err
	}
	p.Scores = scores

	return &p, nil
}

// NearbyProfiles returns up to limit location profiles within radiusMeters
// of center, nearest first. A bounding-box prefilter narrows the SQL scan
// before the exact haversine check.
func (r *LocationRepository) NearbyProfiles(center models.Coordinate, radiusMeters float64, limit int) ([]models.LocationSafetyProfile, error) {
	latDelta := radiusMeters / 111320.0
	lonScale := math.Cos(center.Latitude * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}
	lonDelta := latDelta / lonScale

	rows, err := r.db.Query(`
		SELECT id, name, place_type, latitude, longitude
		FROM locations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
	`, center.Latitude-latDelta, center.Latitude+latDelta,
		center.Longitude-lonDelta, center.Longitude+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby locations: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		profile models.LocationSafetyProfile
		dist    float64
	}

	var candidates []candidate
	for rows.Next() {
		var p models.LocationSafetyProfile
		if err := rows.Scan(&p.LocationID, &p.Name, &p.PlaceType,
			&p.Location.Latitude, &p.Location.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}

		d := geo.Distance(center, p.Location)
		if d <= radiusMeters {
			candidates = append(candidates, candidate{profile: p, dist: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	// Nearest first, then truncate.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	profiles := make([]models.LocationSafetyProfile, 0, len(candidates))
	for _, c := range candidates {
		scores, err := r.scoresFor(c.profile.LocationID)
		if err != nil {
			return nil, err
		}
		c.profile.Scores = scores
		profiles = append(profiles, c.profile)
	}

	return profiles, nil
}

// ReplaceScores replaces the aggregated score rows for a location.
func (r *LocationRepository) ReplaceScores(locationID string, scores []models.SafetyScore) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin score replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM safety_scores WHERE location_id = ?", locationID); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}

	for _, s := range scores {
		_, err := tx.Exec(`
			INSERT INTO safety_scores (location_id, demographic_type, demographic_value, avg_overall_score, review_count, low_confidence)
			VALUES (?, ?, ?, ?, ?, ?)
		`, locationID, s.DemographicType, s.DemographicValue, s.AvgOverallScore, s.ReviewCount, s.LowConfidence)
		if err != nil {
			return fmt.Errorf("failed to insert score row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit score replace: %w", err)
	}
	return nil
}

// GetAreaStats returns area statistics for a location, or nil when absent.
func (r *LocationRepository) GetAreaStats(locationID string) (*models.AreaStats, error) {
	var a models.AreaStats
	err := r.db.QueryRow(`
		SELECT location_id, crime_index, diversity_index, data_point_count
		FROM area_stats WHERE location_id = ?
	`, locationID).Scan(&a.LocationID, &a.CrimeIndex, &a.DiversityIndex, &a.DataPointCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area stats: %w", err)
	}
	return &a, nil
}

// UpsertAreaStats inserts or updates the area statistics for a location.
func (r *LocationRepository) UpsertAreaStats(a models.AreaStats) error {
	query := `
		INSERT INTO area_stats (location_id, crime_index, diversity_index, data_point_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			crime_index = excluded.crime_index,
			diversity_index = excluded.diversity_index,
			data_point_count = excluded.data_point_count
	`
	if _, err := r.db.Exec(query, a.LocationID, a.CrimeIndex, a.DiversityIndex, a.DataPointCount); err != nil {
		return fmt.Errorf("failed to upsert area stats: %w", err)
	}
	return nil
}

func (r *LocationRepository) scoresFor(locationID string) ([]models.SafetyScore, error) {
	rows, err := r.db.Query(`
		SELECT location_id, demographic_type, demographic_value, avg_overall_score, review_count, low_confidence
		FROM safety_scores WHERE location_id = ?
		ORDER BY demographic_type, demographic_value
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety scores: %w", err)
	}
	defer rows.Close()

	var scores []models.SafetyScore
	for rows.Next() {
		var s models.SafetyScore
		if err := rows.Scan(&s.LocationID, &s.DemographicType, &s.DemographicValue,
			&s.AvgOverallScore, &s.ReviewCount, &s.LowConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan safety score: %w", err)
		}
		scores = append(scores, s)
	}

	return scores, rows.Err()
}
