package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// ReviewRepository handles database operations for community reviews. The
// engine treats reviews as externally owned: it ingests and reads them but
// never edits them.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert stores a review. Duplicate IDs are benign no-ops; the bool result
// reports whether the row was new.
func (r *ReviewRepository) Insert(review models.Review) (bool, error) {
	tags, err := json.Marshal(review.DemographicTags)
	if err != nil {
		return false, fmt.Errorf("failed to encode demographic tags: %w", err)
	}

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO reviews (id, location_id, latitude, longitude, safety_rating, demographic_tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, review.ID, review.LocationID, review.Location.Latitude, review.Location.Longitude,
		review.SafetyRating, string(tags), review.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert review: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// ForLocation returns all reviews for a location, oldest first.
func (r *ReviewRepository) ForLocation(locationID string) ([]models.Review, error) {
	rows, err := r.db.Query(`
		SELECT id, location_id, latitude, longitude, safety_rating, demographic_tags, created_at
		FROM reviews WHERE location_id = ?
		ORDER BY created_at ASC
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// LowRatedSince returns reviews with a rating strictly below maxRating
// created after the given timestamp, newest first. Used by the safety
// alert corridor check.
func (r *ReviewRepository) LowRatedSince(since time.Time, maxRating float64) ([]models.Review, error) {
	rows, err := r.db.Query(`
		SELECT id, location_id, latitude, longitude, safety_rating, demographic_tags, created_at
		FROM reviews
		WHERE safety_rating < ? AND created_at > ?
		ORDER BY created_at DESC
	`, maxRating, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query low-rated reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]models.Review, error) {
	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		var tags string
		if err := rows.Scan(&rv.ID, &rv.LocationID, &rv.Location.Latitude, &rv.Location.Longitude,
			&rv.SafetyRating, &tags, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &rv.DemographicTags); err != nil {
			return nil, fmt.Errorf("failed to decode demographic tags: %w", err)
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}
