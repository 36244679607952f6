package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/repository"
	"github.com/saferoute/saferoute-backend-go/internal/scoring"
)

// ErrInvalidRating rejects safety ratings outside the 1-5 range.
var ErrInvalidRating = eris.New("safety rating must be between 1 and 5")

// ErrInvalidAreaStats rejects area statistics with an out-of-range crime
// index.
var ErrInvalidAreaStats = eris.New("crime index must be between 0 and 100")

// ReviewService ingests community reviews and keeps the aggregated safety
// scores for their locations current.
type ReviewService struct {
	reviews    *repository.ReviewRepository
	locations  *repository.LocationRepository
	aggregator *scoring.Aggregator
}

// NewReviewService creates a new review service
func NewReviewService(reviews *repository.ReviewRepository, locations *repository.LocationRepository, aggregator *scoring.Aggregator) *ReviewService {
	return &ReviewService{reviews: reviews, locations: locations, aggregator: aggregator}
}

// IngestInput is one incoming review plus the location metadata needed to
// upsert its location row.
type IngestInput struct {
	Review       models.Review
	LocationName string
	PlaceType    string
}

// Ingest stores a review, upserting its location, and recomputes the
// location's aggregated scores. Duplicate review IDs are benign no-ops; the
// bool result reports whether the review was new.
func (s *ReviewService) Ingest(in IngestInput) (bool, []models.SafetyScore, error) {
	rv := in.Review
	if rv.SafetyRating < 1 || rv.SafetyRating > 5 {
		return false, nil, eris.Wrapf(ErrInvalidRating, "got %.2f", rv.SafetyRating)
	}
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}

	if err := s.locations.UpsertLocation(rv.LocationID, in.LocationName, in.PlaceType, rv.Location); err != nil {
		return false, nil, eris.Wrap(err, "review service: upsert location")
	}

	created, err := s.reviews.Insert(rv)
	if err != nil {
		return false, nil, eris.Wrap(err, "review service: insert review")
	}

	scores, err := s.aggregator.Refresh(rv.LocationID, s.locations)
	if err != nil {
		return created, nil, eris.Wrap(err, "review service: refresh scores")
	}
	return created, scores, nil
}

// SetAreaStats upserts the area statistics fallback signal for a location.
func (s *ReviewService) SetAreaStats(a models.AreaStats) error {
	if a.CrimeIndex < 0 || a.CrimeIndex > 100 {
		return eris.Wrapf(ErrInvalidAreaStats, "got %.2f", a.CrimeIndex)
	}
	if err := s.locations.UpsertAreaStats(a); err != nil {
		return eris.Wrap(err, "review service: upsert area stats")
	}
	return nil
}
