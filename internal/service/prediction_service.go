package service

import (
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/repository"
	"github.com/saferoute/saferoute-backend-go/internal/scoring"
)

// PredictionService handles business logic for blended safety predictions.
type PredictionService struct {
	locations *repository.LocationRepository
	predictor *scoring.Predictor
	votes     *repository.VoteRepository
}

// NewPredictionService creates a new prediction service
func NewPredictionService(locations *repository.LocationRepository, predictor *scoring.Predictor, votes *repository.VoteRepository) *PredictionService {
	return &PredictionService{locations: locations, predictor: predictor, votes: votes}
}

// PredictionWithVotes is a prediction plus its accuracy vote counters.
type PredictionWithVotes struct {
	models.PredictionResult
	AccurateVotes   int `json:"accurate_votes"`
	InaccurateVotes int `json:"inaccurate_votes"`
}

// Predict returns the blended prediction for a location along with its vote
// counters, or nil for unknown locations.
func (s *PredictionService) Predict(locationID string) (*PredictionWithVotes, error) {
	profile, err := s.locations.GetProfile(locationID)
	if err != nil {
		return nil, eris.Wrap(err, "prediction service: load location")
	}
	if profile == nil {
		return nil, nil
	}

	pred, err := s.predictor.Predict(locationID)
	if err != nil {
		return nil, eris.Wrap(err, "prediction service: predict")
	}

	accurate, inaccurate, err := s.votes.Counts(locationID)
	if err != nil {
		return nil, eris.Wrap(err, "prediction service: vote counts")
	}

	return &PredictionWithVotes{
		PredictionResult: pred,
		AccurateVotes:    accurate,
		InaccurateVotes:  inaccurate,
	}, nil
}

// Similarity computes the demographic overlap between the requesting user
// and another user's attribute set.
func (s *PredictionService) Similarity(otherUserID string, user, other scoring.UserAttributes) models.SimilarityScore {
	return scoring.Similarity(otherUserID, user, other)
}
