package service

import (
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/repository"
)

// ErrUnknownVoteType rejects vote types other than accurate/inaccurate.
var ErrUnknownVoteType = eris.New("unknown vote type")

// VoteService handles business logic for prediction accuracy votes.
type VoteService struct {
	votes     *repository.VoteRepository
	locations *repository.LocationRepository
}

// NewVoteService creates a new vote service
func NewVoteService(votes *repository.VoteRepository, locations *repository.LocationRepository) *VoteService {
	return &VoteService{votes: votes, locations: locations}
}

// VoteOutcome reports what a cast vote did and the resulting counters.
type VoteOutcome struct {
	Action          string `json:"action"`
	AccurateVotes   int    `json:"accurate_votes"`
	InaccurateVotes int    `json:"inaccurate_votes"`
}

// Cast records a vote. A repeat vote of the same type toggles it off; an
// opposite vote switches it. Returns nil for unknown locations.
func (s *VoteService) Cast(vote models.PredictionVote) (*VoteOutcome, error) {
	if vote.VoteType != models.VoteAccurate && vote.VoteType != models.VoteInaccurate {
		return nil, eris.Wrapf(ErrUnknownVoteType, "%q", vote.VoteType)
	}

	profile, err := s.locations.GetProfile(vote.LocationID)
	if err != nil {
		return nil, eris.Wrap(err, "vote service: load location")
	}
	if profile == nil {
		return nil, nil
	}

	action, err := s.votes.Cast(vote)
	if err != nil {
		return nil, eris.Wrap(err, "vote service: cast")
	}

	accurate, inaccurate, err := s.votes.Counts(vote.LocationID)
	if err != nil {
		return nil, eris.Wrap(err, "vote service: counts")
	}

	return &VoteOutcome{
		Action:          action,
		AccurateVotes:   accurate,
		InaccurateVotes: inaccurate,
	}, nil
}
