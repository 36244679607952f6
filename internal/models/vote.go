package models

import "time"

// Vote types and the resulting actions reported back to the caller.
const (
	VoteAccurate   = "accurate"
	VoteInaccurate = "inaccurate"

	VoteActionAdded    = "added"
	VoteActionRemoved  = "removed"
	VoteActionSwitched = "switched"
)

// PredictionVote is a user's accuracy vote on a blended prediction. A
// second vote of the same type toggles it off; an opposite vote switches
// it, adjusting both counters atomically.
type PredictionVote struct {
	UserID           string    `json:"user_id" db:"user_id"`
	LocationID       string    `json:"location_id" db:"location_id"`
	VoteType         string    `json:"vote_type" db:"vote_type"`
	PredictionSource string    `json:"prediction_source" db:"prediction_source"`
	PredictedScore   float64   `json:"predicted_score" db:"predicted_score"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
