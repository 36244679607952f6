package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// VoteRepository handles prediction accuracy votes. Vote semantics: a
// second vote of the same type toggles it off; a vote of the opposite type
// switches it, decrementing the old counter and incrementing the new one
// in the same transaction.
type VoteRepository struct {
	db *sql.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Cast records a vote and returns the resulting action: added, removed, or
// switched.
func (r *VoteRepository) Cast(vote models.PredictionVote) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin vote transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(
		"SELECT vote_type FROM prediction_votes WHERE user_id = ? AND location_id = ?",
		vote.UserID, vote.LocationID,
	).Scan(&existing)

	var action string
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.Exec(`
			INSERT INTO prediction_votes (user_id, location_id, vote_type, prediction_source, predicted_score, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, vote.UserID, vote.LocationID, vote.VoteType, vote.PredictionSource,
			vote.PredictedScore, time.Now().UTC()); err != nil {
			return "", fmt.Errorf("failed to insert vote: %w", err)
		}
		if err := adjustVoteCounter(tx, vote.LocationID, vote.VoteType, +1); err != nil {
			return "", err
		}
		action = models.VoteActionAdded

	case err != nil:
		return "", fmt.Errorf("failed to read existing vote: %w", err)

	case existing == vote.VoteType:
		if _, err := tx.Exec(
			"DELETE FROM prediction_votes WHERE user_id = ? AND location_id = ?",
			vote.UserID, vote.LocationID); err != nil {
			return "", fmt.Errorf("failed to remove vote: %w", err)
		}
		if err := adjustVoteCounter(tx, vote.LocationID, existing, -1); err != nil {
			return "", err
		}
		action = models.VoteActionRemoved

	default:
		if _, err := tx.Exec(`
			UPDATE prediction_votes
			SET vote_type = ?, prediction_source = ?, predicted_score = ?, created_at = ?
			WHERE user_id = ? AND location_id = ?
		`, vote.VoteType, vote.PredictionSource, vote.PredictedScore, time.Now().UTC(),
			vote.UserID, vote.LocationID); err != nil {
			return "", fmt.Errorf("failed to switch vote: %w", err)
		}
		if err := adjustVoteCounter(tx, vote.LocationID, existing, -1); err != nil {
			return "", err
		}
		if err := adjustVoteCounter(tx, vote.LocationID, vote.VoteType, +1); err != nil {
			return "", err
		}
		action = models.VoteActionSwitched
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit vote: %w", err)
	}
	return action, nil
}

// Counts returns the accurate/inaccurate counters for a location.
func (r *VoteRepository) Counts(locationID string) (accurate, inaccurate int, err error) {
	err = r.db.QueryRow(
		"SELECT accurate_votes, inaccurate_votes FROM locations WHERE id = ?",
		locationID,
	).Scan(&accurate, &inaccurate)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read vote counts: %w", err)
	}
	return accurate, inaccurate, nil
}

func adjustVoteCounter(tx *sql.Tx, locationID, voteType string, delta int) error {
	column := "accurate_votes"
	if voteType == models.VoteInaccurate {
		column = "inaccurate_votes"
	}

	query := fmt.Sprintf(
		"UPDATE locations SET %s = MAX(0, %s + ?) WHERE id = ?", column, column)
	if _, err := tx.Exec(query, delta, locationID); err != nil {
		return fmt.Errorf("failed to adjust %s: %w", column, err)
	}
	return nil
}
