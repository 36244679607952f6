package models

import "time"

// Alert ledger actions.
const (
	AlertActionRerouteAttempted = "reroute_attempted"
	AlertActionUserContinued    = "user_continued"
)

// SafetyAlertHandled is an append-only ledger entry recording that a safety
// alert for a review has been shown and decided within a session. Entries
// are written once per (session_id, review_id) and never edited or deleted.
type SafetyAlertHandled struct {
	SessionID          string     `json:"session_id" db:"session_id"`
	ReviewID           string     `json:"review_id" db:"review_id"`
	HandledAt          time.Time  `json:"handled_at" db:"handled_at"`
	Action             string     `json:"action" db:"action"`
	ReviewLocation     Coordinate `json:"review_location"`
	ReviewSafetyRating float64    `json:"review_safety_rating" db:"review_safety_rating"`
}

// AlertPrompt is a pending safety alert surfaced to the navigation UI.
type AlertPrompt struct {
	ReviewID     string     `json:"review_id"`
	Location     Coordinate `json:"location"`
	SafetyRating float64    `json:"safety_rating"`
	Message      string     `json:"message"`
}
