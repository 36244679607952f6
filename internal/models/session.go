package models

import "time"

// SessionState is the navigation session lifecycle state.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionActive    SessionState = "active"
	SessionRerouting SessionState = "rerouting"
	SessionEnded     SessionState = "ended"
)

// NavigationSessionRecord is the persisted view of a navigation session.
// The session ID is generated once and survives every reroute within the
// same trip, which is what lets alert dedup span route replacements.
type NavigationSessionRecord struct {
	SessionID        string       `json:"session_id" db:"session_id"`
	DeviceID         string       `json:"device_id" db:"device_id"`
	ActiveRouteID    string       `json:"active_route_id" db:"active_route_id"`
	CurrentStepIndex int          `json:"current_step_index" db:"current_step_index"`
	State            SessionState `json:"state" db:"state"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	EndedAt          *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
}
