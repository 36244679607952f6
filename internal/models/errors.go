package models

import "errors"

// Domain sentinel errors. Wrapped with eris at layer boundaries; matched
// with errors.Is at the API edge.
var (
	// ErrInsufficientData is returned only when a required overall slice
	// has zero reviews and no area-statistics fallback exists.
	ErrInsufficientData = errors.New("insufficient safety data")

	// ErrInvalidSessionState rejects operations on a session in the wrong
	// lifecycle state, such as advancing an ended session.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRouteUnavailable is returned when the routing oracle yields no
	// usable route after retries.
	ErrRouteUnavailable = errors.New("no route available")

	// ErrPositionUnavailable is returned when a session cannot open its
	// position stream. Fatal to starting the session, not to the app.
	ErrPositionUnavailable = errors.New("position stream unavailable")
)
