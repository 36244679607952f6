package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// SessionRepository persists navigation session records and the set of
// route plans each session has used.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session record and binds its first route.
func (r *SessionRepository) Create(rec models.NavigationSessionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin session create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO navigation_sessions (session_id, device_id, active_route_id, current_step_index, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.SessionID, rec.DeviceID, rec.ActiveRouteID, rec.CurrentStepIndex,
		string(rec.State), rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if rec.ActiveRouteID != "" {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO session_routes (session_id, route_id, created_at)
			VALUES (?, ?, ?)
		`, rec.SessionID, rec.ActiveRouteID, rec.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to bind session route: %w", err)
		}
	}

	return tx.Commit()
}

// Get returns a session record, or nil for unknown IDs.
func (r *SessionRepository) Get(sessionID string) (*models.NavigationSessionRecord, error) {
	var rec models.NavigationSessionRecord
	var state string
	var endedAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT session_id, device_id, active_route_id, current_step_index, state, created_at, ended_at
		FROM navigation_sessions WHERE session_id = ?
	`, sessionID).Scan(&rec.SessionID, &rec.DeviceID, &rec.ActiveRouteID,
		&rec.CurrentStepIndex, &state, &rec.CreatedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rec.State = models.SessionState(state)
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	return &rec, nil
}

// BindRoute records that a session switched to a new route plan and makes
// it the active route. The session ID is unchanged; this is what keeps
// alert dedup intact across reroutes.
func (r *SessionRepository) BindRoute(sessionID, routeID string, at time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin route bind: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR IGNORE INTO session_routes (session_id, route_id, created_at)
		VALUES (?, ?, ?)
	`, sessionID, routeID, at.UTC()); err != nil {
		return fmt.Errorf("failed to insert session route: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE navigation_sessions
		SET active_route_id = ?, current_step_index = 0
		WHERE session_id = ?
	`, routeID, sessionID); err != nil {
		return fmt.Errorf("failed to update active route: %w", err)
	}

	return tx.Commit()
}

// UpdateProgress persists the current step index.
func (r *SessionRepository) UpdateProgress(sessionID string, stepIndex int) error {
	if _, err := r.db.Exec(
		"UPDATE navigation_sessions SET current_step_index = ? WHERE session_id = ?",
		stepIndex, sessionID); err != nil {
		return fmt.Errorf("failed to update session progress: %w", err)
	}
	return nil
}

// SetState persists the session lifecycle state.
func (r *SessionRepository) SetState(sessionID string, state models.SessionState) error {
	if state == models.SessionEnded {
		if _, err := r.db.Exec(`
			UPDATE navigation_sessions SET state = ?, ended_at = ? WHERE session_id = ?
		`, string(state), time.Now().UTC(), sessionID); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
		return nil
	}

	if _, err := r.db.Exec(
		"UPDATE navigation_sessions SET state = ? WHERE session_id = ?",
		string(state), sessionID); err != nil {
		return fmt.Errorf("failed to update session state: %w", err)
	}
	return nil
}

// RouteIDs returns every route plan ID the session has used, oldest first.
func (r *SessionRepository) RouteIDs(sessionID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT route_id FROM session_routes WHERE session_id = ? ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session routes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan route id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
