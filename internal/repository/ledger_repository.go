package repository

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// LedgerRepository handles the append-only safety alert ledger. The
// (session_id, review_id) primary key gives atomic append-if-not-exists,
// so concurrent deliveries of the same alert can never double-write.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// MarkHandled appends a ledger entry if none exists for the entry's
// (session_id, review_id). Returns true when the entry was newly written,
// false when the alert was already recorded.
func (r *LedgerRepository) MarkHandled(entry models.SafetyAlertHandled) (bool, error) {
	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO alert_ledger
			(session_id, review_id, handled_at, action, review_latitude, review_longitude, review_safety_rating)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.SessionID, entry.ReviewID, entry.HandledAt.UTC(), entry.Action,
		entry.ReviewLocation.Latitude, entry.ReviewLocation.Longitude, entry.ReviewSafetyRating)
	if err != nil {
		return false, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read ledger insert result: %w", err)
	}
	return n > 0, nil
}

// HandledReviewIDs returns the set of review IDs already handled within a
// session. The ledger is keyed by session, so the lookup spans every route
// plan the session has used.
func (r *LedgerRepository) HandledReviewIDs(sessionID string) (map[string]bool, error) {
	rows, err := r.db.Query(
		"SELECT review_id FROM alert_ledger WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	handled := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger review id: %w", err)
		}
		handled[id] = true
	}

	return handled, rows.Err()
}

// ListBySession returns a session's full ledger, oldest first.
func (r *LedgerRepository) ListBySession(sessionID string) ([]models.SafetyAlertHandled, error) {
	rows, err := r.db.Query(`
		SELECT session_id, review_id, handled_at, action, review_latitude, review_longitude, review_safety_rating
		FROM alert_ledger WHERE session_id = ?
		ORDER BY handled_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.SafetyAlertHandled
	for rows.Next() {
		var e models.SafetyAlertHandled
		if err := rows.Scan(&e.SessionID, &e.ReviewID, &e.HandledAt, &e.Action,
			&e.ReviewLocation.Latitude, &e.ReviewLocation.Longitude, &e.ReviewSafetyRating); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
