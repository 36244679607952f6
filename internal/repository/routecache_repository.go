package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// RouteCacheRepository persists cached routing oracle responses. The cache
// is shared across sessions and keyed by (origin, destination,
// avoidance-hint hash); rows expire on a TTL.
type RouteCacheRepository struct {
	db *sql.DB
}

// NewRouteCacheRepository creates a new route cache repository
func NewRouteCacheRepository(db *sql.DB) *RouteCacheRepository {
	return &RouteCacheRepository{db: db}
}

// Get returns the cached payload for key, or "" when absent or expired.
func (r *RouteCacheRepository) Get(key string, now time.Time) (string, error) {
	var payload string
	err := r.db.QueryRow(
		"SELECT payload FROM route_cache WHERE cache_key = ? AND expires_at > ?",
		key, now.UTC(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read route cache: %w", err)
	}
	return payload, nil
}

// Put stores a payload under key with the given TTL, replacing any
// previous entry.
func (r *RouteCacheRepository) Put(key, payload string, ttl time.Duration, now time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO route_cache (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at
	`, key, payload, now.Add(ttl).UTC())
	if err != nil {
		return fmt.Errorf("failed to write route cache: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were deleted.
func (r *RouteCacheRepository) PurgeExpired(now time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM route_cache WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge route cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}
	return n, nil
}
