package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration represents a versioned schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, embedded schema history. Append only.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "locations_and_scores",
		SQL: `
			CREATE TABLE IF NOT EXISTS locations (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				place_type TEXT NOT NULL DEFAULT '',
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				accurate_votes INTEGER NOT NULL DEFAULT 0,
				inaccurate_votes INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_locations_lat_lon ON locations(latitude, longitude);

			CREATE TABLE IF NOT EXISTS safety_scores (
				location_id TEXT NOT NULL,
				demographic_type TEXT NOT NULL,
				demographic_value TEXT NOT NULL DEFAULT '',
				avg_overall_score REAL NOT NULL,
				review_count INTEGER NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (location_id, demographic_type, demographic_value)
			);

			CREATE TABLE IF NOT EXISTS area_stats (
				location_id TEXT PRIMARY KEY,
				crime_index REAL NOT NULL,
				diversity_index REAL NOT NULL DEFAULT 0,
				data_point_count INTEGER NOT NULL DEFAULT 0
			);
		`,
	},
	{
		Version: 2,
		Name:    "reviews",
		SQL: `
			CREATE TABLE IF NOT EXISTS reviews (
				id TEXT PRIMARY KEY,
				location_id TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				safety_rating REAL NOT NULL,
				demographic_tags TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_reviews_location ON reviews(location_id);
			CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at);
		`,
	},
	{
		Version: 3,
		Name:    "sessions_and_routes",
		SQL: `
			CREATE TABLE IF NOT EXISTS navigation_sessions (
				session_id TEXT PRIMARY KEY,
				device_id TEXT NOT NULL,
				active_route_id TEXT NOT NULL DEFAULT '',
				current_step_index INTEGER NOT NULL DEFAULT 0,
				state TEXT NOT NULL DEFAULT 'active',
				created_at TIMESTAMP NOT NULL,
				ended_at TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_device ON navigation_sessions(device_id);

			CREATE TABLE IF NOT EXISTS session_routes (
				session_id TEXT NOT NULL,
				route_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (session_id, route_id)
			);
		`,
	},
	{
		Version: 4,
		Name:    "alert_ledger",
		SQL: `
			CREATE TABLE IF NOT EXISTS alert_ledger (
				session_id TEXT NOT NULL,
				review_id TEXT NOT NULL,
				handled_at TIMESTAMP NOT NULL,
				action TEXT NOT NULL,
				review_latitude REAL NOT NULL,
				review_longitude REAL NOT NULL,
				review_safety_rating REAL NOT NULL,
				PRIMARY KEY (session_id, review_id)
			);
		`,
	},
	{
		Version: 5,
		Name:    "route_cache_and_votes",
		SQL: `
			CREATE TABLE IF NOT EXISTS route_cache (
				cache_key TEXT PRIMARY KEY,
				payload TEXT NOT NULL,
				expires_at TIMESTAMP NOT NULL
			);

			CREATE TABLE IF NOT EXISTS prediction_votes (
				user_id TEXT NOT NULL,
				location_id TEXT NOT NULL,
				vote_type TEXT NOT NULL,
				prediction_source TEXT NOT NULL DEFAULT '',
				predicted_score REAL NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, location_id)
			);
		`,
	},
	{
		Version: 6,
		Name:    "scores_low_confidence",
		SQL: `
			ALTER TABLE safety_scores ADD COLUMN low_confidence INTEGER NOT NULL DEFAULT 0;
		`,
	},
}

// Migrate applies any pending migrations to the given database.
func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if _, err := conn.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := conn.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		zap.L().Info("applied migration", zap.Int("version", m.Version), zap.String("name", m.Name))
	}

	return nil
}

func appliedVersions(conn *sql.DB) (map[int]bool, error) {
	rows, err := conn.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}
