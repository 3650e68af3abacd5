package repositories

import (
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		track_count INTEGER NOT NULL DEFAULT 0,
		matched_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_tracks (
		id TEXT PRIMARY KEY,
		playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		track_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		artist TEXT,
		album TEXT,
		duration_seconds REAL,
		url TEXT NOT NULL,
		thumbnail_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist
		ON playlist_tracks(playlist_id, track_number)`,
	`CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT,
		album TEXT,
		url TEXT,
		file_path TEXT,
		downloaded_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_downloaded_at
		ON history(downloaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the schema when absent. Statements are idempotent so the
// migration runs unconditionally at startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
