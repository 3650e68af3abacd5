package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/shared"
)

// PlaylistRepository persists converted playlists with their track listings.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a playlist and its tracks in one transaction with generated IDs.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.ID = shared.GenerateID()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO playlists (id, name, track_count, matched_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, playlist.ID, playlist.Name, playlist.TrackCount, playlist.MatchedCount, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	for i := range playlist.Tracks {
		track := &playlist.Tracks[i]
		if err := track.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		track.ID = shared.GenerateID()
		track.PlaylistID = playlist.ID

		_, err = tx.Exec(`
			INSERT INTO playlist_tracks (id, playlist_id, track_number, title, artist, album, duration_seconds, url, thumbnail_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, track.ID, track.PlaylistID, track.TrackNumber, track.Title, track.Artist, track.Album, track.DurationSeconds, track.URL, track.ThumbnailURL)
		if err != nil {
			return fmt.Errorf("failed to insert track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID including its track listing.
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	playlist := &models.Playlist{}
	err := r.db.QueryRow(`
		SELECT id, name, track_count, matched_count, created_at, updated_at
		FROM playlists
		WHERE id = ?
	`, id).Scan(&playlist.ID, &playlist.Name, &playlist.TrackCount, &playlist.MatchedCount, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT id, playlist_id, track_number, title, artist, album, duration_seconds, url, thumbnail_url
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY track_number ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track models.Track
		err := rows.Scan(&track.ID, &track.PlaylistID, &track.TrackNumber, &track.Title, &track.Artist, &track.Album, &track.DurationSeconds, &track.URL, &track.ThumbnailURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		playlist.Tracks = append(playlist.Tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlist, nil
}

// GetByName retrieves the most recently created playlist with the given name.
func (r *PlaylistRepository) GetByName(name string) (*models.Playlist, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM playlists
		WHERE name = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist: %w", err)
	}
	return r.Get(id)
}

// Delete removes a playlist and, via cascade, its tracks.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}

// List retrieves playlist summaries, newest first.
func (r *PlaylistRepository) List() ([]models.PlaylistSummary, error) {
	rows, err := r.db.Query(`
		SELECT id, name, track_count, matched_count, created_at
		FROM playlists
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var summaries []models.PlaylistSummary
	for rows.Next() {
		var s models.PlaylistSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.TrackCount, &s.MatchedCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return summaries, nil
}
