package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/shared"
)

// HistoryRepository records completed downloads for the history views.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Add records a completed download with a generated ID and timestamp.
func (r *HistoryRepository) Add(entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	entry.ID = shared.GenerateID()
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO history (id, title, artist, album, url, file_path, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Title, entry.Artist, entry.Album, entry.URL, entry.FilePath, entry.DownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Recent retrieves the most recent downloads, newest first.
func (r *HistoryRepository) Recent(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 25
	}

	rows, err := r.db.Query(`
		SELECT id, title, artist, album, url, file_path, downloaded_at
		FROM history
		ORDER BY downloaded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// TopArtists aggregates download counts per artist, most downloaded first.
func (r *HistoryRepository) TopArtists(limit int) ([]models.ArtistCount, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT artist, COUNT(*) AS n
		FROM history
		WHERE artist != ''
		GROUP BY artist
		ORDER BY n DESC, artist ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query artist counts: %w", err)
	}
	defer rows.Close()

	var counts []models.ArtistCount
	for rows.Next() {
		var c models.ArtistCount
		if err := rows.Scan(&c.Artist, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan artist count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

func scanHistory(rows *sql.Rows) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		err := rows.Scan(&e.ID, &e.Title, &e.Artist, &e.Album, &e.URL, &e.FilePath, &e.DownloadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}
