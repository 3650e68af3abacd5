// package models defines the data model for the music library manager
package models

import (
	"fmt"
	"time"

	"github.com/sundazed/mymusic/internal/match"
)

// Model defines the base interface for all persistent models.
// Implementations include Playlist, Track, HistoryEntry, etc.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error     // Create inserts a new model into the database
	Get(id string) (T, error) // Get retrieves a model by its ID
	Delete(id string) error   // Delete removes a model from the database by its ID
	List() ([]T, error)       // List retrieves all stored models
}

// Playlist is a converted playlist persisted with its match statistics.
type Playlist struct {
	ID           string
	Name         string
	TrackCount   int // rows in the source file
	MatchedCount int // rows that produced an accepted candidate
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Tracks []Track
}

// Validate checks playlist invariants before persistence.
func (p *Playlist) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	if p.MatchedCount > p.TrackCount {
		return fmt.Errorf("matched count %d exceeds track count %d", p.MatchedCount, p.TrackCount)
	}
	return nil
}

// Track is a matched track belonging to a playlist.
type Track struct {
	ID              string
	PlaylistID      string
	TrackNumber     int
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	URL             string
	ThumbnailURL    string
}

// Validate checks track invariants before persistence.
func (t *Track) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.URL == "" {
		return fmt.Errorf("track URL is required")
	}
	return nil
}

// HistoryEntry records one completed download.
type HistoryEntry struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	URL          string
	FilePath     string
	DownloadedAt time.Time
}

// Validate checks history invariants before persistence.
func (h *HistoryEntry) Validate() error {
	if h.Title == "" {
		return fmt.Errorf("history title is required")
	}
	return nil
}

// CacheEntry is a cached external lookup keyed by request signature.
type CacheEntry struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// Validate checks cache invariants before persistence.
func (c *CacheEntry) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("cache key is required")
	}
	return nil
}

// Expired reports whether the entry is past its expiry.
func (c *CacheEntry) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// PlaylistSummary is a listing DTO: playlist metadata without tracks.
type PlaylistSummary struct {
	ID           string
	Name         string
	TrackCount   int
	MatchedCount int
	CreatedAt    time.Time
}

// ArtistCount aggregates download history per artist.
type ArtistCount struct {
	Artist string
	Count  int
}

// PlaylistFromResult converts a conversion result into a persistable playlist.
// Only matched tracks are stored; unmatched rows live in the result exports.
func PlaylistFromResult(name string, result *match.Result) *Playlist {
	playlist := &Playlist{
		Name:         name,
		TrackCount:   result.Total,
		MatchedCount: result.SuccessCount,
		Tracks:       make([]Track, 0, len(result.Tracks)),
	}
	for _, found := range result.Tracks {
		playlist.Tracks = append(playlist.Tracks, Track{
			TrackNumber:     found.TrackNumber,
			Title:           found.Title,
			Artist:          found.Artist,
			Album:           found.Album,
			DurationSeconds: found.DurationSeconds,
			URL:             found.URL,
			ThumbnailURL:    found.ThumbnailURL,
		})
	}
	return playlist
}
