// package services implements clients for external metadata APIs
//
// Spotify (catalog search), LRCLIB (lyrics)
package services

import "time"

// Cache stores raw API responses keyed by request signature.
// repositories.CacheRepository satisfies it; a nil Cache disables caching.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// TrackInfo is catalog metadata for a matched track.
type TrackInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	ArtistID   string  `json:"artist_id,omitempty"`
	Album      string  `json:"album"`
	Duration   float64 `json:"duration_seconds"`
	ISRC       string  `json:"isrc,omitempty"`
	AlbumArt   string  `json:"album_art,omitempty"`
	Popularity int     `json:"popularity,omitempty"`
}

// Lyrics holds plain and synced lyrics for a track.
type Lyrics struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Plain        string `json:"plain"`
	Synced       string `json:"synced,omitempty"`
	Instrumental bool   `json:"instrumental"`
}
