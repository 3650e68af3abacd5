// Package repositories provides persistence layer implementations for all model types.
//
// Repositories wrap a SQLite connection and handle schema migration, playlist
// storage with track listings, download history, and TTL-based lookup caching.
//
// Storage layout:
//   - playlists / playlist_tracks : converted playlists and their matched tracks
//   - history : one row per completed download
//   - cache : external lookup responses keyed by request signature
package repositories
