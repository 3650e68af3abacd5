// Package models defines domain entities and persistence interfaces for the music library manager.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs for listing and reporting
//   - [PlaylistSummary] : Playlist metadata without its track listing
//   - [ArtistCount] : Download-count aggregation per artist
//
// 2. Persistent Entities: Database-backed records
//   - [Playlist] : A converted playlist with match statistics
//   - [Track] : A matched track belonging to a playlist
//   - [HistoryEntry] : One completed download
//   - [CacheEntry] : A cached external lookup with expiry
//
// Persistent entities implement the Model interface providing validation.
// The Repository[T] interface defines standard operations for database access.
package models
