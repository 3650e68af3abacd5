// Package services implements external metadata lookups that enrich matched tracks.
//
// # Spotify Implementation
//
// [SpotifyService] uses the OAuth2 client-credentials flow, which covers public
// catalog search without user login. Track lookups run a field-qualified query
// first (track: / artist:) and fall back to a broad free-text query when the
// qualified search returns nothing.
//
// # Lyrics Implementation
//
// [LyricsService] queries the LRCLIB public API. An exact signature lookup
// (title, artist, album, duration) is tried first; a fuzzy search is the
// fallback.
//
// Both services cache responses through the [Cache] interface, satisfied by
// repositories.CacheRepository, so repeated conversions of the same playlist
// avoid refetching.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingConfig] : credentials absent
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrTrackNotFound] : no catalog match for the query
//   - [shared.ErrLyricsNotFound] : no lyrics for the track signature
package services
