// Spotify catalog client using the client-credentials grant.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sundazed/mymusic/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyCacheTTL = 24 * time.Hour
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService looks up catalog metadata for matched tracks.
// The client-credentials grant covers public search; no user login is needed.
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
}

// NewSpotifyService creates a Spotify client from the given credentials.
// Token acquisition and refresh are handled by the [clientcredentials] client.
func NewSpotifyService(ctx context.Context, clientID, clientSecret string, cache Cache) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingConfig)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		httpClient: config.Client(ctx),
		baseURL:    spotifyBaseURL,
		cache:      cache,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchTrack finds the best catalog match for a title/artist pair. A
// field-qualified query runs first; when it returns nothing and an artist was
// given, a broad free-text query is retried before reporting ErrTrackNotFound.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*TrackInfo, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}

	cacheKey := "spotify:" + title + "|" + artist
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(cacheKey); err == nil && ok {
			var info TrackInfo
			if err := json.Unmarshal(cached, &info); err == nil {
				return &info, nil
			}
		}
	}

	query := fmt.Sprintf("track:%q", title)
	if artist != "" {
		query += fmt.Sprintf(" artist:%q", artist)
	}

	track, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if track == nil && artist != "" {
		track, err = s.search(ctx, title+" "+artist)
		if err != nil {
			return nil, err
		}
	}
	if track == nil {
		return nil, fmt.Errorf("%w: %s - %s", shared.ErrTrackNotFound, artist, title)
	}

	info := trackToInfo(track)
	if s.cache != nil {
		if data, err := json.Marshal(info); err == nil {
			// Cache failures never fail the lookup.
			_ = s.cache.Set(cacheKey, data, spotifyCacheTTL)
		}
	}

	return info, nil
}

type spotifyArtistResponse struct {
	Genres []string `json:"genres"`
}

// ArtistGenres fetches the genre tags for an artist by Spotify ID.
func (s *SpotifyService) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	if artistID == "" {
		return nil, fmt.Errorf("%w: artist id is required", shared.ErrInvalidInput)
	}

	cacheKey := "spotify:genres:" + artistID
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(cacheKey); err == nil && ok {
			var genres []string
			if err := json.Unmarshal(cached, &genres); err == nil {
				return genres, nil
			}
		}
	}

	endpoint := fmt.Sprintf("%s/artists/%s", s.baseURL, url.PathEscape(artistID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: spotify artist lookup returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result spotifyArtistResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(result.Genres); err == nil {
			_ = s.cache.Set(cacheKey, data, spotifyCacheTTL)
		}
	}

	return result.Genres, nil
}

// search runs one catalog query and returns the first track hit, or nil.
func (s *SpotifyService) search(ctx context.Context, query string) (*SpotifyTrack, error) {
	endpoint := fmt.Sprintf("%s/search?type=track&limit=1&q=%s", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: spotify search returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Tracks.Items) == 0 {
		return nil, nil
	}
	return &result.Tracks.Items[0], nil
}

func trackToInfo(track *SpotifyTrack) *TrackInfo {
	info := &TrackInfo{
		ID:         track.ID,
		Title:      track.Name,
		Album:      track.Album.Name,
		Duration:   float64(track.DurationMS) / 1000.0,
		ISRC:       track.ExternalIDs.ISRC,
		Popularity: track.Popularity,
	}
	if len(track.Artists) > 0 {
		info.Artist = track.Artists[0].Name
		info.ArtistID = track.Artists[0].ID
	}
	if len(track.Album.Images) > 0 {
		info.AlbumArt = track.Album.Images[0].URL
	}
	return info
}
