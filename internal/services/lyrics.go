package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sundazed/mymusic/internal/shared"
)

const (
	lrclibBaseURL = "https://lrclib.net/api"
	lyricsUA      = "mymusic/1.0 (https://github.com/sundazed/mymusic)"

	lyricsCacheTTL = 7 * 24 * time.Hour
)

type lrclibRecord struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LyricsService fetches lyrics from the LRCLIB public API.
type LyricsService struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
}

// NewLyricsService creates a LRCLIB client. A nil cache disables caching.
func NewLyricsService(cache Cache) *LyricsService {
	return &LyricsService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    lrclibBaseURL,
		cache:      cache,
	}
}

// Lookup fetches lyrics for a track. The exact signature endpoint is tried
// first when a duration is known; the fuzzy search endpoint is the fallback.
// Returns shared.ErrLyricsNotFound when neither yields a record.
func (s *LyricsService) Lookup(ctx context.Context, title, artist, album string, durationSeconds float64) (*Lyrics, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}

	cacheKey := "lyrics:" + title + "|" + artist
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(cacheKey); err == nil && ok {
			var lyrics Lyrics
			if err := json.Unmarshal(cached, &lyrics); err == nil {
				return &lyrics, nil
			}
		}
	}

	record, err := s.get(ctx, title, artist, album, durationSeconds)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record, err = s.searchFallback(ctx, title, artist)
		if err != nil {
			return nil, err
		}
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s - %s", shared.ErrLyricsNotFound, artist, title)
	}

	lyrics := &Lyrics{
		Title:        record.TrackName,
		Artist:       record.ArtistName,
		Plain:        record.PlainLyrics,
		Synced:       record.SyncedLyrics,
		Instrumental: record.Instrumental,
	}
	if s.cache != nil {
		if data, err := json.Marshal(lyrics); err == nil {
			_ = s.cache.Set(cacheKey, data, lyricsCacheTTL)
		}
	}

	return lyrics, nil
}

// get queries the exact-signature endpoint. A 404 is a miss, not an error.
func (s *LyricsService) get(ctx context.Context, title, artist, album string, durationSeconds float64) (*lrclibRecord, error) {
	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)
	if album != "" {
		params.Set("album_name", album)
	}
	if durationSeconds > 0 {
		params.Set("duration", strconv.Itoa(int(durationSeconds)))
	}

	var record lrclibRecord
	found, err := s.doRequest(ctx, "/get?"+params.Encode(), &record)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

// searchFallback queries the fuzzy search endpoint and takes the first hit.
func (s *LyricsService) searchFallback(ctx context.Context, title, artist string) (*lrclibRecord, error) {
	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}

	var records []lrclibRecord
	found, err := s.doRequest(ctx, "/search?"+params.Encode(), &records)
	if err != nil || !found || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func (s *LyricsService) doRequest(ctx context.Context, endpoint string, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", lyricsUA)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: lrclib returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}
