package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sundazed/mymusic/internal/shared"
)

// memCache is an in-memory Cache for tests.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	return value, ok, nil
}

func (c *memCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

const searchPayload = `{
	"tracks": {
		"total": 1,
		"items": [{
			"id": "3BQHpFgAp4l80e1XslIjNI",
			"name": "Yesterday",
			"artists": [{"id": "a1", "name": "The Beatles"}],
			"album": {"id": "b1", "name": "Help!", "images": [{"url": "https://img/cover.jpg", "height": 640, "width": 640}]},
			"duration_ms": 125000,
			"external_ids": {"isrc": "GBAYE0601498"},
			"popularity": 80
		}]
	}
}`

const emptyPayload = `{"tracks": {"total": 0, "items": []}}`

func newTestSpotify(t *testing.T, handler http.HandlerFunc, cache Cache) (*SpotifyService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := &SpotifyService{
		httpClient: server.Client(),
		baseURL:    server.URL,
		cache:      cache,
	}
	return svc, server
}

func TestSpotifyService(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		if _, err := NewSpotifyService(context.Background(), "", "secret", nil); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if _, err := NewSpotifyService(context.Background(), "id", "", nil); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("SearchTrack", func(t *testing.T) {
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("type") != "track" {
				t.Errorf("expected track search, got query %q", r.URL.RawQuery)
			}
			w.Write([]byte(searchPayload))
		}, nil)

		info, err := svc.SearchTrack(context.Background(), "Yesterday", "The Beatles")
		if err != nil {
			t.Fatalf("SearchTrack() error = %v", err)
		}
		if info.Artist != "The Beatles" || info.ISRC != "GBAYE0601498" {
			t.Errorf("unexpected track info %+v", info)
		}
		if info.Duration != 125.0 {
			t.Errorf("expected 125s duration, got %v", info.Duration)
		}
		if info.AlbumArt != "https://img/cover.jpg" {
			t.Errorf("expected album art, got %q", info.AlbumArt)
		}
	})

	t.Run("Broad Fallback", func(t *testing.T) {
		var queries []string
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query().Get("q")
			queries = append(queries, q)
			if len(queries) == 1 {
				w.Write([]byte(emptyPayload))
				return
			}
			w.Write([]byte(searchPayload))
		}, nil)

		if _, err := svc.SearchTrack(context.Background(), "Yesterday", "The Beatles"); err != nil {
			t.Fatalf("SearchTrack() error = %v", err)
		}
		if len(queries) != 2 {
			t.Fatalf("expected qualified query then broad fallback, got %v", queries)
		}
		if queries[1] != "Yesterday The Beatles" {
			t.Errorf("unexpected fallback query %q", queries[1])
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyPayload))
		}, nil)

		if _, err := svc.SearchTrack(context.Background(), "Nothing", "Nobody"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, nil)

		if _, err := svc.SearchTrack(context.Background(), "Yesterday", ""); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Cached Result Skips HTTP", func(t *testing.T) {
		calls := 0
		cache := newMemCache()
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(searchPayload))
		}, cache)

		for i := 0; i < 2; i++ {
			if _, err := svc.SearchTrack(context.Background(), "Yesterday", "The Beatles"); err != nil {
				t.Fatalf("SearchTrack() error = %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 HTTP call with warm cache, got %d", calls)
		}
	})

	t.Run("ArtistGenres", func(t *testing.T) {
		calls := 0
		cache := newMemCache()
		svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.URL.Path != "/artists/a1" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			w.Write([]byte(`{"id": "a1", "name": "The Beatles", "genres": ["rock", "british invasion"]}`))
		}, cache)

		for i := 0; i < 2; i++ {
			genres, err := svc.ArtistGenres(context.Background(), "a1")
			if err != nil {
				t.Fatalf("ArtistGenres() error = %v", err)
			}
			if len(genres) != 2 || genres[0] != "rock" {
				t.Errorf("unexpected genres %v", genres)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 HTTP call with warm cache, got %d", calls)
		}

		if _, err := svc.ArtistGenres(context.Background(), ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

const lrclibRecordJSON = `{
	"id": 42,
	"trackName": "Yesterday",
	"artistName": "The Beatles",
	"albumName": "Help!",
	"duration": 125,
	"instrumental": false,
	"plainLyrics": "Yesterday, all my troubles seemed so far away",
	"syncedLyrics": "[00:05.00] Yesterday, all my troubles seemed so far away"
}`

func newTestLyrics(t *testing.T, handler http.HandlerFunc, cache Cache) *LyricsService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewLyricsService(cache)
	svc.httpClient = server.Client()
	svc.baseURL = server.URL
	return svc
}

func TestLyricsService(t *testing.T) {
	t.Run("Exact Lookup", func(t *testing.T) {
		svc := newTestLyrics(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/get" {
				t.Errorf("expected /get, got %s", r.URL.Path)
			}
			if ua := r.Header.Get("User-Agent"); ua != lyricsUA {
				t.Errorf("unexpected user agent %q", ua)
			}
			if d := r.URL.Query().Get("duration"); d != "125" {
				t.Errorf("expected integer duration, got %q", d)
			}
			w.Write([]byte(lrclibRecordJSON))
		}, nil)

		lyrics, err := svc.Lookup(context.Background(), "Yesterday", "The Beatles", "Help!", 125.4)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if lyrics.Plain == "" || lyrics.Synced == "" {
			t.Errorf("expected plain and synced lyrics, got %+v", lyrics)
		}
	})

	t.Run("Search Fallback", func(t *testing.T) {
		var paths []string
		svc := newTestLyrics(t, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/get" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("[" + lrclibRecordJSON + "]"))
		}, nil)

		lyrics, err := svc.Lookup(context.Background(), "Yesterday", "The Beatles", "", 0)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if len(paths) != 2 || paths[1] != "/search" {
			t.Errorf("expected get then search, got %v", paths)
		}
		if lyrics.Artist != "The Beatles" {
			t.Errorf("unexpected lyrics %+v", lyrics)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		svc := newTestLyrics(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/get" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("[]"))
		}, nil)

		if _, err := svc.Lookup(context.Background(), "Nothing", "Nobody", "", 0); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("expected ErrLyricsNotFound, got %v", err)
		}
	})

	t.Run("Cached Result Skips HTTP", func(t *testing.T) {
		calls := 0
		cache := newMemCache()
		svc := newTestLyrics(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(lrclibRecordJSON))
		}, cache)

		for i := 0; i < 2; i++ {
			if _, err := svc.Lookup(context.Background(), "Yesterday", "The Beatles", "", 0); err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 HTTP call with warm cache, got %d", calls)
		}
	})
}
