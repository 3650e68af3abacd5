package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with the schema applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testPlaylist() *models.Playlist {
	return &models.Playlist{
		Name:         "Road Trip",
		TrackCount:   3,
		MatchedCount: 2,
		Tracks: []models.Track{
			{TrackNumber: 1, Title: "Yesterday", Artist: "The Beatles", Album: "Help!", DurationSeconds: 125, URL: "https://youtube.com/watch?v=a"},
			{TrackNumber: 2, Title: "Hey Jude", Artist: "The Beatles", Album: "Singles", DurationSeconds: 431, URL: "https://youtube.com/watch?v=b"},
		},
	}
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist()
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if playlist.ID == "" {
			t.Error("playlist ID should be set after creation")
		}
		for _, track := range playlist.Tracks {
			if track.ID == "" || track.PlaylistID != playlist.ID {
				t.Errorf("track not linked to playlist: %+v", track)
			}
		}
	})

	t.Run("CreateRejectsInvalid", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Create(&models.Playlist{}); err == nil {
			t.Error("expected validation error for unnamed playlist")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist()
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.Get(playlist.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.Name != "Road Trip" || got.MatchedCount != 2 {
			t.Errorf("unexpected playlist %+v", got)
		}
		if len(got.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(got.Tracks))
		}
		if got.Tracks[0].Title != "Yesterday" || got.Tracks[1].TrackNumber != 2 {
			t.Errorf("tracks out of order: %+v", got.Tracks)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist()
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.GetByName("Road Trip")
		if err != nil {
			t.Fatalf("failed to get playlist by name: %v", err)
		}
		if got.ID != playlist.ID {
			t.Errorf("expected playlist %s, got %s", playlist.ID, got.ID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist()
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := repo.Delete(playlist.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		// Cascade removes the tracks.
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?", playlist.ID).Scan(&count); err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if count != 0 {
			t.Errorf("expected cascade delete, found %d tracks", count)
		}

		if err := repo.Delete(playlist.ID); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound on repeat delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		first := testPlaylist()
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		second := &models.Playlist{Name: "Workout", TrackCount: 1}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		summaries, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(summaries))
		}
		for _, s := range summaries {
			if s.Name == "Road Trip" && s.TrackCount != 3 {
				t.Errorf("unexpected summary %+v", s)
			}
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	t.Run("AddAndRecent", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		older := &models.HistoryEntry{Title: "Yesterday", Artist: "The Beatles", DownloadedAt: time.Now().Add(-time.Hour)}
		newer := &models.HistoryEntry{Title: "Hey Jude", Artist: "The Beatles"}
		for _, e := range []*models.HistoryEntry{older, newer} {
			if err := repo.Add(e); err != nil {
				t.Fatalf("failed to add history entry: %v", err)
			}
		}

		entries, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Title != "Hey Jude" {
			t.Errorf("expected newest first, got %q", entries[0].Title)
		}
	})

	t.Run("RecentLimit", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		for i := 0; i < 5; i++ {
			if err := repo.Add(&models.HistoryEntry{Title: "Song", Artist: "Band"}); err != nil {
				t.Fatalf("failed to add history entry: %v", err)
			}
		}

		entries, err := repo.Recent(3)
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(entries) != 3 {
			t.Errorf("expected limit of 3, got %d", len(entries))
		}
	})

	t.Run("TopArtists", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		for _, artist := range []string{"Queen", "Queen", "The Beatles", ""} {
			if err := repo.Add(&models.HistoryEntry{Title: "Song", Artist: artist}); err != nil {
				t.Fatalf("failed to add history entry: %v", err)
			}
		}

		counts, err := repo.TopArtists(10)
		if err != nil {
			t.Fatalf("failed to aggregate artists: %v", err)
		}
		if len(counts) != 2 {
			t.Fatalf("expected 2 artists (blank excluded), got %d", len(counts))
		}
		if counts[0].Artist != "Queen" || counts[0].Count != 2 {
			t.Errorf("unexpected top artist %+v", counts[0])
		}
	})
}

func TestCacheRepository(t *testing.T) {
	t.Run("SetAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCacheRepository(db)

		if err := repo.Set("spotify:yesterday", []byte(`{"id":"x"}`), time.Hour); err != nil {
			t.Fatalf("failed to set cache: %v", err)
		}

		value, ok, err := repo.Get("spotify:yesterday")
		if err != nil {
			t.Fatalf("failed to get cache: %v", err)
		}
		if !ok || string(value) != `{"id":"x"}` {
			t.Errorf("unexpected cache hit %v %q", ok, value)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCacheRepository(db)

		if _, ok, err := repo.Get("absent"); err != nil || ok {
			t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("ExpiredEntryIsMiss", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCacheRepository(db)

		if err := repo.Set("stale", []byte("old"), -time.Minute); err != nil {
			t.Fatalf("failed to set cache: %v", err)
		}

		if _, ok, err := repo.Get("stale"); err != nil || ok {
			t.Errorf("expected expired miss, got ok=%v err=%v", ok, err)
		}

		// Lazy purge removed the row.
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM cache WHERE key = 'stale'").Scan(&count); err != nil {
			t.Fatalf("failed to count cache rows: %v", err)
		}
		if count != 0 {
			t.Error("expected expired entry to be purged on read")
		}
	})

	t.Run("Replace", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCacheRepository(db)

		if err := repo.Set("k", []byte("v1"), time.Hour); err != nil {
			t.Fatalf("failed to set cache: %v", err)
		}
		if err := repo.Set("k", []byte("v2"), time.Hour); err != nil {
			t.Fatalf("failed to replace cache: %v", err)
		}

		value, ok, _ := repo.Get("k")
		if !ok || string(value) != "v2" {
			t.Errorf("expected replaced value, got %q", value)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCacheRepository(db)

		if err := repo.Set("fresh", []byte("a"), time.Hour); err != nil {
			t.Fatalf("failed to set cache: %v", err)
		}
		if err := repo.Set("stale", []byte("b"), -time.Minute); err != nil {
			t.Fatalf("failed to set cache: %v", err)
		}

		removed, err := repo.Purge()
		if err != nil {
			t.Fatalf("failed to purge cache: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 purged entry, got %d", removed)
		}
	})
}

func TestPlaylistFromResultRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := testPlaylist()
	if err := repo.Create(playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	got, err := repo.Get(playlist.ID)
	if err != nil {
		t.Fatalf("failed to get playlist: %v", err)
	}
	if got.Tracks[0].DurationSeconds != 125 {
		t.Errorf("expected duration preserved, got %v", got.Tracks[0].DurationSeconds)
	}
}
