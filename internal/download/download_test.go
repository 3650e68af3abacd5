package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sundazed/mymusic/internal/match"
)

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive")

	a, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive() error = %v", err)
	}
	if a.Len() != 0 {
		t.Fatalf("expected empty archive, got %d entries", a.Len())
	}

	url := "https://www.youtube.com/watch?v=abc"
	if a.Contains(url) {
		t.Error("expected URL absent before Add")
	}
	if err := a.Add(url); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !a.Contains(url) {
		t.Error("expected URL present after Add")
	}

	// Duplicate adds are no-ops.
	if err := a.Add(url); err != nil {
		t.Fatalf("duplicate Add() error = %v", err)
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 entry after duplicate add, got %d", a.Len())
	}

	// A fresh load sees the appended entry.
	reloaded, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if !reloaded.Contains(url) {
		t.Error("expected reloaded archive to contain URL")
	}
}

func TestBaseFilename(t *testing.T) {
	tests := []struct {
		name  string
		track match.Found
		want  string
	}{
		{"title and artist", match.Found{Title: "Yesterday", Artist: "The Beatles"}, "Yesterday - The Beatles"},
		{"punctuation stripped", match.Found{Title: "Don't Stop Me Now!", Artist: "Queen"}, "Dont Stop Me Now - Queen"},
		{"empty title falls back", match.Found{Title: "???", Artist: "Someone"}, "Unknown - Someone"},
		{"no artist", match.Found{Title: "Solo"}, "Solo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := baseFilename(tt.track); got != tt.want {
				t.Errorf("baseFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestDownloader(t *testing.T, run func(ctx context.Context, url, outPath string, d *Downloader) error) *Downloader {
	t.Helper()
	d, err := NewDownloader(DownloaderOpts{
		Directory:          t.TempDir(),
		Format:             "m4a",
		FallbackToRunnerUp: true,
	})
	if err != nil {
		t.Fatalf("NewDownloader() error = %v", err)
	}
	d.run = run
	return d
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
}

func TestDownload_Success(t *testing.T) {
	var gotURL string
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		gotURL = url
		touch(t, outPath+".m4a")
		return nil
	})

	track := match.Found{Title: "Yesterday", Artist: "The Beatles", URL: "https://www.youtube.com/watch?v=abc"}
	res := d.Download(context.Background(), track)
	if res.Err != nil {
		t.Fatalf("Download() error = %v", res.Err)
	}
	if gotURL != track.URL {
		t.Errorf("expected download of %q, got %q", track.URL, gotURL)
	}
	if filepath.Base(res.FilePath) != "Yesterday - The Beatles.m4a" {
		t.Errorf("unexpected file path %q", res.FilePath)
	}
	if !d.archive.Contains(track.URL) {
		t.Error("expected URL recorded in archive")
	}
}

func TestDownload_SkipsArchivedEntries(t *testing.T) {
	calls := 0
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		calls++
		touch(t, outPath+".m4a")
		return nil
	})

	track := match.Found{Title: "Yesterday", Artist: "The Beatles", URL: "https://www.youtube.com/watch?v=abc"}
	if res := d.Download(context.Background(), track); res.Err != nil {
		t.Fatalf("first download error = %v", res.Err)
	}

	res := d.Download(context.Background(), track)
	if res.Err != nil {
		t.Fatalf("second download error = %v", res.Err)
	}
	if !res.Skipped {
		t.Error("expected archived entry to be skipped")
	}
	if calls != 1 {
		t.Errorf("expected 1 encoder invocation, got %d", calls)
	}
}

func TestDownload_FallbackToRunnerUp(t *testing.T) {
	var urls []string
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		urls = append(urls, url)
		if len(urls) == 1 {
			return errors.New("encoder exploded")
		}
		touch(t, outPath+".m4a")
		return nil
	})

	track := match.Found{
		Title:       "Yesterday",
		Artist:      "The Beatles",
		URL:         "https://www.youtube.com/watch?v=primary",
		RunnerUpURL: "https://www.youtube.com/watch?v=backup",
	}
	res := d.Download(context.Background(), track)
	if res.Err != nil {
		t.Fatalf("expected runner-up to succeed, got %v", res.Err)
	}
	if len(urls) != 2 || urls[1] != track.RunnerUpURL {
		t.Errorf("expected retry against runner-up, got %v", urls)
	}
}

func TestDownload_NoFallbackWhenDisabled(t *testing.T) {
	calls := 0
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		calls++
		return errors.New("encoder exploded")
	})
	d.FallbackToRunnerUp = false

	track := match.Found{Title: "Yesterday", URL: "u", RunnerUpURL: "backup"}
	if res := d.Download(context.Background(), track); res.Err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected single attempt, got %d", calls)
	}
}

func TestDownload_AgeRestrictedNeverRetried(t *testing.T) {
	calls := 0
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		calls++
		return match.ErrAgeRestricted
	})

	track := match.Found{Title: "Yesterday", URL: "u", RunnerUpURL: "backup"}
	res := d.Download(context.Background(), track)
	if !errors.Is(res.Err, match.ErrAgeRestricted) {
		t.Fatalf("expected age-restricted error, got %v", res.Err)
	}
	if calls != 1 {
		t.Errorf("expected no runner-up retry for age restriction, got %d attempts", calls)
	}
}

func TestDownloadAll(t *testing.T) {
	d := newTestDownloader(t, func(ctx context.Context, url, outPath string, d *Downloader) error {
		if url == "fail" {
			return errors.New("boom")
		}
		touch(t, outPath+".m4a")
		return nil
	})

	tracks := []match.Found{
		{Title: "A", Artist: "X", URL: "ok1"},
		{Title: "B", Artist: "Y", URL: "fail"},
		{Title: "C", Artist: "Z", URL: "ok2"},
	}

	summary, err := d.DownloadAll(context.Background(), tracks, nil)
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}

	if summary.SuccessCount != 2 || summary.FailedCount != 1 {
		t.Errorf("expected 2 successes and 1 failure, got %d/%d", summary.SuccessCount, summary.FailedCount)
	}
	if len(summary.Results) != len(tracks) {
		t.Errorf("expected a result per track, got %d", len(summary.Results))
	}
}
