package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/repositories"
	"github.com/sundazed/mymusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Download fetches the matched tracks of a stored playlist.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}

	playlist, err := resolvePlaylist(repositories.NewPlaylistRepository(db), ref)
	if err != nil {
		return err
	}
	if len(playlist.Tracks) == 0 {
		r.writePlain("Playlist %q has no matched tracks\n", playlist.Name)
		return nil
	}

	r.writePlain("Downloading %q (%d tracks)...\n\n", playlist.Name, len(playlist.Tracks))
	return r.downloadTracks(ctx, cmd, tracksToFound(playlist.Tracks))
}

// downloadTracks runs the download pipeline over matched tracks and records
// successes in the history log.
func (r *Runner) downloadTracks(ctx context.Context, cmd *cli.Command, tracks []match.Found) error {
	dl, err := r.downloader(cmd)
	if err != nil {
		return err
	}

	progressCh := make(chan match.ProgressUpdate, 50)
	done := r.printProgress(progressCh)

	summary, err := dl.DownloadAll(ctx, tracks, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return fmt.Errorf("download run aborted: %w", err)
	}

	if db, dbErr := r.openDB(); dbErr == nil {
		history := repositories.NewHistoryRepository(db)
		for _, res := range summary.Results {
			if res.Err != nil || res.Skipped {
				continue
			}
			entry := &models.HistoryEntry{
				Title:    res.Track.Title,
				Artist:   res.Track.Artist,
				Album:    res.Track.Album,
				URL:      res.Track.URL,
				FilePath: res.FilePath,
			}
			if err := history.Add(entry); err != nil {
				r.logger.Warn("failed to record download history", "title", entry.Title, "err", err)
			}
		}
	}

	r.writePlain("\n")
	r.writePlainHeader("Download Complete!")
	r.writePlain("Downloaded: %d\n", summary.SuccessCount)
	r.writePlain("Skipped: %d\n", summary.SkippedCount)
	r.writePlain("Failed: %d\n", summary.FailedCount)

	if summary.FailedCount > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, res := range summary.Results {
			if res.Err != nil {
				r.writePlain("  - %s - %s: %v\n", res.Track.Artist, res.Track.Title, res.Err)
			}
		}
	}

	return nil
}

// resolvePlaylist looks a playlist up by ID first, then by name.
func resolvePlaylist(repo *repositories.PlaylistRepository, ref string) (*models.Playlist, error) {
	playlist, err := repo.Get(ref)
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		return repo.GetByName(ref)
	}
	return playlist, err
}

func tracksToFound(tracks []models.Track) []match.Found {
	found := make([]match.Found, 0, len(tracks))
	for _, t := range tracks {
		found = append(found, match.Found{
			Title:           t.Title,
			Artist:          t.Artist,
			Album:           t.Album,
			URL:             t.URL,
			ThumbnailURL:    t.ThumbnailURL,
			DurationSeconds: t.DurationSeconds,
			TrackNumber:     t.TrackNumber,
		})
	}
	return found
}
