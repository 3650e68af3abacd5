package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sundazed/mymusic/internal/formatter"
	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/repositories"
	"github.com/sundazed/mymusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Convert matches a playlist CSV export against the provider catalog and
// writes the matched/unmatched reports.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	rows, playlistName, err := r.loadRows(cmd)
	if err != nil {
		return err
	}

	opts := r.matchOptions(cmd)
	opts.PlaylistName = playlistName

	r.writePlain("Converting playlist %q (%d tracks)...\n\n", playlistName, len(rows))

	progressCh := make(chan match.ProgressUpdate, 50)
	done := r.printProgress(progressCh)

	result, err := r.matcher().Convert(ctx, rows, opts, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete!")
	r.writePlain("Playlist: %s\n", playlistName)
	r.writePlain("Matched: %d/%d tracks\n", result.SuccessCount, result.Total)

	if len(result.NotFound) > 0 {
		r.writePlain("\nNot found:\n")
		for _, nf := range result.NotFound {
			r.writePlain("  - %s - %s (%s)\n", nf.Artist, nf.Title, nf.Reason)
		}
	}

	if err := r.writeReport(cmd, result, playlistName); err != nil {
		return err
	}

	if cmd.Bool("save") && result.SuccessCount > 0 {
		db, err := r.openDB()
		if err != nil {
			return err
		}
		playlist := models.PlaylistFromResult(playlistName, result)
		if err := repositories.NewPlaylistRepository(db).Create(playlist); err != nil {
			return fmt.Errorf("failed to save playlist: %w", err)
		}
		r.writePlain("\nSaved playlist %s\n", playlist.ID)
	}

	if cmd.Bool("download") && len(result.Tracks) > 0 {
		return r.downloadTracks(ctx, cmd, result.Tracks)
	}

	return nil
}

// loadRows reads the CSV positional argument into source rows. The playlist
// name comes from the -p flag or the file name.
func (r *Runner) loadRows(cmd *cli.Command) ([]match.SourceRow, string, error) {
	path := cmd.StringArg("file")
	if path == "" {
		return nil, "", fmt.Errorf("%w: path to a playlist CSV export", shared.ErrMissingArgument)
	}

	name := cmd.String("playlist")
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	rows, err := formatter.ParseSourceRows(file, name)
	if err != nil {
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", fmt.Errorf("%w: no usable rows in %s", shared.ErrInvalidInput, path)
	}

	return rows, name, nil
}

// writeReport exports the conversion result in the format selected by the
// report flag. JSON goes to the output writer, everything else to files in
// the output directory.
func (r *Runner) writeReport(cmd *cli.Command, result *match.Result, playlistName string) error {
	outDir := cmd.String("output")
	if outDir == "" {
		outDir = "."
	}

	switch format := cmd.String("report"); format {
	case "json":
		return r.writeJSON(result, true)

	case "markdown":
		path := filepath.Join(outDir, playlistName+".md")
		if err := os.WriteFile(path, formatter.ResultToMarkdown(result, playlistName), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("\nReport: %s\n", path)
		return nil

	case "text":
		path := filepath.Join(outDir, playlistName+".txt")
		if err := os.WriteFile(path, formatter.ResultToText(result, playlistName), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("\nReport: %s\n", path)
		return nil

	case "csv":
		matched, err := formatter.TracksToCSV(result.Tracks)
		if err != nil {
			return err
		}
		matchedPath := filepath.Join(outDir, playlistName+" - matched.csv")
		if err := os.WriteFile(matchedPath, matched, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("\nReport: %s\n", matchedPath)

		if len(result.NotFound) > 0 {
			missing, err := formatter.NotFoundToCSV(result.NotFound)
			if err != nil {
				return err
			}
			missingPath := filepath.Join(outDir, playlistName+" - not found.csv")
			if err := os.WriteFile(missingPath, missing, 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			r.writePlain("Not found report: %s\n", missingPath)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, format)
	}
}
