// package download implements the download variant of the matching engine:
// accepted candidates are handed to yt-dlp for audio extraction, remuxed
// into a fixed container with embedded tags, and recorded in an append-only
// archive so repeat runs skip completed entries.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/shared"
)

const downloadTimeout = 10 * time.Minute

// Downloader invokes the external encoder for accepted candidates.
type Downloader struct {
	dir            string
	format         string // "m4a" or "mp3"
	embedThumbnail bool
	archive        *Archive
	logger         *log.Logger

	// FallbackToRunnerUp retries a failed download against the row's
	// runner-up candidate instead of discarding the scoring work. The
	// reference behavior (fail the row on first encoder error) is
	// available by disabling it.
	FallbackToRunnerUp bool

	// run is swapped out in tests; defaults to invoking yt-dlp.
	run func(ctx context.Context, url, outPath string, d *Downloader) error
}

// DownloaderOpts configures a Downloader.
type DownloaderOpts struct {
	Directory          string
	Format             string
	EmbedThumbnail     bool
	ArchivePath        string
	FallbackToRunnerUp bool
	Logger             *log.Logger
}

// NewDownloader creates a Downloader writing into opts.Directory.
func NewDownloader(opts DownloaderOpts) (*Downloader, error) {
	if opts.Directory == "" {
		opts.Directory = "downloads"
	}
	if opts.Format != "mp3" {
		opts.Format = "m4a"
	}
	if err := os.MkdirAll(opts.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	archivePath := opts.ArchivePath
	if archivePath == "" {
		archivePath = filepath.Join(opts.Directory, ".archive")
	}
	archive, err := OpenArchive(archivePath)
	if err != nil {
		return nil, err
	}

	return &Downloader{
		dir:                opts.Directory,
		format:             opts.Format,
		embedThumbnail:     opts.EmbedThumbnail,
		archive:            archive,
		logger:             opts.Logger,
		FallbackToRunnerUp: opts.FallbackToRunnerUp,
		run:                runYTDLP,
	}, nil
}

// Result describes one download attempt.
type Result struct {
	Track    match.Found
	FilePath string
	Skipped  bool  // already in the archive
	Err      error // nil on success
}

// Summary aggregates a download run over a set of matched tracks.
type Summary struct {
	Results      []Result
	SuccessCount int
	SkippedCount int
	FailedCount  int
}

// Download fetches and encodes a single matched track. Tracks already in
// the archive are skipped. A failed encode retries once against the
// runner-up candidate when fallback is enabled; an age-restriction signal
// is terminal and never retried.
func (d *Downloader) Download(ctx context.Context, track match.Found) Result {
	if d.archive.Contains(track.URL) {
		return Result{Track: track, FilePath: d.expectedPath(track), Skipped: true}
	}

	path, err := d.fetch(ctx, track.URL, track)
	if err != nil && d.FallbackToRunnerUp && track.RunnerUpURL != "" && !errors.Is(err, match.ErrAgeRestricted) {
		if d.logger != nil {
			d.logger.Warn("download failed, retrying runner-up", "title", track.Title, "err", err)
		}
		path, err = d.fetch(ctx, track.RunnerUpURL, track)
	}
	if err != nil {
		return Result{Track: track, Err: err}
	}

	if err := d.archive.Add(track.URL); err != nil && d.logger != nil {
		d.logger.Warn("failed to record archive entry", "url", track.URL, "err", err)
	}
	return Result{Track: track, FilePath: path}
}

// DownloadAll processes matched tracks sequentially in track order,
// reporting per-track progress. Failures never abort the run.
func (d *Downloader) DownloadAll(ctx context.Context, tracks []match.Found, progress chan<- match.ProgressUpdate) (*Summary, error) {
	summary := &Summary{Results: make([]Result, 0, len(tracks))}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		sendProgress(progress, match.ProgressUpdate{
			Phase:   match.DownloadRows,
			Step:    i + 1,
			Total:   len(tracks),
			Message: fmt.Sprintf("[%d/%d] Downloading %s - %s", i+1, len(tracks), track.Artist, track.Title),
		})

		res := d.Download(ctx, track)
		summary.Results = append(summary.Results, res)
		switch {
		case res.Err != nil:
			summary.FailedCount++
		case res.Skipped:
			summary.SkippedCount++
		default:
			summary.SuccessCount++
		}
	}

	return summary, nil
}

func (d *Downloader) fetch(ctx context.Context, url string, track match.Found) (string, error) {
	outPath := filepath.Join(d.dir, baseFilename(track))

	if err := d.run(ctx, url, outPath, d); err != nil {
		return "", err
	}

	ext := "." + d.format
	downloaded := outPath + ext
	if _, err := os.Stat(downloaded); err == nil {
		return downloaded, nil
	}

	// yt-dlp may have suffixed the name; scan for a prefix match.
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrFileNotFound, err)
	}
	base := filepath.Base(outPath)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, base) && strings.HasSuffix(name, ext) {
			return filepath.Join(d.dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: downloaded file not found for %q", shared.ErrFileNotFound, track.Title)
}

func (d *Downloader) expectedPath(track match.Found) string {
	return filepath.Join(d.dir, baseFilename(track)+"."+d.format)
}

// runYTDLP performs the actual encoder invocation.
func runYTDLP(ctx context.Context, url, outPath string, d *Downloader) error {
	callCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	cmd := ytdlp.New().
		IgnoreConfig().
		Format("bestaudio[ext=m4a]/bestaudio").
		Output(outPath + ".%(ext)s").
		NoPlaylist().
		EmbedMetadata()

	if d.embedThumbnail {
		cmd = cmd.EmbedThumbnail()
	}
	if d.format == "mp3" {
		cmd = cmd.ExtractAudio().AudioFormat("mp3").AudioQuality("0")
	} else {
		cmd = cmd.RemuxVideo("m4a")
	}

	result, err := cmd.Run(callCtx, url)
	if err != nil {
		if isAgeRestrictedOutput(result, err) {
			return match.ErrAgeRestricted
		}
		return fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	return nil
}

func isAgeRestrictedOutput(result *ytdlp.Result, err error) bool {
	text := ""
	if result != nil {
		text = result.Stderr
	}
	if err != nil {
		text += " " + err.Error()
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "sign in to confirm your age") ||
		strings.Contains(lower, "age-restricted") ||
		strings.Contains(lower, "age restricted")
}

// baseFilename sanitizes "Title - Artist" the same way the tag values are
// kept: word characters and spaces only.
func baseFilename(track match.Found) string {
	name := sanitize(track.Title)
	if name == "" {
		name = "Unknown"
	}
	if artist := sanitize(track.Artist); artist != "" {
		name += " - " + artist
	}
	return name
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func sendProgress(progress chan<- match.ProgressUpdate, update match.ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
