package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sundazed/mymusic/internal/repositories"
	"github.com/sundazed/mymusic/internal/services"
	"github.com/sundazed/mymusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a one-off catalog query against the download provider, or
// against Spotify when the --spotify flag is set.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if cmd.Bool("spotify") {
		return r.spotifySearch(ctx, cmd, query)
	}

	limit := int(cmd.Int("limit"))
	candidates, err := r.matcher().Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}
	for i, c := range candidates {
		r.writePlain("%d. %s - %s [%s]\n   %s\n",
			i+1, c.Uploader, c.Title, shared.FormatDuration(int(c.DurationSeconds)), c.URL)
	}
	return nil
}

// spotifySearch resolves the query against the Spotify catalog. Queries in
// "Artist - Title" form are split; anything else is treated as a bare title.
func (r *Runner) spotifySearch(ctx context.Context, cmd *cli.Command, query string) error {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(ctx, creds.ClientID, creds.ClientSecret, r.lookupCache())
	if err != nil {
		return err
	}

	title, artist := query, ""
	if before, after, found := strings.Cut(query, " - "); found {
		artist, title = strings.TrimSpace(before), strings.TrimSpace(after)
	}

	info, err := svc.SearchTrack(ctx, title, artist)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlain("%s - %s\n", info.Artist, info.Title)
	r.writePlain("Album: %s\n", info.Album)
	r.writePlain("Duration: %s\n", shared.FormatDuration(int(info.Duration)))
	if info.ISRC != "" {
		r.writePlain("ISRC: %s\n", info.ISRC)
	}
	if info.ArtistID != "" {
		if genres, err := svc.ArtistGenres(ctx, info.ArtistID); err == nil && len(genres) > 0 {
			r.writePlain("Genres: %s\n", strings.Join(genres, ", "))
		}
	}
	return nil
}

// PlaylistsList prints the stored playlists, newest first.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}

	summaries, err := repositories.NewPlaylistRepository(db).List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	if len(summaries) == 0 {
		r.writePlain("No stored playlists. Run convert first.\n")
		return nil
	}
	for _, s := range summaries {
		r.writePlain("%s  %s (%d/%d matched, %s)\n",
			s.ID, s.Name, s.MatchedCount, s.TrackCount, s.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// PlaylistsShow prints one stored playlist with its tracks.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
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

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	r.writePlainHeader(playlist.Name)
	r.writePlain("Matched: %d/%d tracks\n\n", playlist.MatchedCount, playlist.TrackCount)
	for _, t := range playlist.Tracks {
		r.writePlain("%d. %s - %s [%s]\n",
			t.TrackNumber, t.Artist, t.Title, shared.FormatDuration(int(t.DurationSeconds)))
	}
	return nil
}

// PlaylistsDelete removes a stored playlist and its tracks.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}

	repo := repositories.NewPlaylistRepository(db)
	playlist, err := resolvePlaylist(repo, ref)
	if err != nil {
		return err
	}
	if err := repo.Delete(playlist.ID); err != nil {
		return err
	}

	r.writePlain("Deleted playlist %q\n", playlist.Name)
	return nil
}

// History prints recent downloads, or per-artist counts with --artists.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}

	repo := repositories.NewHistoryRepository(db)
	limit := int(cmd.Int("limit"))

	if cmd.Bool("artists") {
		counts, err := repo.TopArtists(limit)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(counts, true)
		}
		for i, c := range counts {
			r.writePlain("%d. %s (%d)\n", i+1, c.Artist, c.Count)
		}
		return nil
	}

	entries, err := repo.Recent(limit)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("No download history yet.\n")
		return nil
	}
	for _, e := range entries {
		r.writePlain("%s  %s - %s\n", e.DownloadedAt.Format("2006-01-02 15:04"), e.Artist, e.Title)
	}
	return nil
}

// Lyrics looks a track's lyrics up on LRCLIB.
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: track title", shared.ErrMissingArgument)
	}

	svc := services.NewLyricsService(r.lookupCache())
	lyrics, err := svc.Lookup(ctx, title, cmd.String("artist"), cmd.String("album"), cmd.Float("duration"))
	if err != nil {
		return err
	}

	r.writePlain("%s - %s\n\n", lyrics.Artist, lyrics.Title)
	switch {
	case lyrics.Instrumental:
		r.writePlain("[instrumental]\n")
	case cmd.Bool("synced") && lyrics.Synced != "":
		r.writePlain("%s\n", lyrics.Synced)
	default:
		r.writePlain("%s\n", lyrics.Plain)
	}
	return nil
}

// lookupCache returns the persistent TTL cache, or nil when the database
// cannot be opened so lookups still work uncached.
func (r *Runner) lookupCache() services.Cache {
	db, err := r.openDB()
	if err != nil {
		r.logger.Warn("lookup cache unavailable", "err", err)
		return nil
	}
	return repositories.NewCacheRepository(db)
}
