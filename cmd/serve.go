package main

import (
	"context"
	"fmt"

	"github.com/sundazed/mymusic/internal/repositories"
	"github.com/sundazed/mymusic/internal/server"
	"github.com/sundazed/mymusic/internal/services"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	opts := server.APIOpts{
		Logger:      r.logger,
		Matcher:     r.matcher(),
		Options:     r.matchOptions(cmd),
		DownloadDir: r.config.Downloads.Directory,
	}

	// Persistence-backed endpoints come up only when the database does;
	// search and convert still work without it.
	if db, err := r.openDB(); err != nil {
		r.logger.Warn("database unavailable, store endpoints disabled", "err", err)
	} else {
		cache := repositories.NewCacheRepository(db)
		if purged, err := cache.Purge(); err == nil && purged > 0 {
			r.logger.Debug("purged expired cache entries", "count", purged)
		}
		opts.Playlists = repositories.NewPlaylistRepository(db)
		opts.History = repositories.NewHistoryRepository(db)
		opts.Lyrics = services.NewLyricsService(cache)
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger), server.CORS())
	router.Handler(server.NewAPI(opts))

	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	return server.Serve(ctx, fmt.Sprintf("%s:%d", host, port), router, r.logger)
}
