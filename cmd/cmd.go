// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// matchFlags are shared by every command that runs the matching engine.
func matchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "min-duration",
			Usage: "Minimum candidate duration in seconds",
		},
		&cli.FloatFlag{
			Name:  "max-duration",
			Usage: "Maximum candidate duration in seconds",
		},
		&cli.BoolFlag{
			Name:  "exclude-instrumentals",
			Usage: "Reject instrumental candidates for non-instrumental rows",
		},
		&cli.StringSliceFlag{
			Name:  "variant",
			Usage: "Extra query qualifier to try per row (e.g. \"instrumental\", \"live\")",
		},
		&cli.BoolFlag{
			Name:  "skip-cheap-probe",
			Usage: "Always run the wide probe instead of the single-candidate probe",
		},
	}
}

// convertCommand matches a playlist CSV export against the search provider.
func convertCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Playlist name (defaults to the CSV file name)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory for the matched/unmatched CSV exports",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Report format: csv, markdown, text or json",
			Value: "csv",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Persist the converted playlist to the database",
			Value: true,
		},
		&cli.BoolFlag{
			Name:    "download",
			Aliases: []string{"d"},
			Usage:   "Download matched tracks after conversion",
		},
	}
	flags = append(flags, matchFlags()...)

	return &cli.Command{
		Name:      "convert",
		Aliases:   []string{"conv"},
		Usage:     "Match a playlist CSV export against the provider catalog",
		Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
		Flags:     flags,
		Action:    r.Convert,
	}
}

// downloadCommand downloads a stored playlist's matched tracks.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download the matched tracks of a stored playlist",
		Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Audio container: m4a or mp3",
			},
		},
		Action: r.Download,
	}
}

// searchCommand runs a one-off provider search.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the provider catalog for a track",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 3,
			},
			&cli.BoolFlag{
				Name:  "spotify",
				Usage: "Query the Spotify catalog instead of the download provider",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// playlistsCommand manages stored playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage stored playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show a stored playlist with its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.PlaylistsDelete,
			},
		},
	}
}

// historyCommand shows download history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show download history",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 25,
			},
			&cli.BoolFlag{
				Name:  "artists",
				Usage: "Show per-artist download counts instead",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// lyricsCommand looks up lyrics for a track.
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "lyrics",
		Usage:     "Look up lyrics for a track",
		Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Album name",
			},
			&cli.FloatFlag{
				Name:  "duration",
				Usage: "Track duration in seconds, improves exact matching",
			},
			&cli.BoolFlag{
				Name:  "synced",
				Usage: "Print synced (LRC) lyrics when available",
			},
		},
		Action: r.Lyrics,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand initializes config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand runs the interactive conversion workflow.
func tuiCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Playlist name (defaults to the CSV file name)",
		},
	}
	flags = append(flags, matchFlags()...)

	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Interactive conversion and download workflow",
		Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
		Flags:     flags,
		Action:    r.TUI,
	}
}
