package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sundazed/mymusic/internal/download"
	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/provider"
	"github.com/sundazed/mymusic/internal/repositories"
	"github.com/sundazed/mymusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	logger   *log.Logger
	output   io.Writer
	provider match.SearchProvider
	db       *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Logger   *log.Logger
	Output   io.Writer
	Provider match.SearchProvider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		output:   opts.Output,
		provider: opts.Provider,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, convertCommand, downloadCommand, searchCommand,
		playlistsCommand, historyCommand, lyricsCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// searchProvider returns the injected provider or builds the yt-dlp one.
func (r *Runner) searchProvider() match.SearchProvider {
	if r.provider == nil {
		r.provider = provider.New(provider.Opts{
			Logger:    r.logger,
			RateLimit: r.config.Provider.RateLimit,
			Timeout:   time.Duration(r.config.Provider.SearchTimeoutSeconds) * time.Second,
		})
	}
	return r.provider
}

// matcher builds the matching engine from config.
func (r *Runner) matcher() *match.Matcher {
	m := match.NewMatcher(r.searchProvider(), r.logger)
	if r.config.Matcher.FetchWorkers > 0 {
		m.FetchWorkers = r.config.Matcher.FetchWorkers
	}
	return m
}

// matchOptions builds match.Options from config, overridden by command flags.
func (r *Runner) matchOptions(cmd *cli.Command) match.Options {
	opts := match.DefaultOptions()

	if r.config.Matcher.DurationMin > 0 {
		opts.DurationMin = r.config.Matcher.DurationMin
	}
	if r.config.Matcher.DurationMax > 0 {
		opts.DurationMax = r.config.Matcher.DurationMax
	}
	if len(r.config.Matcher.Variants) > 0 {
		opts.Variants = r.config.Matcher.Variants
	}
	opts.ExcludeInstrumentals = r.config.Matcher.ExcludeInstrumentals

	if cmd.IsSet("min-duration") {
		opts.DurationMin = int(cmd.Int("min-duration"))
	}
	if cmd.IsSet("max-duration") {
		opts.DurationMax = cmd.Float("max-duration")
	}
	if cmd.IsSet("exclude-instrumentals") {
		opts.ExcludeInstrumentals = cmd.Bool("exclude-instrumentals")
	}
	if cmd.IsSet("variant") {
		opts.Variants = append(opts.Variants, cmd.StringSlice("variant")...)
	}
	if cmd.IsSet("skip-cheap-probe") {
		opts.SkipCheapProbe = cmd.Bool("skip-cheap-probe")
	}

	return opts
}

// downloader builds the download pipeline from config, overridden by flags.
func (r *Runner) downloader(cmd *cli.Command) (*download.Downloader, error) {
	dir := r.config.Downloads.Directory
	if cmd.IsSet("dir") {
		dir = cmd.String("dir")
	}
	format := r.config.Downloads.Format
	if cmd.IsSet("format") {
		format = cmd.String("format")
	}

	return download.NewDownloader(download.DownloaderOpts{
		Directory:          dir,
		Format:             format,
		EmbedThumbnail:     r.config.Downloads.EmbedThumbnail,
		ArchivePath:        r.config.Downloads.ArchiveFile,
		FallbackToRunnerUp: r.config.Downloads.FallbackToRunnerUp,
		Logger:             r.logger,
	})
}

// openDB lazily opens the configured database and applies the schema.
func (r *Runner) openDB() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := repositories.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	return db, nil
}

// printProgress drains a progress channel to the output writer. The returned
// channel closes once the progress channel does, so callers can wait before
// printing the summary.
func (r *Runner) printProgress(progress <-chan match.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Phase == match.Complete {
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
