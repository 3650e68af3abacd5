// package provider implements match.SearchProvider backed by yt-dlp.
//
// The matcher never knows whether its index is a CLI wrapper, an HTTP client
// or an in-process store; this package is the CLI wrapper. Search issues
// cheap flat-playlist probes, Fetch pulls full single-video metadata, and
// both are rate limited and bounded by a per-call timeout.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sundazed/mymusic/internal/match"
	"golang.org/x/time/rate"
)

const defaultSearchTimeout = 30 * time.Second

// flatEntry is one record of yt-dlp's --flat-playlist --dump-single-json
// output. Fields missing upstream decode to zero values.
type flatEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

type flatResult struct {
	Entries []flatEntry `json:"entries"`
}

// videoInfo is the subset of yt-dlp's full single-video JSON the matcher
// cares about.
type videoInfo struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Uploader     string  `json:"uploader"`
	Channel      string  `json:"channel"`
	Duration     float64 `json:"duration"`
	WebpageURL   string  `json:"webpage_url"`
	AgeLimit     int     `json:"age_limit"`
	LiveStatus   string  `json:"live_status"`
	Availability string  `json:"availability"`
}

// YTDLP implements match.SearchProvider via the yt-dlp binary.
type YTDLP struct {
	logger  *log.Logger
	limiter *rate.Limiter
	timeout time.Duration

	// run is swapped out in tests; defaults to invoking yt-dlp.
	run func(ctx context.Context, cmd *ytdlp.Command, target string) (*ytdlp.Result, error)
}

// Opts configures a YTDLP provider.
type Opts struct {
	Logger    *log.Logger
	RateLimit float64       // provider calls per second, 0 disables limiting
	Timeout   time.Duration // per-call budget, default 30s
}

// New creates a yt-dlp backed search provider.
func New(opts Opts) *YTDLP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &YTDLP{
		logger:  opts.Logger,
		limiter: limiter,
		timeout: timeout,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, cmd *ytdlp.Command, target string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, target)
}

// Search runs a flat-playlist probe for the top maxResults entries.
//
// Nonzero exits and malformed output yield zero candidates rather than hard
// errors; only a distinguished age-restriction signal is surfaced as one.
func (p *YTDLP) Search(ctx context.Context, query string, maxResults int) ([]match.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 1
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := ytdlp.New().
		IgnoreConfig().
		FlatPlaylist().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings()

	spec := fmt.Sprintf("ytsearch%d:%s", maxResults, query)
	result, err := p.run(callCtx, cmd, spec)
	if err != nil {
		if isAgeRestricted(result, err) {
			return nil, match.ErrAgeRestricted
		}
		if p.logger != nil {
			p.logger.Debug("search probe failed", "query", query, "err", err)
		}
		return nil, nil
	}

	var flat flatResult
	if err := json.Unmarshal([]byte(result.Stdout), &flat); err != nil {
		if p.logger != nil {
			p.logger.Debug("malformed search output", "query", query, "err", err)
		}
		return nil, nil
	}

	candidates := make([]match.Candidate, 0, len(flat.Entries))
	for _, entry := range flat.Entries {
		if entry.ID == "" {
			continue
		}
		candidates = append(candidates, entryToCandidate(entry))
	}
	return candidates, nil
}

// Fetch pulls full metadata for a single candidate. Safe to call
// concurrently for different inputs; cancellation of ctx aborts the
// underlying process.
func (p *YTDLP) Fetch(ctx context.Context, idOrURL string) (*match.Candidate, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := ytdlp.New().
		IgnoreConfig().
		DumpSingleJSON().
		NoPlaylist().
		SkipDownload().
		NoWarnings()

	result, err := p.run(callCtx, cmd, canonicalURL(idOrURL))
	if err != nil {
		if isAgeRestricted(result, err) {
			return nil, match.ErrAgeRestricted
		}
		return nil, fmt.Errorf("metadata fetch failed: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return nil, fmt.Errorf("malformed metadata output: %w", err)
	}
	if info.AgeLimit >= 18 {
		return nil, match.ErrAgeRestricted
	}

	candidate := infoToCandidate(info)
	return &candidate, nil
}

func (p *YTDLP) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

func entryToCandidate(entry flatEntry) match.Candidate {
	uploader := entry.Uploader
	if uploader == "" {
		uploader = entry.Channel
	}
	url := entry.URL
	if url == "" {
		url = watchURL(entry.ID)
	}
	return match.Candidate{
		ID:              entry.ID,
		Title:           entry.Title,
		Uploader:        uploader,
		DurationSeconds: entry.Duration,
		URL:             url,
		ThumbnailURL:    thumbnailURL(entry.ID),
		IsShort:         isShort(url, entry.Title),
	}
}

func infoToCandidate(info videoInfo) match.Candidate {
	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}
	url := info.WebpageURL
	if url == "" {
		url = watchURL(info.ID)
	}
	return match.Candidate{
		ID:              info.ID,
		Title:           info.Title,
		Uploader:        uploader,
		DurationSeconds: info.Duration,
		URL:             url,
		ThumbnailURL:    thumbnailURL(info.ID),
		IsShort:         isShort(url, info.Title),
	}
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// canonicalURL passes URLs through and wraps bare video ids as watch URLs.
func canonicalURL(idOrURL string) string {
	if strings.Contains(idOrURL, "://") {
		return idOrURL
	}
	return watchURL(idOrURL)
}

// thumbnailURL derives the thumbnail deterministically from the video id.
func thumbnailURL(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
}

// isShort reports whether the URL or title marks a short-form clip.
func isShort(url, title string) bool {
	if strings.Contains(url, "/shorts/") {
		return true
	}
	lower := strings.ToLower(title)
	return strings.Contains(lower, "#shorts") || strings.Contains(lower, "#short ")
}

// isAgeRestricted inspects a failed call for yt-dlp's age-gate refusal.
func isAgeRestricted(result *ytdlp.Result, err error) bool {
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
