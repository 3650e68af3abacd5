package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// wideFanout is the candidate count requested by the wide probe.
const wideFanout = 3

// Matcher resolves source rows against a SearchProvider. It holds no
// mutable state across rows; the outer loop is strictly sequential so
// progress reporting stays monotonic.
type Matcher struct {
	provider     SearchProvider
	logger       *log.Logger
	FetchWorkers int // concurrent full-metadata fetches per row, default 3
}

// NewMatcher creates a Matcher backed by the given provider.
func NewMatcher(provider SearchProvider, logger *log.Logger) *Matcher {
	return &Matcher{
		provider:     provider,
		logger:       logger,
		FetchWorkers: 3,
	}
}

// Search runs a one-off provider query, for interactive lookups outside the
// conversion loop.
func (m *Matcher) Search(ctx context.Context, query string, maxResults int) ([]Candidate, error) {
	if m.provider == nil {
		return nil, fmt.Errorf("search provider not initialized")
	}
	return m.provider.Search(ctx, query, maxResults)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks resolution.
func (m *Matcher) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Convert resolves every row to exactly one MatchResult. Rows are processed
// in input order; row-level failures never abort the job, which always
// returns a full (tracks, notFound) partition.
func (m *Matcher) Convert(ctx context.Context, rows []SourceRow, opts Options, progress chan<- ProgressUpdate) (*Result, error) {
	if m.provider == nil {
		return nil, fmt.Errorf("search provider not initialized")
	}
	if len(opts.Variants) == 0 {
		opts.Variants = []string{""}
	}

	result := &Result{
		Tracks:   []Found{},
		NotFound: []NotFound{},
		Total:    len(rows),
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		m.sendProgress(progress, matchRowUpdate(i+1, len(rows), row))

		found, reason := m.resolveRow(ctx, row, opts)
		if found != nil {
			result.Tracks = append(result.Tracks, *found)
			result.SuccessCount++
			m.sendProgress(progress, rowMatchedUpdate(i+1, len(rows), *found))
			continue
		}

		nf := NotFound{
			Title:       row.Title,
			Artist:      row.Artist,
			Album:       rowAlbum(row, opts),
			TrackNumber: row.TrackNumber,
			Reason:      reason,
		}
		result.NotFound = append(result.NotFound, nf)
		m.sendProgress(progress, rowFailedUpdate(i+1, len(rows), nf))
	}

	m.sendProgress(progress, completeUpdate(result.SuccessCount, result.Total))
	return result, nil
}

// resolveRow walks the row's variants through the two probe phases.
// AgeRestricted is terminal: the condition recurs, so remaining variants
// are not attempted.
func (m *Matcher) resolveRow(ctx context.Context, row SourceRow, opts Options) (*Found, Reason) {
	sawCandidates := false

	for _, variant := range rowVariants(row, opts) {
		query := buildQuery(row, variant)

		if !opts.SkipCheapProbe {
			candidates, err := m.provider.Search(ctx, query, 1)
			if errors.Is(err, ErrAgeRestricted) {
				return nil, ReasonAgeRestricted
			}
			if err == nil && len(candidates) > 0 {
				sawCandidates = true
				if ScorePhase1(candidates[0], row, opts) >= phase1AcceptThreshold {
					return m.accept(candidates[0], nil, row, opts), ""
				}
			}
		}

		candidates, err := m.provider.Search(ctx, query, wideFanout)
		if errors.Is(err, ErrAgeRestricted) {
			return nil, ReasonAgeRestricted
		}
		if err != nil {
			// Transient provider failures count as zero candidates; variant
			// iteration is the retry mechanism.
			if m.logger != nil {
				m.logger.Debug("wide search failed", "query", query, "err", err)
			}
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		sawCandidates = true

		winner, runnerUp, err := m.resolveWide(ctx, row, variant, candidates, opts)
		if errors.Is(err, ErrAgeRestricted) {
			return nil, ReasonAgeRestricted
		}
		if winner != nil {
			return m.accept(*winner, runnerUp, row, opts), ""
		}
	}

	if !sawCandidates {
		return nil, ReasonNoCandidates
	}
	return nil, ReasonNoAcceptableMatch
}

type fetchOutcome struct {
	rank      int // position in the wide search ordering
	candidate *Candidate
	err       error
}

type scoredCandidate struct {
	rank      int
	candidate Candidate
	score     float64
}

// beats orders survivors by score, breaking ties on search rank so the
// outcome does not depend on fetch completion order.
func (s scoredCandidate) beats(other scoredCandidate) bool {
	if s.score != other.score {
		return s.score > other.score
	}
	return s.rank < other.rank
}

// resolveWide fetches full metadata for each candidate concurrently, filters
// and scores the survivors, and returns the best plus the runner-up. The
// instant any candidate clears the acceptance threshold it is returned and
// sibling fetches are cancelled; their results are discarded, not scored.
func (m *Matcher) resolveWide(ctx context.Context, row SourceRow, variant string, candidates []Candidate, opts Options) (*Candidate, *Candidate, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := m.FetchWorkers
	if workers <= 0 {
		workers = 3
	}

	sem := make(chan struct{}, workers)
	// Buffered so abandoned fetches never block after an early exit.
	outcomes := make(chan fetchOutcome, len(candidates))

	for rank, c := range candidates {
		go func(rank int, c Candidate) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-fetchCtx.Done():
				outcomes <- fetchOutcome{rank: rank, err: fetchCtx.Err()}
				return
			}
			full, err := m.provider.Fetch(fetchCtx, c.URL)
			outcomes <- fetchOutcome{rank: rank, candidate: full, err: err}
		}(rank, c)
	}

	survivors := make([]scoredCandidate, 0, len(candidates))

	for range candidates {
		outcome := <-outcomes
		if errors.Is(outcome.err, ErrAgeRestricted) {
			return nil, nil, ErrAgeRestricted
		}
		if outcome.err != nil || outcome.candidate == nil {
			continue
		}

		c := *outcome.candidate
		if !filterCandidate(c, row, variant, opts) {
			continue
		}

		sc := scoredCandidate{rank: outcome.rank, candidate: c, score: ScorePhase2(c, row)}
		if sc.score >= phase2AcceptThreshold {
			winner := sc.candidate
			return &winner, bestOf(survivors), nil
		}
		survivors = append(survivors, sc)
	}

	if best := bestOf(survivors); best != nil {
		rest := make([]scoredCandidate, 0, len(survivors))
		for _, s := range survivors {
			if s.candidate.URL != best.URL {
				rest = append(rest, s)
			}
		}
		return best, bestOf(rest), nil
	}
	return nil, nil, nil
}

func bestOf(survivors []scoredCandidate) *Candidate {
	var best *scoredCandidate
	for i := range survivors {
		if best == nil || survivors[i].beats(*best) {
			best = &survivors[i]
		}
	}
	if best == nil {
		return nil
	}
	c := best.candidate
	return &c
}

// accept builds the Found record for a winning candidate. Title, artist and
// album come from the source row, not the candidate.
func (m *Matcher) accept(c Candidate, runnerUp *Candidate, row SourceRow, opts Options) *Found {
	found := &Found{
		Title:           row.Title,
		Artist:          row.Artist,
		Album:           rowAlbum(row, opts),
		URL:             c.URL,
		ThumbnailURL:    c.ThumbnailURL,
		DurationSeconds: c.DurationSeconds,
		TrackNumber:     row.TrackNumber,
	}
	if runnerUp != nil {
		found.RunnerUpURL = runnerUp.URL
	}
	return found
}

// rowVariants returns the variant list for a row. A title that already
// signals an instrumental rendition gets that variant prepended.
func rowVariants(row SourceRow, opts Options) []string {
	variants := opts.Variants
	if len(variants) == 0 {
		variants = []string{""}
	}
	if !signalsInstrumental(row.Title) {
		return variants
	}

	out := make([]string, 0, len(variants)+1)
	out = append(out, "instrumental")
	for _, v := range variants {
		if v != "instrumental" {
			out = append(out, v)
		}
	}
	return out
}

func buildQuery(row SourceRow, variant string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{row.Title, row.Artist, variant} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func rowAlbum(row SourceRow, opts Options) string {
	if row.Album != "" {
		return row.Album
	}
	return opts.PlaylistName
}
