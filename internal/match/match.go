// package match implements the CSV-to-playlist track matching engine.
//
// Each input row is resolved against a noisy full-text search index in two
// phases: a cheap single-candidate probe that accepts confident matches
// outright, and a wider multi-candidate probe whose full-metadata fetches run
// concurrently and are cancelled as soon as a high-confidence winner appears.
package match

import (
	"context"
	"errors"
)

// ErrAgeRestricted signals that a candidate cannot be fetched or downloaded
// because the upstream platform gates it behind an age check. The condition
// recurs on retry, so it is terminal for the row.
var ErrAgeRestricted = errors.New("age restricted")

// SearchProvider is the search index consumed by the matcher.
//
// Search is the cheap call: a free-text query with a result-count hint
// returning lightweight candidates. Fetch is the expensive call: full
// metadata for a single candidate, safe to invoke concurrently for
// different inputs and cancellable via ctx.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)
	Fetch(ctx context.Context, idOrURL string) (*Candidate, error)
}

// SourceRow is one playlist-export record. Ordinal position is preserved as
// the track number.
type SourceRow struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	HasDuration     bool
	TrackNumber     int
}

// Candidate is a prospective match returned by the search provider. It lives
// only for the duration of one (row, variant) resolution.
type Candidate struct {
	ID              string
	Title           string
	Uploader        string
	DurationSeconds float64
	URL             string
	ThumbnailURL    string
	IsShort         bool
}

// Reason is the closed set of row-failure causes.
type Reason string

const (
	ReasonNoCandidates      Reason = "no_candidates"
	ReasonAgeRestricted     Reason = "age_restricted"
	ReasonNoAcceptableMatch Reason = "no_acceptable_match"
)

// Found is a resolved row. Title, artist and album are copied from the
// source row rather than the candidate to preserve user intent.
type Found struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	URL             string  `json:"url"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	TrackNumber     int     `json:"track_number"`

	// RunnerUpURL is the second-best surviving candidate from the wide
	// probe, when one exists. Downstream consumers may retry against it
	// after a failed download.
	RunnerUpURL string `json:"runner_up_url,omitempty"`
}

// NotFound is a row that exhausted all variants without an acceptable match.
type NotFound struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"track_number"`
	Reason      Reason `json:"error"`
}

// Result is the full partition of a conversion job: every input row appears
// exactly once across Tracks and NotFound.
type Result struct {
	Tracks       []Found    `json:"tracks"`
	NotFound     []NotFound `json:"not_found"`
	Total        int        `json:"total"`
	SuccessCount int        `json:"success_count"`
}

// Options configures a conversion job.
type Options struct {
	DurationMin          int      // seconds, lower bound of the acceptance window
	DurationMax          float64  // seconds, upper bound of the acceptance window
	ExcludeInstrumentals bool     // drop instrumental candidates for non-instrumental rows
	Variants             []string // query qualifiers tried left to right per row
	SkipCheapProbe       bool     // skip Phase 1 and always run the wide probe
	PlaylistName         string   // default album for rows without one
}

// DefaultOptions returns the reference configuration for a conversion job.
func DefaultOptions() Options {
	return Options{
		DurationMin: 0,
		DurationMax: 600,
		Variants:    []string{""},
	}
}
