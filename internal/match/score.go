package match

import (
	"math"
	"strings"
)

// phase1AcceptThreshold accepts the cheap-probe candidate without running
// the wide probe.
const phase1AcceptThreshold = 70

// phase2AcceptThreshold accepts a wide-probe candidate immediately and
// cancels sibling fetches.
const phase2AcceptThreshold = 90.0

// ScorePhase1 scores a single top-ranked candidate against a source row on
// a 0-100 scale. Title, artist and duration contribute independently: 40,
// 30 and 30 points at most.
func ScorePhase1(c Candidate, row SourceRow, opts Options) int {
	score := 0

	rowTitle := Normalize(row.Title)
	candTitle := Normalize(c.Title)

	switch {
	case rowTitle != "" && strings.HasPrefix(candTitle, rowTitle):
		score += 40
	case rowTitle != "" && strings.Contains(candTitle, rowTitle):
		score += 30
	default:
		score += int(20 * wordFraction(rowTitle, candTitle))
	}

	if !isUnknownArtist(row.Artist) {
		primary := Normalize(PrimaryArtist(row.Artist))
		uploader := Normalize(c.Uploader)
		if primary != "" && strings.Contains(uploader, primary) {
			score += 30
		} else {
			score += int(15 * wordFraction(primary, uploader))
		}
	}

	if inWindow(c.DurationSeconds, opts) {
		score += 20
		if row.HasDuration {
			diff := math.Abs(c.DurationSeconds - row.DurationSeconds)
			switch {
			case diff <= 5:
				score += 10
			case diff <= 10:
				score += 5
			}
		}
	}

	return score
}

// ScorePhase2 scores a surviving wide-probe candidate. Prefix matches start
// at 100, bare survivors at 80; the absolute duration gap is subtracted when
// a reference duration is known. Scores may go negative and remain
// comparable.
func ScorePhase2(c Candidate, row SourceRow) float64 {
	score := 80.0
	if rowTitle := Normalize(row.Title); rowTitle != "" && strings.HasPrefix(Normalize(c.Title), rowTitle) {
		score = 100.0
	}
	if row.HasDuration {
		score -= math.Abs(c.DurationSeconds - row.DurationSeconds)
	}
	return score
}

// filterCandidate applies the strict wide-probe gate. Rejected candidates
// contribute no score and are dropped.
func filterCandidate(c Candidate, row SourceRow, variant string, opts Options) bool {
	if !inWindow(c.DurationSeconds, opts) {
		return false
	}
	if c.IsShort {
		return false
	}
	if !isUnknownArtist(row.Artist) {
		primary := Normalize(PrimaryArtist(row.Artist))
		if primary != "" && !strings.Contains(Normalize(c.Uploader), primary) {
			return false
		}
	}
	if variant != "" && !strings.Contains(Normalize(c.Title), Normalize(variant)) {
		return false
	}
	if opts.ExcludeInstrumentals && !signalsInstrumental(row.Title) && signalsInstrumental(c.Title) {
		return false
	}
	return ContainsKeywordsInOrder(c.Title, titleKeywords(row.Title))
}

func inWindow(duration float64, opts Options) bool {
	return duration >= float64(opts.DurationMin) && duration <= opts.DurationMax
}

// wordFraction returns the fraction of words in text found as substrings of
// haystack.
func wordFraction(text, haystack string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
