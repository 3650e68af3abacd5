package match

import "fmt"

// ProgressUpdate represents a progress event during a conversion job.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	MatchRows Phase = iota
	RowMatched
	RowFailed
	DownloadRows
	Complete
)

func (p Phase) String() string {
	switch p {
	case MatchRows:
		return "match_rows"
	case RowMatched:
		return "row_matched"
	case RowFailed:
		return "row_failed"
	case DownloadRows:
		return "download_rows"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func matchRowUpdate(step, total int, row SourceRow) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, row.Artist, row.Title),
	}
}

func rowMatchedUpdate(step, total int, found Found) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RowMatched,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, found.Title),
		Data:    found,
	}
}

func rowFailedUpdate(step, total int, nf NotFound) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RowFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (%s)", step, total, nf.Title, nf.Reason),
		Data:    nf,
	}
}

func completeUpdate(success, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Matched %d of %d tracks", success, total),
	}
}
