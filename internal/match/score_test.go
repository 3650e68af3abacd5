package match

import "testing"

func beatlesRow() SourceRow {
	return SourceRow{
		Title:           "Yesterday",
		Artist:          "The Beatles",
		DurationSeconds: 125,
		HasDuration:     true,
		TrackNumber:     1,
	}
}

func windowOpts(min int, max float64) Options {
	opts := DefaultOptions()
	opts.DurationMin = min
	opts.DurationMax = max
	return opts
}

func TestScorePhase1(t *testing.T) {
	tests := []struct {
		name      string
		row       SourceRow
		candidate Candidate
		opts      Options
		want      int
	}{
		{
			name: "confident match scores 100",
			row:  beatlesRow(),
			candidate: Candidate{
				Title:           "Yesterday - The Beatles (Remastered)",
				Uploader:        "The Beatles",
				DurationSeconds: 126,
			},
			opts: windowOpts(60, 300),
			want: 100,
		},
		{
			name: "out of window loses all duration points",
			row:  beatlesRow(),
			candidate: Candidate{
				Title:           "Yesterday Cover",
				Uploader:        "RandomChannel",
				DurationSeconds: 400,
			},
			opts: windowOpts(60, 300),
			want: 40, // title prefix only
		},
		{
			name: "contains without prefix",
			row:  beatlesRow(),
			candidate: Candidate{
				Title:           "Best of Yesterday Compilation",
				Uploader:        "The Beatles",
				DurationSeconds: 126,
			},
			opts: windowOpts(60, 300),
			want: 90, // 30 + 30 + 30
		},
		{
			name: "partial word overlap",
			row: SourceRow{
				Title:  "Interstellar Main Theme",
				Artist: "Hans Zimmer",
			},
			candidate: Candidate{
				Title:           "Interstellar Soundtrack",
				Uploader:        "WaterTower Music",
				DurationSeconds: 240,
			},
			opts: windowOpts(0, 600),
			// 1/3 title words, no artist overlap, in-window with no
			// reference duration
			want: 6 + 0 + 20,
		},
		{
			name: "unknown artist skips the artist dimension",
			row: SourceRow{
				Title:           "Yesterday",
				Artist:          "Unknown",
				DurationSeconds: 125,
				HasDuration:     true,
			},
			candidate: Candidate{
				Title:           "Yesterday (Remastered)",
				Uploader:        "SomeRandomUploader",
				DurationSeconds: 126,
			},
			opts: windowOpts(60, 300),
			want: 70, // 40 + 30, no artist penalty
		},
		{
			name: "duration within ten seconds",
			row:  beatlesRow(),
			candidate: Candidate{
				Title:           "Yesterday",
				Uploader:        "The Beatles",
				DurationSeconds: 133,
			},
			opts: windowOpts(60, 300),
			want: 95, // 40 + 30 + 20 + 5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScorePhase1(tt.candidate, tt.row, tt.opts); got != tt.want {
				t.Errorf("ScorePhase1() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScorePhase2(t *testing.T) {
	row := beatlesRow()

	prefix := Candidate{Title: "Yesterday (Remastered 2009)", DurationSeconds: 125}
	if got := ScorePhase2(prefix, row); got != 100 {
		t.Errorf("prefix match with exact duration = %v, want 100", got)
	}

	contains := Candidate{Title: "The Beatles - Yesterday", DurationSeconds: 125}
	if got := ScorePhase2(contains, row); got != 80 {
		t.Errorf("non-prefix match = %v, want 80", got)
	}

	far := Candidate{Title: "Yesterday", DurationSeconds: 300}
	if got := ScorePhase2(far, row); got != 100-175 {
		t.Errorf("large duration gap = %v, want %v (negative scores stay comparable)", got, 100-175)
	}

	noDuration := SourceRow{Title: "Yesterday"}
	if got := ScorePhase2(contains, noDuration); got != 80 {
		t.Errorf("no reference duration = %v, want 80", got)
	}
}

func TestFilterCandidate(t *testing.T) {
	row := beatlesRow()
	opts := windowOpts(60, 300)

	good := Candidate{
		Title:           "Yesterday (Remastered)",
		Uploader:        "The Beatles - Topic",
		DurationSeconds: 126,
	}

	tests := []struct {
		name      string
		row       SourceRow
		candidate Candidate
		variant   string
		opts      Options
		want      bool
	}{
		{"survivor passes", row, good, "", opts, true},
		{
			"duration outside window dropped even with perfect title",
			row,
			Candidate{Title: "Yesterday (Remastered)", Uploader: "The Beatles", DurationSeconds: 400},
			"", opts, false,
		},
		{
			"short-form clip dropped",
			row,
			Candidate{Title: "Yesterday (Remastered)", Uploader: "The Beatles", DurationSeconds: 126, IsShort: true},
			"", opts, false,
		},
		{
			"artist absent from uploader dropped",
			row,
			Candidate{Title: "Yesterday (Remastered)", Uploader: "CoverBandChannel", DurationSeconds: 126},
			"", opts, false,
		},
		{
			"unknown artist bypasses the presence filter",
			SourceRow{Title: "Yesterday", Artist: "Unknown", DurationSeconds: 125, HasDuration: true},
			Candidate{Title: "Yesterday (Remastered)", Uploader: "CoverBandChannel", DurationSeconds: 126},
			"", opts, true,
		},
		{
			"active variant absent from title dropped",
			row,
			good,
			"instrumental", opts, false,
		},
		{
			"active variant present in title kept",
			row,
			Candidate{Title: "Yesterday Instrumental", Uploader: "The Beatles", DurationSeconds: 126},
			"instrumental", opts, true,
		},
		{
			"keyword order violated dropped",
			SourceRow{Title: "Main Theme Interstellar", Artist: ""},
			Candidate{Title: "Interstellar Main Theme", Uploader: "x", DurationSeconds: 126},
			"", opts, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterCandidate(tt.candidate, tt.row, tt.variant, tt.opts); got != tt.want {
				t.Errorf("filterCandidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterCandidate_ExcludeInstrumentals(t *testing.T) {
	opts := windowOpts(0, 600)
	opts.ExcludeInstrumentals = true

	row := SourceRow{Title: "Yesterday", Artist: ""}
	instrumental := Candidate{Title: "Yesterday Instrumental Version", DurationSeconds: 126}

	if filterCandidate(instrumental, row, "", opts) {
		t.Error("expected instrumental candidate to be dropped for a vocal row")
	}

	instrumentalRow := SourceRow{Title: "Yesterday Instrumental", Artist: ""}
	if !filterCandidate(instrumental, instrumentalRow, "", opts) {
		t.Error("expected instrumental candidate to survive for an instrumental row")
	}
}
