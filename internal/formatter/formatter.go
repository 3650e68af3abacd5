// package formatter handles conversion-job input and output files: parsing
// playlist-export CSVs into source rows and exporting match results to CSV,
// Markdown and plain text.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/shared"
)

// ParseSourceRows reads a playlist-export CSV into SourceRows.
//
// Columns are located by header name (Exportify-style exports: "Track Name",
// "Artist Name(s)", "Album Name", "Duration (ms)"). Title is required; a row
// without one is skipped. Duration is converted from milliseconds and marked
// absent when unparseable. Album defaults to the playlist name. Ordinal
// position becomes the track number.
func ParseSourceRows(r io.Reader, playlistName string) ([]match.SourceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty CSV", shared.ErrInvalidInput)
	}

	cols := locateColumns(records[0])
	if cols.title < 0 {
		return nil, fmt.Errorf("%w: no title column found", shared.ErrInvalidInput)
	}

	rows := make([]match.SourceRow, 0, len(records)-1)
	for _, record := range records[1:] {
		title := field(record, cols.title)
		if title == "" {
			continue
		}

		row := match.SourceRow{
			Title:       title,
			Artist:      field(record, cols.artist),
			Album:       field(record, cols.album),
			TrackNumber: len(rows) + 1,
		}
		if row.Album == "" {
			row.Album = playlistName
		}

		if ms := field(record, cols.duration); ms != "" {
			if parsed, err := strconv.ParseFloat(ms, 64); err == nil {
				row.DurationSeconds = parsed / 1000.0
				row.HasDuration = true
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

type columnIndexes struct {
	title    int
	artist   int
	album    int
	duration int
}

func locateColumns(header []string) columnIndexes {
	cols := columnIndexes{title: -1, artist: -1, album: -1, duration: -1}
	for i, name := range header {
		switch normalized := strings.ToLower(strings.TrimSpace(name)); {
		case cols.title < 0 && (normalized == "title" || strings.Contains(normalized, "track name")):
			cols.title = i
		case cols.artist < 0 && strings.Contains(normalized, "artist"):
			cols.artist = i
		case cols.album < 0 && strings.Contains(normalized, "album"):
			cols.album = i
		case cols.duration < 0 && strings.Contains(normalized, "duration"):
			cols.duration = i
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// TracksToCSV renders matched tracks with columns: Track, Title, Artist, Album, Duration, URL
func TracksToCSV(tracks []match.Found) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track", "Title", "Artist", "Album", "Duration", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			strconv.Itoa(track.TrackNumber),
			track.Title,
			track.Artist,
			track.Album,
			shared.FormatDuration(int(track.DurationSeconds)),
			track.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// NotFoundToCSV renders unmatched rows with a machine-readable Error column.
// This export is the failure-surfacing mechanism for a conversion job.
func NotFoundToCSV(notFound []match.NotFound) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track", "Title", "Artist", "Album", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, nf := range notFound {
		record := []string{
			strconv.Itoa(nf.TrackNumber),
			nf.Title,
			nf.Artist,
			nf.Album,
			string(nf.Reason),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToMarkdown renders a conversion result as a Markdown report.
func ResultToMarkdown(result *match.Result, playlistName string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlistName))
	buf.WriteString(fmt.Sprintf("**Matched**: %d of %d\n\n", result.SuccessCount, result.Total))

	if len(result.Tracks) > 0 {
		buf.WriteString("## Tracks\n\n")
		for _, track := range result.Tracks {
			duration := shared.FormatDuration(int(track.DurationSeconds))
			buf.WriteString(fmt.Sprintf("%d. %s - %s [%s](%s)\n", track.TrackNumber, track.Artist, track.Title, duration, track.URL))
		}
		buf.WriteString("\n")
	}

	if len(result.NotFound) > 0 {
		buf.WriteString("## Not Found\n\n")
		for _, nf := range result.NotFound {
			buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", nf.TrackNumber, nf.Artist, nf.Title, nf.Reason))
		}
	}

	return buf.Bytes()
}

// ResultToText renders a conversion result as plain text.
func ResultToText(result *match.Result, playlistName string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlistName))
	buf.WriteString(fmt.Sprintf("Matched: %d of %d\n\n", result.SuccessCount, result.Total))

	for _, track := range result.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", track.TrackNumber, track.Artist, track.Title))
	}
	for _, nf := range result.NotFound {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", nf.TrackNumber, nf.Artist, nf.Title, nf.Reason))
	}

	return buf.Bytes()
}
