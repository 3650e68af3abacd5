package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/shared"
)

var (
	_ list.Item = matchedItem{}
	_ list.Item = unmatchedItem{}
)

// matchedItem wraps [match.Found] to implement [list.Item].
type matchedItem struct {
	track match.Found
}

func (i matchedItem) FilterValue() string { return i.track.Title }
func (i matchedItem) Title() string {
	return fmt.Sprintf("%d. %s", i.track.TrackNumber, i.track.Title)
}
func (i matchedItem) Description() string {
	desc := i.track.Artist
	if i.track.DurationSeconds > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(int(i.track.DurationSeconds)))
	}
	return desc
}

// unmatchedItem wraps [match.NotFound] to implement [list.Item].
type unmatchedItem struct {
	row match.NotFound
}

func (i unmatchedItem) FilterValue() string { return i.row.Title }
func (i unmatchedItem) Title() string {
	return fmt.Sprintf("%d. %s", i.row.TrackNumber, i.row.Title)
}
func (i unmatchedItem) Description() string {
	return fmt.Sprintf("%s • %s", i.row.Artist, i.row.Reason)
}
