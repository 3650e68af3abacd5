package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sundazed/mymusic/internal/download"
	"github.com/sundazed/mymusic/internal/match"
)

// progressMsg carries one engine progress update into the Elm loop.
type progressMsg match.ProgressUpdate

// convertDoneMsg signals the end of the matching run.
type convertDoneMsg struct {
	result *match.Result
	err    error
}

// downloadDoneMsg signals the end of the download run.
type downloadDoneMsg struct {
	summary *download.Summary
	err     error
}

var (
	_ tea.Msg = progressMsg{}
	_ tea.Msg = convertDoneMsg{}
	_ tea.Msg = downloadDoneMsg{}
)
