package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sundazed/mymusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI runs the interactive convert-and-download workflow.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	rows, playlistName, err := r.loadRows(cmd)
	if err != nil {
		return err
	}

	opts := r.matchOptions(cmd)
	opts.PlaylistName = playlistName

	downloader, err := r.downloader(cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.matcher(), rows, opts, downloader)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
