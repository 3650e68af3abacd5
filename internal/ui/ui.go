package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sundazed/mymusic/internal/download"
	"github.com/sundazed/mymusic/internal/match"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConvertView ViewState = iota
	ResultView
	ConfirmView
	DownloadView
	DoneView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	matcher    *match.Matcher
	rows       []match.SourceRow
	opts       match.Options
	downloader *download.Downloader

	width  int
	height int

	resultList   list.Model
	result       *match.Result
	summary      *download.Summary
	progressChan chan match.ProgressUpdate
	convertDone  chan convertDoneMsg
	downloadDone chan downloadDoneMsg
	progress     match.ProgressUpdate
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. A nil downloader skips the download
// confirmation and ends the workflow at the result view.
func NewModel(ctx context.Context, matcher *match.Matcher, rows []match.SourceRow, opts match.Options, downloader *download.Downloader) *Model {
	return &Model{
		ctx:        ctx,
		view:       ConvertView,
		matcher:    matcher,
		rows:       rows,
		opts:       opts,
		downloader: downloader,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the conversion run.
func (m *Model) Init() tea.Cmd {
	return m.startConversion()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() != 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ResultView:
			return m.handleResultKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case DoneView:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		default:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
		return m, nil

	case progressMsg:
		m.progress = match.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case convertDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		m.convertDone = nil
		if msg.err != nil {
			return m, tea.Quit
		}
		m.buildResultList()
		m.view = ResultView
		return m, nil

	case downloadDoneMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.progressChan = nil
		m.downloadDone = nil
		m.view = DoneView
		return m, nil
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != DoneView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.downloader == nil || m.result == nil || len(m.result.Tracks) == 0 {
			return m, tea.Quit
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		return m, tea.Quit
	case "y":
		m.view = DownloadView
		return m, m.startDownloads()
	}
	return m, nil
}

func (m *Model) buildResultList() {
	items := make([]list.Item, 0, m.result.Total)
	for _, track := range m.result.Tracks {
		items = append(items, matchedItem{track: track})
	}
	for _, row := range m.result.NotFound {
		items = append(items, unmatchedItem{row: row})
	}

	m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = fmt.Sprintf("Matched %d of %d", m.result.SuccessCount, m.result.Total)
	m.resultList.SetSize(m.width-4, m.height-8)
}

// startConversion runs the matcher in a goroutine. Results travel back
// through the done channel so the worker never touches the model.
func (m *Model) startConversion() tea.Cmd {
	progress := make(chan match.ProgressUpdate, 50)
	done := make(chan convertDoneMsg, 1)
	m.progressChan = progress
	m.convertDone = done

	go func() {
		result, err := m.matcher.Convert(m.ctx, m.rows, m.opts, progress)
		close(progress)
		done <- convertDoneMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) startDownloads() tea.Cmd {
	progress := make(chan match.ProgressUpdate, 50)
	done := make(chan downloadDoneMsg, 1)
	m.progressChan = progress
	m.downloadDone = done

	tracks := m.result.Tracks
	go func() {
		summary, err := m.downloader.DownloadAll(m.ctx, tracks, progress)
		close(progress)
		done <- downloadDoneMsg{summary: summary, err: err}
	}()

	return m.waitForProgress()
}

// waitForProgress relays the next progress update, or the terminal message
// once the progress channel closes.
func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	convertDone := m.convertDone
	downloadDone := m.downloadDone
	return func() tea.Msg {
		if progress != nil {
			if update, ok := <-progress; ok {
				return progressMsg(update)
			}
		}
		if downloadDone != nil {
			return <-downloadDone
		}
		return <-convertDone
	}
}

func (m *Model) renderConvert() string {
	title := styles.title.Render("Converting Playlist")

	var phase string
	switch m.progress.Phase {
	case match.MatchRows, match.RowMatched, match.RowFailed:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	var enterHelp string
	if m.downloader != nil && m.result != nil && len(m.result.Tracks) > 0 {
		enterHelp = "download"
	} else {
		enterHelp = "finish"
	}
	enterKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", enterHelp))
	helpView := m.help.ShortHelpView([]key.Binding{enterKey, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Download %d matched tracks?", len(m.result.Tracks)))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading")
	phase := fmt.Sprintf("Track %d/%d", m.progress.Step, m.progress.Total)
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderDone() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Download failed: %v\n\nPress q to quit", m.err))
	}
	if m.summary == nil {
		return styles.warn.Render("No downloads ran\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Download Complete")
	info := fmt.Sprintf(
		"\nDownloaded: %d\nSkipped: %d\nFailed: %d",
		m.summary.SuccessCount,
		m.summary.SkippedCount,
		m.summary.FailedCount,
	)

	var failed string
	if m.summary.FailedCount > 0 {
		failed = "\n\n" + styles.warn.Render("Failed tracks:")
		for _, res := range m.summary.Results {
			if res.Err != nil {
				failed += fmt.Sprintf("\n  • %s - %s", res.Track.Artist, res.Track.Title)
			}
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}
