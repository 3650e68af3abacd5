// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist conversion:
//  1. [ConvertView] : Monitor row matching progress in real time
//  2. [ResultView] : Browse matched tracks and unmatched rows
//  3. [ConfirmView] : Confirm downloading the matched tracks
//  4. [DownloadView] : Monitor per-track download progress
//  5. [DoneView] : Display the final download summary
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the matching engine, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
