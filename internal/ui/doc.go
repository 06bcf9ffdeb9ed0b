// Package ui implements the interactive extraction picker using bubbletea's Elm architecture.
//
// The picker provides a multi-view workflow for pulling a remote playlist into the library:
//  1. [PlaylistListView] : Browse and select one of the user's playlists
//  2. [ConfirmView] : Confirm the extraction target
//  3. [ExtractView] : Monitor real-time progress updates
//  4. [ResultView] : Display the drift summary and tracks awaiting download
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the ReconcileEngine, providing non-blocking status reporting during extraction.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
