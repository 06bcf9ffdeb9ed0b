package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cratesync/internal/formatter"
	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/tasks"
)

// ViewState represents the current view in the picker.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	ExtractView
	ResultView
)

// Model represents the picker application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	fetcher      services.Fetcher
	engine       *tasks.ReconcileEngine
	width        int
	height       int
	playlistList list.Model
	playlists    []models.Playlist
	selected     *models.Playlist
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	report       *models.Report
	err          error
	help         help.Model
	keys         keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type extractDoneMsg struct {
	report *models.Report
	err    error
}

// NewModel creates a new picker model with the provided dependencies.
func NewModel(ctx context.Context, fetcher services.Fetcher, engine *tasks.ReconcileEngine) *Model {
	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		fetcher: fetcher,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the picker by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("%s Playlists", m.fetcher.Name())
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case extractDoneMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case ExtractView:
		return m.renderExtract()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selected = &pl.playlist
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.selected = nil
		m.view = PlaylistListView
		return m, nil
	case "y", "enter":
		m.view = ExtractView
		return m, m.startExtract()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selected = nil
		m.report = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == PlaylistListView {
		m.playlistList, cmd = m.playlistList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.fetcher.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startExtract() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		report, err := m.engine.Extract(m.ctx, m.selected.ID, m.progressChan)
		m.report = report
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return extractDoneMsg{report: m.report, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return extractDoneMsg{report: m.report, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Extract '%s' into the library?", m.selected.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\n", m.selected.Name, m.selected.TrackCount)
	if m.selected.Owner != "" {
		info = fmt.Sprintf("%sOwner: %s\n", info, m.selected.Owner)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExtract() string {
	title := styles.title.Render(fmt.Sprintf("Extracting '%s'", m.selected.Name))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSnapshot:
		phase = "Fetching remote snapshot..."
	case tasks.LoadManifest:
		phase = "Loading manifest..."
	case tasks.ScanFolder:
		phase = "Scanning folder..."
	case tasks.Reconcile:
		phase = fmt.Sprintf("Reconciling entries (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.MatchFiles:
		phase = fmt.Sprintf("Matching files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteFiles:
		phase = "Writing playlist files..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Extraction failed: %v\n\nPress r to pick another playlist, q to quit", m.err))
	}

	if m.report == nil {
		return styles.err.Render("No report available\n\nPress r to pick another playlist, q to quit")
	}

	title := styles.ok.Render("✓ Extraction Complete")
	info := fmt.Sprintf("\nPlaylist: %s\nDrift: %s", m.selected.Name, formatter.Summary(m.report))

	var pending string
	if len(m.report.Added) > 0 {
		pending = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d tracks awaiting download:", len(m.report.Added))))
		for _, change := range m.report.Added {
			pending += fmt.Sprintf("\n  • %s - %s", change.Artist, change.Title)
		}
		pending += fmt.Sprintf("\n\n%s", styles.help.Render("Download them into the folder, then run 'cratesync consolidate'."))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, pending, helpView)
}
