package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/desertthunder/cratesync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive playlist picker.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if r.fetcher == nil {
		return fmt.Errorf("%w: configure Spotify credentials and run 'cratesync auth login'", shared.ErrNotAuthenticated)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger("./tmp/cratesync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	root := r.libraryRoot("")
	engine, done := r.newEngine(root, "")
	defer done()

	model := ui.NewModel(ctx, r.fetcher, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
