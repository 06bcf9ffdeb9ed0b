package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratesync/internal/repositories"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/desertthunder/cratesync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	fetcher    services.Fetcher
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Fetcher    services.Fetcher
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		fetcher:    opts.Fetcher,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to redirect logs to a file
// while the terminal UI owns the screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, extractCommand, consolidateCommand, statusCommand, historyCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig swaps in the config from --config when it names a different
// file than the one the runner was built with.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return r.config
	}

	r.config = config
	r.configPath = path
	return config
}

// saveTokens writes OAuth tokens into the runner's config and persists the
// config when it came from a file. An empty configPath updates in memory only.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if token == nil {
		return fmt.Errorf("failed to update spotify configuration: token cannot be nil")
	}

	r.config.Credentials.Spotify.UpdateToken(token)

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.config, r.configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// libraryRoot resolves the library root directory, preferring an explicit
// --dir value over the configured one.
func (r *Runner) libraryRoot(dir string) string {
	if dir != "" {
		return shared.ExpandPath(dir)
	}
	return shared.ExpandPath(r.config.Library.Root)
}

// openDatabase opens the run-history database and applies any pending
// migrations so commands work without an explicit setup step.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(shared.ExpandPath(r.config.Database.Path))
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// newEngine builds a reconcile engine over the given root. Run history and
// snapshot caching are wired in when the database opens; otherwise the
// engine runs without them.
func (r *Runner) newEngine(root, folderName string) (*tasks.ReconcileEngine, func()) {
	opts := tasks.EngineOpts{
		Fetcher:    r.fetcher,
		Root:       root,
		FolderName: folderName,
		Extensions: r.config.Library.Extensions,
		Threshold:  r.config.Matching.Threshold,
		Logger:     r.logger,
	}

	cleanup := func() {}
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("run history unavailable", "error", err)
	} else {
		opts.Runs = repositories.NewRunRepository(db)
		opts.Snapshots = repositories.NewSnapshotRepository(db)
		cleanup = func() { db.Close() }
	}

	return tasks.NewReconcileEngine(opts), cleanup
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
