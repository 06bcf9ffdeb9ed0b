// package tasks implements the extraction and consolidation reconcilers.
//
// The core abstraction is Engine, which orchestrates runs over a playlist
// folder. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
)

// DefaultThreshold is the minimum confidence score a fuzzy match needs
// before a pending entry is confirmed against a file.
const DefaultThreshold = 0.9

// Engine defines the reconciliation operations over a playlist folder.
type Engine interface {
	// Extract pulls the remote snapshot into local bookkeeping: new
	// identifiers become pending entries, departed ones are flagged
	// orphaned, and the .m3u8 is rewritten in snapshot order.
	Extract(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*models.Report, error)

	// Consolidate re-derives truth from the filesystem after an external
	// download step: pending entries are matched against files, files are
	// renamed to the canonical convention, and orphans are resolved.
	Consolidate(ctx context.Context, folder string, refresh bool, progress chan<- ProgressUpdate) (*models.Report, error)
}

// RunRecorder persists run history. Recording is best effort: failures are
// logged, never propagated, so a broken database cannot fail a run.
type RunRecorder interface {
	Create(run *models.Run) error
}

// SnapshotCacher persists the latest remote snapshot per playlist so status
// commands can answer without a network round trip.
type SnapshotCacher interface {
	Replace(playlistID string, tracks []models.RemoteTrack) error
}

// ReconcileEngine implements [Engine] over a library root on disk.
//
// All file mutations go through the injected rename and the atomic store
// writes; the engine itself is single-threaded per run.
type ReconcileEngine struct {
	fetcher    services.Fetcher
	scanner    *library.Scanner
	logger     *log.Logger
	root       string
	folderName string
	threshold  float64
	rename     func(oldpath, newpath string) error
	now        func() time.Time
	runs       RunRecorder
	snapshots  SnapshotCacher
}

// EngineOpts configures a [ReconcileEngine]. Zero values fall back to
// sensible defaults; only Root is required, and Fetcher is required for
// operations that contact the remote side.
type EngineOpts struct {
	Fetcher    services.Fetcher
	Root       string
	FolderName string // overrides the remote playlist name for local files
	Extensions []string
	Threshold  float64
	Logger     *log.Logger
	Rename     func(oldpath, newpath string) error
	Now        func() time.Time
	Runs       RunRecorder
	Snapshots  SnapshotCacher
}

// NewReconcileEngine creates an engine for the given library root.
func NewReconcileEngine(opts EngineOpts) *ReconcileEngine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Rename == nil {
		opts.Rename = os.Rename
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &ReconcileEngine{
		fetcher:    opts.Fetcher,
		scanner:    library.NewScanner(opts.Extensions),
		logger:     opts.Logger,
		root:       opts.Root,
		folderName: opts.FolderName,
		threshold:  opts.Threshold,
		rename:     opts.Rename,
		now:        opts.Now,
		runs:       opts.Runs,
		snapshots:  opts.Snapshots,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ReconcileEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// cacheSnapshot stores the fetched snapshot, best effort.
func (e *ReconcileEngine) cacheSnapshot(playlistID string, tracks []models.RemoteTrack) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.Replace(playlistID, tracks); err != nil {
		e.logger.Warn("failed to cache snapshot", "playlist", playlistID, "error", err)
	}
}

// recordRun appends the run to history, best effort.
func (e *ReconcileEngine) recordRun(playlistID, playlistName string, kind models.RunKind, report *models.Report, startedAt time.Time, runErr error) {
	if e.runs == nil {
		return
	}

	run := &models.Run{
		PlaylistID:   playlistID,
		PlaylistName: playlistName,
		Kind:         kind,
		Status:       models.RunStatusOK,
		StartedAt:    startedAt,
		FinishedAt:   e.now(),
	}
	if report != nil {
		run.Counts = models.CountsFromReport(report)
	}
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	}

	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record run", "playlist", playlistID, "error", err)
	}
}
