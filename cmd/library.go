package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/cratesync/internal/formatter"
	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/manifest"
	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/repositories"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// folderStatus summarizes one managed folder for the status command.
type folderStatus struct {
	Folder       string    `json:"folder"`
	Playlist     string    `json:"playlist"`
	PlaylistID   string    `json:"playlist_id,omitempty"`
	URL          string    `json:"url,omitempty"`
	Pending      int       `json:"pending"`
	Downloaded   int       `json:"downloaded"`
	Missing      int       `json:"missing"`
	Orphaned     int       `json:"orphaned"`
	LocalOnly    int       `json:"local_only"`
	AudioFiles   int       `json:"audio_files"`
	Unmanaged    int       `json:"unmanaged"`
	PlaylistRows int       `json:"playlist_rows"`
	CachedTracks int       `json:"cached_tracks,omitempty"`
	Runtime      string    `json:"runtime,omitempty"`
	FetchedAt    time.Time `json:"fetched_at,omitzero"`
}

// Status reports manifest and download state for one folder or for every
// managed folder under the library root. Read-only: nothing is fetched,
// renamed, or rewritten.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	dirArg := cmd.StringArg("dir")
	useJSON := cmd.Bool("json")

	r.loadConfig(cmd)
	root := r.libraryRoot("")

	var folders []string
	if dirArg != "" {
		dir := shared.ExpandPath(dirArg)
		if !filepath.IsAbs(dir) {
			if _, err := os.Stat(dir); err != nil {
				dir = filepath.Join(root, dirArg)
			}
		}
		folders = []string{dir}
	} else {
		var err error
		if folders, err = library.ManagedFolders(root); err != nil {
			return err
		}
		if len(folders) == 0 {
			r.writePlain("No managed folders under %s\n", root)
			return nil
		}
	}

	var snapshots *repositories.SnapshotRepository
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("snapshot cache unavailable", "error", err)
	} else {
		defer db.Close()
		snapshots = repositories.NewSnapshotRepository(db)
	}

	statuses := make([]folderStatus, 0, len(folders))
	for _, folder := range folders {
		status, err := r.folderStatus(folder, snapshots)
		if err != nil {
			return err
		}
		statuses = append(statuses, *status)
	}

	if useJSON {
		return r.writeJSON(statuses, true)
	}

	for i, s := range statuses {
		if i > 0 {
			r.writePlain("\n")
		}
		r.writePlain("%s\n", s.Playlist)
		r.writePlain("  Folder: %s\n", s.Folder)
		if s.PlaylistID != "" {
			r.writePlain("  Playlist ID: %s\n", s.PlaylistID)
		}
		r.writePlain("  Tracks: %d downloaded, %d pending, %d missing\n", s.Downloaded, s.Pending, s.Missing)
		if s.Orphaned > 0 {
			r.writePlain("  Orphaned: %d\n", s.Orphaned)
		}
		if s.LocalOnly > 0 {
			r.writePlain("  Local-only: %d\n", s.LocalOnly)
		}
		r.writePlain("  Audio files: %d (%d unmanaged)\n", s.AudioFiles, s.Unmanaged)
		if s.PlaylistRows != s.Downloaded {
			r.writePlain("  Playlist file: %d rows for %d downloaded tracks (stale; extract to refresh)\n", s.PlaylistRows, s.Downloaded)
		}
		if s.CachedTracks > 0 {
			r.writePlain("  Cached snapshot: %d tracks (%s) as of %s\n", s.CachedTracks, s.Runtime, s.FetchedAt.Format(time.RFC3339))
		}
	}

	return nil
}

// folderStatus gathers the status summary for a single managed folder.
func (r *Runner) folderStatus(folder string, snapshots *repositories.SnapshotRepository) (*folderStatus, error) {
	store := manifest.StoreFor(folder)
	if !store.Exists() {
		return nil, fmt.Errorf("%w: %s has no manifest, run 'cratesync extract' first", shared.ErrUnmanagedFolder, folder)
	}

	entries, _, err := store.Load()
	if err != nil {
		return nil, err
	}

	name, url, err := library.ReadLinkFile(folder)
	if err != nil {
		name, url = filepath.Base(folder), ""
	}

	status := &folderStatus{Folder: folder, Playlist: name, URL: url}
	if url != "" {
		if id, err := services.ParsePlaylistID(url); err == nil {
			status.PlaylistID = id
		}
	}

	claimed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		switch entry.State {
		case models.StatePending:
			status.Pending++
		case models.StateDownloaded:
			status.Downloaded++
			claimed[entry.Filename] = true
		case models.StateMissing:
			status.Missing++
		}
		if entry.Flags.Orphaned {
			status.Orphaned++
		}
		if entry.Flags.LocalOnly {
			status.LocalOnly++
		}
	}

	files, err := library.NewScanner(r.config.Library.Extensions).Scan(folder)
	if err != nil {
		return nil, err
	}
	status.AudioFiles = len(files)
	for _, file := range files {
		if !claimed[file.Name] {
			status.Unmanaged++
		}
	}

	if refs, err := library.ReadM3U8(library.PlaylistPath(folder, name)); err == nil {
		status.PlaylistRows = len(refs)
	}

	if snapshots != nil && status.PlaylistID != "" {
		if tracks, fetchedAt, err := snapshots.ListByPlaylist(status.PlaylistID); err == nil && len(tracks) > 0 {
			status.CachedTracks = len(tracks)
			status.FetchedAt = fetchedAt
			var secs int
			for _, track := range tracks {
				secs += track.DurationSecs
			}
			status.Runtime = shared.FormatDuration(secs)
		}
	}

	return status, nil
}

// History lists past reconciliation runs from the run-history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	playlist := cmd.String("playlist")
	kind := cmd.String("kind")
	useJSON := cmd.Bool("json")

	r.loadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	criteria := map[string]any{}
	if limit > 0 {
		criteria["limit"] = limit
	}
	if playlist != "" {
		criteria["playlist_id"] = playlist
	}
	if kind != "" {
		if _, err := models.ParseRunKind(kind); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		criteria["kind"] = kind
	}

	history, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if useJSON {
		return r.writeJSON(history, true)
	}

	if len(history) == 0 {
		r.writePlain("No runs recorded yet.\n")
		return nil
	}

	r.writePlain("Found %d runs:\n\n", len(history))
	for _, run := range history {
		symbol := "✓"
		if run.Status == models.RunStatusFailed {
			symbol = "✗"
		}
		r.writePlain("%s #%d %s %s (%s)\n", symbol, run.Sequence, run.Kind, run.PlaylistName, run.PlaylistID)
		r.writePlain("   Started: %s  Took: %s\n", run.StartedAt.Format(time.RFC3339), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		if run.Status == models.RunStatusFailed && run.Error != "" {
			r.writePlain("   Error: %s\n", run.Error)
		} else {
			r.writePlain("   Drift: %s\n", formatter.CountsSummary(run.Counts))
		}
		r.writePlain("\n")
	}

	return nil
}
