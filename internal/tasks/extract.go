package tasks

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/manifest"
	"github.com/desertthunder/cratesync/internal/models"
)

// Extract implements [Engine].
//
// The remote snapshot is fetched before anything local is touched, so an
// authentication or network failure aborts the run with the previous
// manifest and playlist intact.
func (e *ReconcileEngine) Extract(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*models.Report, error) {
	startedAt := e.now()

	e.sendProgress(progress, fetchSnapshotUpdate(e.fetcher.Name()))

	pl, err := e.fetcher.Playlist(ctx, playlistID)
	if err != nil {
		e.recordRun(playlistID, "", models.KindExtract, nil, startedAt, err)
		return nil, err
	}

	tracks, err := e.fetcher.PlaylistTracks(ctx, playlistID)
	if err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, nil, startedAt, err)
		return nil, err
	}

	e.sendProgress(progress, snapshotFetchedUpdate(pl, len(tracks)))
	e.cacheSnapshot(pl.ID, tracks)

	// Local files are named after the remote playlist unless overridden.
	name := pl.Name
	if e.folderName != "" {
		name = e.folderName
	}

	folder := library.FolderFor(e.root, name)
	if err := os.MkdirAll(folder, 0755); err != nil {
		err = fmt.Errorf("failed to create playlist folder: %w", err)
		e.recordRun(pl.ID, pl.Name, models.KindExtract, nil, startedAt, err)
		return nil, err
	}

	store := manifest.StoreFor(folder)
	e.sendProgress(progress, loadManifestUpdate(store.Path()))

	entries, deduped, err := store.Load()
	if err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, nil, startedAt, err)
		return nil, err
	}

	e.sendProgress(progress, scanFolderUpdate(folder))

	files, err := e.scanner.Scan(folder)
	if err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, nil, startedAt, err)
		return nil, err
	}

	report := &models.Report{
		PlaylistID:   pl.ID,
		PlaylistName: pl.Name,
		Kind:         models.KindExtract.String(),
		Deduplicated: deduped,
	}

	e.applySnapshot(entries, tracks, report, progress)
	e.observeMissing(entries, files, report)

	e.sendProgress(progress, writeFilesUpdate(folder))

	if err := store.Save(entries); err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, report, startedAt, err)
		return nil, err
	}

	if err := library.WriteM3U8(library.PlaylistPath(folder, name), playlistEntries(entries, tracks)); err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, report, startedAt, err)
		return nil, err
	}

	if err := library.WriteLinkFile(folder, name, pl.URL); err != nil {
		e.recordRun(pl.ID, pl.Name, models.KindExtract, report, startedAt, err)
		return nil, err
	}

	e.logger.Info("extraction complete",
		"playlist", pl.Name,
		"tracks", len(tracks),
		"added", len(report.Added),
		"orphaned", len(report.Orphaned))
	e.recordRun(pl.ID, pl.Name, models.KindExtract, report, startedAt, nil)

	return report, nil
}

// applySnapshot folds a fresh remote snapshot into the manifest mapping.
//
// Known identifiers get their position and metadata refreshed without
// touching state; unknown ones become pending entries. Identifiers the
// snapshot no longer carries are flagged orphaned but kept, since the
// downloaded file (if any) is still a user asset. Whether an orphan is
// finally kept or dropped is decided during consolidation.
func (e *ReconcileEngine) applySnapshot(entries map[string]models.ManifestEntry, tracks []models.RemoteTrack, report *models.Report, progress chan<- ProgressUpdate) {
	seen := make(map[string]bool, len(tracks))

	for i, track := range tracks {
		e.sendProgress(progress, reconcileUpdate(i+1, len(tracks)))
		seen[track.ID] = true

		entry, ok := entries[track.ID]
		if !ok {
			entry = models.ManifestEntry{
				ID:       track.ID,
				AddedAt:  e.now(),
				Artist:   track.Artist,
				Title:    track.Title,
				Filename: library.CanonicalName(track.Artist, track.Title, ""),
				State:    models.StatePending,
				Position: track.Position,
			}
			entries[track.ID] = entry
			report.Added = append(report.Added, change(entry, ""))
			continue
		}

		if entry.Flags.Orphaned || entry.Flags.LocalOnly {
			entry.Flags = models.EntryFlags{}
			report.Added = append(report.Added, change(entry, "restored to remote playlist"))
		}

		if entry.Artist != track.Artist || entry.Title != track.Title {
			report.Retitled = append(report.Retitled, models.Change{
				ID:     entry.ID,
				Artist: track.Artist,
				Title:  track.Title,
				Detail: fmt.Sprintf("was %s - %s", entry.Artist, entry.Title),
			})
			entry.Artist = track.Artist
			entry.Title = track.Title
			if entry.State == models.StatePending {
				entry.Filename = library.CanonicalName(track.Artist, track.Title, "")
			}
		}

		if entry.Position != track.Position {
			report.Moved = append(report.Moved, change(entry,
				fmt.Sprintf("position %d to %d", entry.Position, track.Position)))
			entry.Position = track.Position
		}

		entries[track.ID] = entry
	}

	for _, entry := range sortedEntries(entries) {
		if seen[entry.ID] || entry.Flags.LocalOnly {
			continue
		}
		entry.Flags.Orphaned = true
		entries[entry.ID] = entry
		report.Orphaned = append(report.Orphaned, change(entry, "no longer in remote playlist"))
	}
}

// observeMissing reports downloaded entries whose file the scan did not
// find. The state transition itself belongs to consolidation; extraction
// only surfaces the drift.
func (e *ReconcileEngine) observeMissing(entries map[string]models.ManifestEntry, files []models.LocalFile, report *models.Report) {
	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f.Name] = true
	}

	for _, entry := range sortedEntries(entries) {
		if entry.State == models.StateDownloaded && !onDisk[entry.Filename] {
			report.Missing = append(report.Missing, change(entry, "file not found on disk"))
		}
	}
}

// playlistEntries builds the .m3u8 rows: snapshot order, downloaded
// entries only. Pending tracks have no file yet and orphans are not in the
// snapshot, so both drop out naturally.
func playlistEntries(entries map[string]models.ManifestEntry, tracks []models.RemoteTrack) []library.PlaylistEntry {
	var rows []library.PlaylistEntry
	for _, track := range tracks {
		entry, ok := entries[track.ID]
		if !ok || entry.State != models.StateDownloaded {
			continue
		}
		rows = append(rows, library.PlaylistEntry{
			Filename:     entry.Filename,
			Artist:       entry.Artist,
			Title:        entry.Title,
			DurationSecs: track.DurationSecs,
		})
	}
	return rows
}

// sortedEntries returns the manifest mapping as a slice in the same stable
// order the store writes rows: artist, title (case insensitive), then
// identifier. Reports stay deterministic across runs this way.
func sortedEntries(entries map[string]models.ManifestEntry) []models.ManifestEntry {
	rows := make([]models.ManifestEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entry)
	}
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := strings.ToLower(rows[i].Artist), strings.ToLower(rows[j].Artist)
		if ai != aj {
			return ai < aj
		}
		ti, tj := strings.ToLower(rows[i].Title), strings.ToLower(rows[j].Title)
		if ti != tj {
			return ti < tj
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

// change builds a report line from a manifest entry.
func change(e models.ManifestEntry, detail string) models.Change {
	return models.Change{ID: e.ID, Artist: e.Artist, Title: e.Title, Detail: detail}
}
