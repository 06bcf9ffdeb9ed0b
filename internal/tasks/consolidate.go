package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/manifest"
	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
)

// Consolidate implements [Engine].
//
// The downloader runs out of process between extraction and consolidation,
// so its effect is inferred purely by re-scanning the folder. With refresh
// set, a fresh snapshot is folded in first so tracks removed remotely since
// the last extraction are treated as orphans in the same run.
func (e *ReconcileEngine) Consolidate(ctx context.Context, folder string, refresh bool, progress chan<- ProgressUpdate) (*models.Report, error) {
	startedAt := e.now()

	store := manifest.StoreFor(folder)
	if !store.Exists() {
		return nil, fmt.Errorf("%w: no manifest in %s", shared.ErrUnmanagedFolder, folder)
	}

	name, url, err := library.ReadLinkFile(folder)
	if err != nil {
		// A manifest without a link file is still managed, just unlinked.
		name, url = filepath.Base(folder), ""
	}

	playlistID := name
	if url != "" {
		id, err := services.ParsePlaylistID(url)
		if err != nil {
			url = "" // unreadable link; treat the folder as unlinked
		} else {
			playlistID = id
		}
	}

	e.sendProgress(progress, loadManifestUpdate(store.Path()))

	entries, deduped, err := store.Load()
	if err != nil {
		e.recordRun(playlistID, name, models.KindConsolidate, nil, startedAt, err)
		return nil, err
	}

	report := &models.Report{
		PlaylistID:   playlistID,
		PlaylistName: name,
		Kind:         models.KindConsolidate.String(),
		Deduplicated: deduped,
	}

	if refresh {
		if url == "" {
			err := fmt.Errorf("%w: %s has no playlist link to refresh from", shared.ErrInvalidArgument, folder)
			e.recordRun(playlistID, name, models.KindConsolidate, nil, startedAt, err)
			return nil, err
		}

		e.sendProgress(progress, fetchSnapshotUpdate(e.fetcher.Name()))
		tracks, err := e.fetcher.PlaylistTracks(ctx, playlistID)
		if err != nil {
			e.recordRun(playlistID, name, models.KindConsolidate, nil, startedAt, err)
			return nil, err
		}
		e.cacheSnapshot(playlistID, tracks)
		e.applySnapshot(entries, tracks, report, progress)
	}

	e.sendProgress(progress, scanFolderUpdate(folder))

	files, err := e.scanner.Scan(folder)
	if err != nil {
		e.recordRun(playlistID, name, models.KindConsolidate, nil, startedAt, err)
		return nil, err
	}
	ff := newFolderFiles(files)

	e.resolveDownloaded(entries, ff, folder, report)
	e.resolveOrphans(entries, ff, report)
	e.resolvePending(entries, ff, folder, report, progress)

	for _, f := range ff.unclaimed() {
		report.Unmanaged = append(report.Unmanaged, f.Name)
	}

	e.sendProgress(progress, writeFilesUpdate(folder))

	if err := store.Save(entries); err != nil {
		e.recordRun(playlistID, name, models.KindConsolidate, report, startedAt, err)
		return nil, err
	}

	e.logger.Info("consolidation complete",
		"folder", folder,
		"confirmed", len(report.Confirmed),
		"renamed", len(report.Renamed),
		"missing", len(report.Missing),
		"unmanaged", len(report.Unmanaged))
	e.recordRun(playlistID, name, models.KindConsolidate, report, startedAt, nil)

	return report, nil
}

// resolveDownloaded re-checks entries matched to a file on a previous run.
// A file under the stored name is simply claimed; identifier evidence
// recovers files the user renamed and puts the canonical name back. A
// downloaded entry with no file left transitions to missing, and a missing
// entry whose file came back returns to downloaded.
func (e *ReconcileEngine) resolveDownloaded(entries map[string]models.ManifestEntry, ff *folderFiles, folder string, report *models.Report) {
	for _, entry := range sortedEntries(entries) {
		if entry.Flags.Orphaned || entry.Flags.LocalOnly {
			continue
		}
		if entry.State != models.StateDownloaded && entry.State != models.StateMissing {
			continue
		}

		if f, ok := ff.lookup(entry.Filename); ok {
			ff.claim(f.Name)
			if entry.State == models.StateMissing {
				entry.State = models.StateDownloaded
				entries[entry.ID] = entry
				report.Confirmed = append(report.Confirmed, change(entry, "file reappeared"))
			}
			continue
		}

		if picked, losers, ok := pickBest(ff.withIdentifier(entry.ID)); ok {
			reportAmbiguity(report, entry, picked, losers)

			oldName := picked.Name
			fixed, conflict := e.fixName(entry, picked, folder, ff)
			entry.Filename = fixed.Name
			entry.State = models.StateDownloaded
			entries[entry.ID] = entry

			if conflict != nil {
				report.RenameConflicts = append(report.RenameConflicts, *conflict)
				report.Confirmed = append(report.Confirmed, change(entry, "recovered by identifier"))
			} else {
				report.Renamed = append(report.Renamed, change(entry,
					fmt.Sprintf("%s renamed to %s", oldName, fixed.Name)))
			}
			continue
		}

		if entry.State == models.StateDownloaded {
			entry.State = models.StateMissing
			entries[entry.ID] = entry
			report.Missing = append(report.Missing, change(entry, "file deleted from disk"))
		}
	}
}

// resolveOrphans decides what happens to entries the remote playlist no
// longer carries. A file on disk keeps the row alive under a local-only
// tag; no file means nothing can be lost and the row is dropped for good.
// Orphan files belong to the user now, so they are never renamed.
func (e *ReconcileEngine) resolveOrphans(entries map[string]models.ManifestEntry, ff *folderFiles, report *models.Report) {
	for _, entry := range sortedEntries(entries) {
		if !entry.Flags.Orphaned && !entry.Flags.LocalOnly {
			continue
		}

		f, ok := ff.lookup(entry.Filename)
		if !ok {
			var losers []models.LocalFile
			if f, losers, ok = pickBest(ff.withIdentifier(entry.ID)); ok {
				reportAmbiguity(report, entry, f, losers)
			}
		}

		if !ok {
			delete(entries, entry.ID)
			report.Removed = append(report.Removed, change(entry, "gone from remote playlist and disk"))
			continue
		}

		ff.claim(f.Name)
		newlyTagged := !entry.Flags.LocalOnly
		entry.Filename = f.Name
		entry.State = models.StateDownloaded
		entry.Flags.LocalOnly = true
		entries[entry.ID] = entry
		if newlyTagged {
			report.LocalOnly = append(report.LocalOnly, change(entry, "kept; file still on disk"))
		}
	}
}

// resolvePending matches pending entries against the leftover files in
// playlist position order, so earlier tracks get first pick of contested
// files. A confident match transitions the entry to downloaded under the
// canonical name. A failed rename keeps the entry pending with the file
// claimed, so the next run retries instead of reporting it unmanaged.
func (e *ReconcileEngine) resolvePending(entries map[string]models.ManifestEntry, ff *folderFiles, folder string, report *models.Report, progress chan<- ProgressUpdate) {
	var pending []models.ManifestEntry
	for _, entry := range entries {
		if entry.State == models.StatePending && !entry.Flags.Orphaned && !entry.Flags.LocalOnly {
			pending = append(pending, entry)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Position != pending[j].Position {
			return pending[i].Position < pending[j].Position
		}
		return pending[i].ID < pending[j].ID
	})

	for i, entry := range pending {
		e.sendProgress(progress, matchFilesUpdate(i+1, len(pending), &entry))

		m, ok := e.matchPending(entry, ff)
		if !ok {
			report.StillPending = append(report.StillPending, change(entry, "no local file matched"))
			continue
		}
		reportAmbiguity(report, entry, m.file, m.losers)

		oldName := m.file.Name
		fixed, conflict := e.fixName(entry, m.file, folder, ff)
		if conflict != nil {
			// Stays pending so the rename is retried next run.
			report.RenameConflicts = append(report.RenameConflicts, *conflict)
			continue
		}

		entry.Filename = fixed.Name
		entry.State = models.StateDownloaded
		entries[entry.ID] = entry

		if fixed.Name != oldName {
			report.Renamed = append(report.Renamed, change(entry,
				fmt.Sprintf("%s renamed to %s", oldName, fixed.Name)))
		} else {
			report.Confirmed = append(report.Confirmed, change(entry, m.detail))
		}
	}
}

// reportAmbiguity records one conflict line per losing candidate. Losers
// stay unclaimed and end up in the unmanaged list; they are never deleted.
func reportAmbiguity(report *models.Report, entry models.ManifestEntry, picked models.LocalFile, losers []models.LocalFile) {
	for _, loser := range losers {
		report.Ambiguous = append(report.Ambiguous, models.Conflict{
			ID:     entry.ID,
			Path:   picked.Name,
			Other:  loser.Name,
			Reason: "multiple files match; most recently modified wins",
		})
	}
}
