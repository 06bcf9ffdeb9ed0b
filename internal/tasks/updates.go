package tasks

import (
	"fmt"

	"github.com/desertthunder/cratesync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSnapshot Phase = iota
	LoadManifest
	ScanFolder
	Reconcile
	MatchFiles
	WriteFiles
)

func (p Phase) String() string {
	switch p {
	case FetchSnapshot:
		return "fetch_snapshot"
	case LoadManifest:
		return "load_manifest"
	case ScanFolder:
		return "scan_folder"
	case Reconcile:
		return "reconcile"
	case MatchFiles:
		return "match_files"
	case WriteFiles:
		return "write_files"
	default:
		return ""
	}
}

func fetchSnapshotUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist snapshot from %s...", name),
	}
}

func snapshotFetchedUpdate(pl *models.Playlist, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, tracks),
		Data:    pl,
	}
}

func loadManifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading manifest %s...", path),
	}
}

func scanFolderUpdate(folder string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFolder,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scanning %s...", folder),
	}
}

func reconcileUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: "Reconciling manifest against the snapshot...",
	}
}

func matchFilesUpdate(step, total int, entry *models.ManifestEntry) ProgressUpdate {
	if entry == nil {
		return ProgressUpdate{
			Phase:   MatchFiles,
			Step:    step,
			Total:   total,
			Message: "Matching pending entries against local files...",
		}
	}
	return ProgressUpdate{
		Phase:   MatchFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, entry.Artist, entry.Title),
	}
}

func writeFilesUpdate(folder string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest and playlist files to %s...", folder),
	}
}
