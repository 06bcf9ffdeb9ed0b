// package models defines the data model for the playlist reconciliation engine
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	// Validate checks if the model's data is valid and returns an error if not
	Validate() error
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RemoteTrack is one track of a remote playlist snapshot, in playlist order.
//
// Snapshots are immutable within a run and rebuilt fresh on every fetch.
type RemoteTrack struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	Position     int
	DurationSecs int
}

// Playlist represents remote playlist metadata.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	URL         string
	Owner       string
	Public      bool
}

// EntryState tracks a manifest entry through its lifecycle.
type EntryState int

const (
	// StatePending marks a track known from the remote playlist but not
	// yet confirmed on disk.
	StatePending EntryState = iota
	// StateDownloaded marks a track matched to a local file.
	StateDownloaded
	// StateMissing marks a previously downloaded track whose file
	// disappeared.
	StateMissing
)

// String returns the manifest representation of the state.
func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloaded:
		return "downloaded"
	case StateMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// ParseEntryState converts a manifest field back into an [EntryState].
func ParseEntryState(s string) (EntryState, error) {
	switch s {
	case "pending":
		return StatePending, nil
	case "downloaded":
		return StateDownloaded, nil
	case "missing":
		return StateMissing, nil
	default:
		return StatePending, fmt.Errorf("unknown entry state %q", s)
	}
}

// EntryFlags carry reconciliation markers that must survive between runs.
type EntryFlags struct {
	// Orphaned is set when the identifier disappeared from the remote
	// snapshot during the last extraction.
	Orphaned bool
	// LocalOnly is set when an orphaned entry was retained because its
	// file still exists locally.
	LocalOnly bool
}

// String renders the flags as a comma-joined token list, empty when unset.
func (f EntryFlags) String() string {
	var tokens []string
	if f.Orphaned {
		tokens = append(tokens, "orphaned")
	}
	if f.LocalOnly {
		tokens = append(tokens, "local-only")
	}
	return strings.Join(tokens, ",")
}

// ParseEntryFlags reads a comma-joined token list. Unknown tokens are
// ignored so manifests written by newer versions still load.
func ParseEntryFlags(s string) EntryFlags {
	var f EntryFlags
	for _, token := range strings.Split(s, ",") {
		switch strings.TrimSpace(token) {
		case "orphaned":
			f.Orphaned = true
		case "local-only":
			f.LocalOnly = true
		}
	}
	return f
}

// ManifestEntry is the persistent record for one remote track identifier.
//
// Exactly one entry exists per identifier. Entries are mutated only by the
// extraction and consolidation reconcilers and deleted only when the
// identifier left the remote playlist and no local file matches it.
type ManifestEntry struct {
	ID       string
	AddedAt  time.Time
	Artist   string
	Title    string
	Filename string
	State    EntryState
	Position int
	Flags    EntryFlags
}

// LocalFile is scan evidence for one audio file in a playlist folder.
//
// Derived fresh on every scan and never persisted. Tag and stem fields are
// empty when the respective evidence is absent.
type LocalFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	TagTitle  string
	TagArtist string
	TagID     string
	StemID    string
}

// Identifier returns the best identifier evidence for the file. Embedded
// tags win over the filename convention since they survive renames.
func (f LocalFile) Identifier() string {
	if f.TagID != "" {
		return f.TagID
	}
	return f.StemID
}

// RunKind distinguishes the two reconciler entry points.
type RunKind int

const (
	KindExtract RunKind = iota
	KindConsolidate
)

// String returns the persisted name of the run kind.
func (k RunKind) String() string {
	switch k {
	case KindExtract:
		return "extract"
	case KindConsolidate:
		return "consolidate"
	default:
		return "unknown"
	}
}

// ParseRunKind converts a persisted name back into a [RunKind].
func ParseRunKind(s string) (RunKind, error) {
	switch s {
	case "extract":
		return KindExtract, nil
	case "consolidate":
		return KindConsolidate, nil
	default:
		return KindExtract, fmt.Errorf("unknown run kind %q", s)
	}
}

// Change describes one manifest entry a reconciler touched.
type Change struct {
	ID     string `json:"id"`
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Conflict describes a recoverable collision found during consolidation.
type Conflict struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Other  string `json:"other,omitempty"`
	Reason string `json:"reason"`
}

// Report groups everything a reconciliation run observed or changed.
//
// Reports are built by the reconcilers and rendered by the formatter;
// rendering never mutates state.
type Report struct {
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Kind         string `json:"kind"`

	Added        []Change `json:"added,omitempty"`
	Moved        []Change `json:"moved,omitempty"`
	Retitled     []Change `json:"retitled,omitempty"`
	Deduplicated []Change `json:"deduplicated,omitempty"`
	Confirmed    []Change `json:"confirmed,omitempty"`
	Renamed      []Change `json:"renamed,omitempty"`
	Orphaned     []Change `json:"orphaned,omitempty"`
	LocalOnly    []Change `json:"local_only,omitempty"`
	Removed      []Change `json:"removed,omitempty"`
	Missing      []Change `json:"missing,omitempty"`
	StillPending []Change `json:"still_pending,omitempty"`

	Unmanaged       []string   `json:"unmanaged,omitempty"`
	Ambiguous       []Conflict `json:"ambiguous,omitempty"`
	RenameConflicts []Conflict `json:"rename_conflicts,omitempty"`
}

// Empty reports whether the run observed no drift at all.
func (r *Report) Empty() bool {
	return len(r.Added) == 0 &&
		len(r.Moved) == 0 &&
		len(r.Retitled) == 0 &&
		len(r.Deduplicated) == 0 &&
		len(r.Confirmed) == 0 &&
		len(r.Renamed) == 0 &&
		len(r.Orphaned) == 0 &&
		len(r.LocalOnly) == 0 &&
		len(r.Removed) == 0 &&
		len(r.Missing) == 0 &&
		len(r.StillPending) == 0 &&
		len(r.Unmanaged) == 0 &&
		len(r.Ambiguous) == 0 &&
		len(r.RenameConflicts) == 0
}

// RunCounts aggregates report categories for the run history table.
type RunCounts struct {
	Added     int `json:"added"`
	Moved     int `json:"moved"`
	Confirmed int `json:"confirmed"`
	Renamed   int `json:"renamed"`
	Orphaned  int `json:"orphaned"`
	LocalOnly int `json:"local_only"`
	Removed   int `json:"removed"`
	Missing   int `json:"missing"`
	Unmanaged int `json:"unmanaged"`
	Ambiguous int `json:"ambiguous"`
	Conflicts int `json:"conflicts"`
}

// CountsFromReport folds a [Report] down to its category counts.
func CountsFromReport(r *Report) RunCounts {
	return RunCounts{
		Added:     len(r.Added),
		Moved:     len(r.Moved),
		Confirmed: len(r.Confirmed),
		Renamed:   len(r.Renamed),
		Orphaned:  len(r.Orphaned),
		LocalOnly: len(r.LocalOnly),
		Removed:   len(r.Removed),
		Missing:   len(r.Missing),
		Unmanaged: len(r.Unmanaged),
		Ambiguous: len(r.Ambiguous),
		Conflicts: len(r.RenameConflicts),
	}
}

// Run statuses persisted in the run history table.
const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)

// Run is one persisted reconciliation run.
type Run struct {
	ID           string     `json:"id"`
	Sequence     int        `json:"sequence"`
	PlaylistID   string     `json:"playlist_id"`
	PlaylistName string     `json:"playlist_name"`
	Kind         RunKind    `json:"kind"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	Counts       RunCounts  `json:"counts"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// Validate checks the fields the run history table constrains.
func (r *Run) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("run playlist id is required")
	}
	if r.Kind != KindExtract && r.Kind != KindConsolidate {
		return fmt.Errorf("invalid run kind %d", r.Kind)
	}
	if r.Status != RunStatusOK && r.Status != RunStatusFailed {
		return fmt.Errorf("invalid run status %q", r.Status)
	}
	return nil
}
