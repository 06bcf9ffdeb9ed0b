package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/shared"
)

const (
	// FileName is the manifest's name inside a playlist folder.
	FileName = ".song_ids"

	// TimeLayout formats the added_at column.
	TimeLayout = "2006-01-02 15:04:05"
)

// Store provides typed access to one playlist folder's manifest file.
//
// All reads go through [Store.Load] and all writes through [Store.Save];
// nothing else in the system touches the file.
type Store struct {
	path string
}

// NewStore creates a [Store] for the manifest file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// StoreFor creates a [Store] for the manifest inside a playlist folder.
func StoreFor(folder string) *Store {
	return NewStore(filepath.Join(folder, FileName))
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the manifest file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the manifest into a mapping keyed by track identifier.
//
// A missing file yields an empty mapping. A present but unparseable file
// yields [shared.ErrCorruptManifest] with the offending line number; no
// malformed line is ever silently dropped. Duplicate identifiers are
// collapsed keeping the row with the newest added_at, and the collapsed
// rows are returned so callers can surface them.
func (s *Store) Load() (map[string]models.ManifestEntry, []models.Change, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]models.ManifestEntry{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	entries := make(map[string]models.ManifestEntry)
	var deduped []models.Change

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s line %d: %v", shared.ErrCorruptManifest, s.path, i+1, err)
		}

		if prev, ok := entries[entry.ID]; ok {
			kept, dropped := entry, prev
			if prev.AddedAt.After(entry.AddedAt) {
				kept, dropped = prev, entry
			}
			entries[kept.ID] = kept
			deduped = append(deduped, models.Change{
				ID:     dropped.ID,
				Artist: dropped.Artist,
				Title:  dropped.Title,
				Detail: "duplicate row collapsed",
			})
			continue
		}

		entries[entry.ID] = entry
	}

	return entries, deduped, nil
}

// Save writes the mapping back to disk atomically: the new content lands in
// a sibling temp file which then replaces the manifest, so a crash mid-write
// leaves the previous manifest intact.
//
// Output is deterministic: rows sorted by artist, title (case insensitive),
// then identifier, every row carrying all eight fields.
func (s *Store) Save(entries map[string]models.ManifestEntry) error {
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

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(formatLine(row))
		b.WriteByte('\n')
	}

	if err := shared.WriteFileAtomic(s.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

// parseLine reads one tab-separated manifest row.
//
// Rows need at least the five legacy fields (id, added_at, artist, title,
// filename); state, position, and flags default when absent so older
// manifests still load, and fields beyond the eighth are ignored so newer
// ones do too.
func parseLine(line string) (models.ManifestEntry, error) {
	var entry models.ManifestEntry

	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return entry, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}

	if fields[0] == "" {
		return entry, fmt.Errorf("empty track identifier")
	}
	entry.ID = fields[0]

	addedAt, err := time.Parse(TimeLayout, fields[1])
	if err != nil {
		return entry, fmt.Errorf("bad added_at %q", fields[1])
	}
	entry.AddedAt = addedAt

	entry.Artist = fields[2]
	entry.Title = fields[3]
	entry.Filename = fields[4]

	entry.State = models.StatePending
	if len(fields) > 5 && fields[5] != "" {
		state, err := models.ParseEntryState(fields[5])
		if err != nil {
			return entry, err
		}
		entry.State = state
	}

	entry.Position = -1
	if len(fields) > 6 && fields[6] != "" {
		position, err := strconv.Atoi(fields[6])
		if err != nil {
			return entry, fmt.Errorf("bad position %q", fields[6])
		}
		entry.Position = position
	}

	if len(fields) > 7 {
		entry.Flags = models.ParseEntryFlags(fields[7])
	}

	return entry, nil
}

// formatLine renders one manifest row with all eight fields.
func formatLine(e models.ManifestEntry) string {
	return strings.Join([]string{
		e.ID,
		e.AddedAt.Format(TimeLayout),
		e.Artist,
		e.Title,
		e.Filename,
		e.State.String(),
		strconv.Itoa(e.Position),
		e.Flags.String(),
	}, "\t")
}
