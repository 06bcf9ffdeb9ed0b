package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/desertthunder/cratesync/internal/models"
)

// defaultExtensions covers the formats the external downloader produces.
var defaultExtensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".opus", ".wav"}

// Scanner derives matching evidence from the audio files of a playlist
// folder. Scans are read-only: the scanner never renames, moves, or
// deletes anything.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a [Scanner] accepting the given audio extensions
// (with leading dot, case insensitive). An empty list falls back to the
// defaults.
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return &Scanner{extensions: set}
}

// Scan lists the audio files of folder with whatever evidence each one
// carries: embedded tag metadata when readable, plus any track identifier
// recoverable from tags or the filename convention.
//
// Dotfiles and non-audio extensions are skipped. Tag read failures leave
// the tag fields empty rather than failing the scan; a file with no
// readable metadata is still evidence. Results come back in name order.
func (s *Scanner) Scan(folder string) ([]models.LocalFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}

	var files []models.LocalFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !s.extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Deleted between the listing and the stat; no longer evidence.
			continue
		}

		file := models.LocalFile{
			Path:    filepath.Join(folder, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			StemID:  StemID(name),
		}
		readTags(&file)
		files = append(files, file)
	}

	return files, nil
}

// readTags fills tag evidence from the file's embedded metadata,
// best effort.
func readTags(file *models.LocalFile) {
	f, err := os.Open(file.Path)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	file.TagTitle = strings.TrimSpace(m.Title())
	file.TagArtist = strings.TrimSpace(m.Artist())

	if id := ExtractTrackID(m.Comment()); id != "" {
		file.TagID = id
		return
	}
	for _, raw := range m.Raw() {
		switch v := raw.(type) {
		case string:
			if id := ExtractTrackID(v); id != "" {
				file.TagID = id
				return
			}
		case *tag.Comm:
			if id := ExtractTrackID(v.Text); id != "" {
				file.TagID = id
				return
			}
		}
	}
}
