package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/cratesync/internal/shared"
)

// PlaylistEntry is one track line of an extended M3U playlist.
type PlaylistEntry struct {
	Filename     string
	Artist       string
	Title        string
	DurationSecs int
}

// PlaylistPath returns the .m3u8 location for a playlist folder and name.
func PlaylistPath(folder, name string) string {
	return filepath.Join(folder, Sanitize(strings.TrimSpace(name))+".m3u8")
}

// WriteM3U8 writes entries to path in extended M3U format: the #EXTM3U
// header, then an #EXTINF directive with duration and display title ahead
// of each filename. Durations the snapshot did not carry are written as -1.
//
// The write is atomic so two runs over identical input produce
// byte-identical files and a crash cannot truncate the playlist.
func WriteM3U8(path string, entries []PlaylistEntry) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range entries {
		secs := e.DurationSecs
		if secs <= 0 {
			secs = -1
		}
		fmt.Fprintf(&b, "#EXTINF:%d,%s - %s\n", secs, e.Artist, e.Title)
		b.WriteString(e.Filename)
		b.WriteByte('\n')
	}

	if err := shared.WriteFileAtomic(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

// ReadM3U8 returns the file references of an M3U playlist in order,
// skipping directives and blank lines. Handles both the plain and the
// extended format.
func ReadM3U8(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	return refs, nil
}
