package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/cratesync/internal/manifest"
	"github.com/desertthunder/cratesync/internal/shared"
)

// LinkFilePath returns the hidden link file for a playlist folder, named
// after the sanitized playlist name.
func LinkFilePath(folder, name string) string {
	return filepath.Join(folder, "."+Sanitize(strings.TrimSpace(name)))
}

// WriteLinkFile records which remote playlist a folder mirrors: a comment
// line carrying the display name, then the playlist URL with tracking
// parameters stripped.
func WriteLinkFile(folder, name, url string) error {
	content := "# " + name + "\n" + CleanURL(url) + "\n"
	path := LinkFilePath(folder, name)
	if err := shared.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write link file: %w", err)
	}
	return nil
}

// ReadLinkFile locates the folder's link file and returns the recorded
// playlist name and URL. Any dotfile other than the manifest qualifies,
// since the file is named after the playlist itself.
//
// Returns [shared.ErrUnmanagedFolder] when the folder has no link file.
func ReadLinkFile(folder string) (name, url string, err error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", "", fmt.Errorf("failed to read folder: %w", err)
	}

	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(fname, ".") || fname == manifest.FileName {
			continue
		}

		data, err := os.ReadFile(filepath.Join(folder, fname))
		if err != nil {
			continue
		}

		name, url = parseLinkFile(string(data))
		if url == "" {
			continue
		}
		if name == "" {
			name = strings.TrimPrefix(fname, ".")
		}
		return name, url, nil
	}

	return "", "", fmt.Errorf("%w: no playlist link file in %s", shared.ErrUnmanagedFolder, folder)
}

// parseLinkFile reads the "# name" comment and the first non-comment line.
func parseLinkFile(content string) (name, url string) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if name == "" {
				name = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			}
			continue
		}
		if url == "" {
			url = line
		}
	}
	return name, url
}

// ManagedFolders lists the playlist folders under root, i.e. the
// subdirectories carrying a manifest file.
func ManagedFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read library root: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		if manifest.StoreFor(folder).Exists() {
			folders = append(folders, folder)
		}
	}

	return folders, nil
}
