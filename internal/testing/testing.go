// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/cratesync/internal/models"
)

// MockFetcher is a configurable test double for services.Fetcher.
type MockFetcher struct {
	PlaylistsByID map[string]*models.Playlist
	TracksByID    map[string][]models.RemoteTrack
	AllPlaylists  []models.Playlist
	Err           error
}

func (m *MockFetcher) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.PlaylistsByID[playlistID]; ok {
		return p, nil
	}
	return &models.Playlist{ID: playlistID, Name: playlistID}, nil
}

func (m *MockFetcher) PlaylistTracks(ctx context.Context, playlistID string) ([]models.RemoteTrack, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TracksByID[playlistID], nil
}

func (m *MockFetcher) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.AllPlaylists, nil
}

func (m *MockFetcher) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// RoundTripFunc adapts a function to http.RoundTripper for per-request
// response control.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// Touch creates an empty-ish file and pins its modification time, for
// tests that depend on mtime ordering.
func Touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to set mtime on %s: %v", path, err)
	}
}

// WriteMP3 creates a minimal MP3 file carrying an ID3v2.3 tag with the
// given title, artist, and comment, so tag-reading code paths can run
// against real bytes.
func WriteMP3(t *testing.T, path, title, artist, comment string) {
	t.Helper()

	var frames []byte
	if title != "" {
		frames = append(frames, textFrame("TIT2", title)...)
	}
	if artist != "" {
		frames = append(frames, textFrame("TPE1", artist)...)
	}
	if comment != "" {
		frames = append(frames, commentFrame(comment)...)
	}

	header := append([]byte("ID3"), 3, 0, 0)
	header = append(header, synchsafe(len(frames))...)

	data := append(header, frames...)
	// A sliver of fake audio data after the tag.
	data = append(data, 0xFF, 0xFB, 0x90, 0x00)

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write mp3 fixture %s: %v", path, err)
	}
}

// textFrame builds an ID3v2.3 text frame with ISO-8859-1 encoding.
func textFrame(id, value string) []byte {
	payload := append([]byte{0}, []byte(value)...)
	return append(frameHeader(id, len(payload)), payload...)
}

// commentFrame builds an ID3v2.3 COMM frame with an empty description.
func commentFrame(text string) []byte {
	payload := []byte{0}
	payload = append(payload, []byte("eng")...)
	payload = append(payload, 0)
	payload = append(payload, []byte(text)...)
	return append(frameHeader("COMM", len(payload)), payload...)
}

// frameHeader builds the 10-byte ID3v2.3 frame header; sizes are plain
// big-endian in 2.3, unlike the synchsafe tag size.
func frameHeader(id string, size int) []byte {
	header := []byte(id)
	header = binary.BigEndian.AppendUint32(header, uint32(size))
	return append(header, 0, 0)
}

// synchsafe packs a length into four 7-bit bytes per the ID3v2 spec.
func synchsafe(n int) []byte {
	return []byte{
		byte(n >> 21 & 0x7F),
		byte(n >> 14 & 0x7F),
		byte(n >> 7 & 0x7F),
		byte(n & 0x7F),
	}
}
