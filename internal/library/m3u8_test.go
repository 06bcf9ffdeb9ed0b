package library

import (
	"path/filepath"
	"reflect"
	"testing"

	tu "github.com/desertthunder/cratesync/internal/testing"
)

func TestWriteM3U8(t *testing.T) {
	dir := t.TempDir()
	path := PlaylistPath(dir, "Late Nights")

	entries := []PlaylistEntry{
		{Filename: "Daft Punk - One More Time.mp3", Artist: "Daft Punk", Title: "One More Time", DurationSecs: 320},
		{Filename: "Justice - Genesis.mp3", Artist: "Justice", Title: "Genesis"},
	}
	if err := WriteM3U8(path, entries); err != nil {
		t.Fatalf("WriteM3U8() error = %v", err)
	}

	want := "#EXTM3U\n" +
		"#EXTINF:320,Daft Punk - One More Time\n" +
		"Daft Punk - One More Time.mp3\n" +
		"#EXTINF:-1,Justice - Genesis\n" +
		"Justice - Genesis.mp3\n"
	if got := tu.MustReadFile(t, path); got != want {
		t.Errorf("playlist content = %q, want %q", got, want)
	}

	// Rewriting the same entries must reproduce the same bytes.
	if err := WriteM3U8(path, entries); err != nil {
		t.Fatalf("second WriteM3U8() error = %v", err)
	}
	if got := tu.MustReadFile(t, path); got != want {
		t.Errorf("rewrite changed bytes: %q", got)
	}
}

func TestWriteM3U8Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.m3u8")
	if err := WriteM3U8(path, nil); err != nil {
		t.Fatalf("WriteM3U8() error = %v", err)
	}
	if got := tu.MustReadFile(t, path); got != "#EXTM3U\n" {
		t.Errorf("empty playlist = %q, want header only", got)
	}
}

func TestReadM3U8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.m3u8")
	content := "#EXTM3U\r\n" +
		"#EXTINF:320,Daft Punk - One More Time\r\n" +
		"Daft Punk - One More Time.mp3\r\n" +
		"\r\n" +
		"Justice - Genesis.mp3\n"
	tu.MustWriteFile(t, path, content)

	refs, err := ReadM3U8(path)
	if err != nil {
		t.Fatalf("ReadM3U8() error = %v", err)
	}
	want := []string{"Daft Punk - One More Time.mp3", "Justice - Genesis.mp3"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ReadM3U8() = %v, want %v", refs, want)
	}
}

func TestReadM3U8Missing(t *testing.T) {
	if _, err := ReadM3U8(filepath.Join(t.TempDir(), "absent.m3u8")); err == nil {
		t.Fatal("ReadM3U8() on a missing file should fail")
	}
}

func TestPlaylistPath(t *testing.T) {
	got := PlaylistPath(filepath.Join("lib", "Late Nights"), " Mix: 2024? ")
	want := filepath.Join("lib", "Late Nights", "Mix_ 2024_.m3u8")
	if got != want {
		t.Errorf("PlaylistPath() = %q, want %q", got, want)
	}
}
