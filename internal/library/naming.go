package library

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultExtension names canonical files for tracks that have no local
// file yet.
const DefaultExtension = ".mp3"

var (
	// invalidChars matches characters that are unsafe in filenames on at
	// least one supported platform, plus control characters. Existing
	// library folders were named with these replaced by underscores, so
	// the class must not change without a migration.
	invalidChars = regexp.MustCompile(`[/#:|_<>\x00-\x1f?!]`)

	// reservedName matches Windows reserved device names when they make
	// up the whole stem of a filename.
	reservedName = regexp.MustCompile(`(?i)^(?:AUX|COM[1-9]|CON|LPT[1-9]|NUL|PRN)(\.|$)`)

	// trackStem splits an "Artist - Title" stem, tolerating spacing
	// around the separator and a trailing _N variant counter.
	trackStem = regexp.MustCompile(`^(.+?)\s*-\s*(.+?)(?:_(\d+))?$`)

	// variantSuffix captures the _N counter at the end of a stem.
	variantSuffix = regexp.MustCompile(`^(.+?)(?:_\d+)?$`)

	// trackURI finds a track identifier inside URI or URL shaped text.
	trackURI = regexp.MustCompile(`(?:spotify:track:|open\.spotify\.com/track/)([0-9A-Za-z]{22})`)

	// bareID matches text that is exactly one track identifier.
	bareID = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

	// stemIDSuffix matches the "Title [id]" filename convention some
	// downloaders use.
	stemIDSuffix = regexp.MustCompile(`\[([0-9A-Za-z]{22})\]$`)
)

// Sanitize replaces characters invalid in filenames on Linux, macOS, or
// Windows with underscores, along with reserved device names.
func Sanitize(name string) string {
	name = reservedName.ReplaceAllString(name, "_$1")
	return invalidChars.ReplaceAllString(name, "_")
}

// CanonicalName builds the expected "Artist - Title.ext" filename for a
// track. An empty ext falls back to [DefaultExtension].
func CanonicalName(artist, title, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return Sanitize(strings.TrimSpace(artist)+" - "+strings.TrimSpace(title)) + ext
}

// FolderFor returns the playlist folder under root for a playlist name.
func FolderFor(root, name string) string {
	return filepath.Join(root, Sanitize(strings.TrimSpace(name)))
}

// SplitStem parses a filename stem following the "Artist - Title"
// convention, tolerating a trailing variant counter.
func SplitStem(stem string) (artist, title string, ok bool) {
	m := trackStem.FindStringSubmatch(stem)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// MatchesBase reports whether filename is the canonical file for the given
// artist and title or one of its numbered variants ("base.ext",
// "base_1.ext", ...). Comparison is Unicode-normalized and case
// insensitive, matching how existing files were laid down.
func MatchesBase(filename, artist, title string) bool {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if m := variantSuffix.FindStringSubmatch(stem); m != nil {
		stem = m[1]
	}
	want := Sanitize(strings.TrimSpace(artist) + " - " + strings.TrimSpace(title))
	return foldKey(stem) == foldKey(want)
}

// ExtractTrackID pulls a track identifier out of tag or comment text.
// Accepts spotify:track: URIs, open.spotify.com URLs, and values that are
// exactly one bare identifier.
func ExtractTrackID(s string) string {
	if m := trackURI.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	s = strings.TrimSpace(s)
	if bareID.MatchString(s) {
		return s
	}
	return ""
}

// StemID extracts an identifier embedded in the filename itself, per the
// "Title [id].ext" convention.
func StemID(filename string) string {
	stem := strings.TrimSpace(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if m := stemIDSuffix.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return ""
}

// CleanURL strips tracking parameters from a playlist URL.
func CleanURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// foldKey normalizes text for name comparisons: NFC form, trimmed,
// lowercased.
func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
