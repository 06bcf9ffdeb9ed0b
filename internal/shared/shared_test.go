package shared

import (
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		secs int
		want string
	}{
		{name: "zero", secs: 0, want: "0:00"},
		{name: "under a minute", secs: 42, want: "0:42"},
		{name: "minutes", secs: 213, want: "3:33"},
		{name: "over an hour", secs: 3725, want: "1:02:05"},
		{name: "negative clamps to zero", secs: -5, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.secs); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.secs, got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Run("expands home prefix", func(t *testing.T) {
		got := ExpandPath("~/Music/playlists")
		if strings.HasPrefix(got, "~") {
			t.Errorf("ExpandPath left the prefix in place: %s", got)
		}
		if !strings.HasSuffix(got, "Music/playlists") {
			t.Errorf("ExpandPath lost the relative part: %s", got)
		}
	})

	t.Run("leaves absolute paths alone", func(t *testing.T) {
		if got := ExpandPath("/srv/music"); got != "/srv/music" {
			t.Errorf("ExpandPath(/srv/music) = %s", got)
		}
	})

	t.Run("leaves relative paths alone", func(t *testing.T) {
		if got := ExpandPath("music"); got != "music" {
			t.Errorf("ExpandPath(music) = %s", got)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %s", a)
	}
}
