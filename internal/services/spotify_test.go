package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/cratesync/internal/shared"
	tu "github.com/desertthunder/cratesync/internal/testing"
)

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func fetcherWith(fn tu.RoundTripFunc) *SpotifyFetcher {
	return NewSpotifyFetcherWithClient(&http.Client{Transport: fn})
}

func trackItemJSON(id, title string, ms int, artists ...string) string {
	quoted := make([]string, len(artists))
	for i, a := range artists {
		quoted[i] = fmt.Sprintf(`{"name":%q}`, a)
	}
	return fmt.Sprintf(`{"track":{"type":"track","id":%q,"name":%q,"duration_ms":%d,"artists":[%s],"album":{"name":"Album"}}}`,
		id, title, ms, strings.Join(quoted, ","))
}

func TestParsePlaylistID(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare id", input: testPlaylistID, want: testPlaylistID},
		{name: "padded id", input: "  " + testPlaylistID + " ", want: testPlaylistID},
		{name: "uri", input: "spotify:playlist:" + testPlaylistID, want: testPlaylistID},
		{name: "url", input: "https://open.spotify.com/playlist/" + testPlaylistID, want: testPlaylistID},
		{name: "url with tracking", input: "https://open.spotify.com/playlist/" + testPlaylistID + "?si=abc", want: testPlaylistID},
		{name: "track uri rejected", input: "spotify:track:4uLU6hMCjMI75M1A2tKUQC", wantErr: true},
		{name: "garbage", input: "not a playlist", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Fatalf("ParsePlaylistID(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlaylistID(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewAuthenticator(t *testing.T) {
	t.Run("With Valid Credentials", func(t *testing.T) {
		auth, err := NewAuthenticator(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		url := auth.AuthURL("test_state")
		if !strings.Contains(url, "accounts.spotify.com") {
			t.Error("auth URL should point at the Spotify accounts service")
		}
		if !strings.Contains(url, "test_state") {
			t.Error("auth URL should carry the state parameter")
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		_, err := NewAuthenticator(shared.SpotifyConfig{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestNewSpotifyFetcher(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		_, err := NewSpotifyFetcher(context.Background(), shared.SpotifyConfig{}, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Not Logged In", func(t *testing.T) {
		cfg := shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"}
		_, err := NewSpotifyFetcher(context.Background(), cfg, nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Fetcher Interface", func(t *testing.T) {
		var _ Fetcher = (*SpotifyFetcher)(nil)
	})
}

func TestSpotifyFetcherPlaylist(t *testing.T) {
	body := fmt.Sprintf(`{
		"id": %q,
		"name": "Late Nights",
		"description": "after hours",
		"public": true,
		"owner": {"id": "user1", "display_name": "DJ"},
		"external_urls": {"spotify": "https://open.spotify.com/playlist/%s"},
		"tracks": {"total": 2}
	}`, testPlaylistID, testPlaylistID)

	f := fetcherWith(func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.Path, "/playlists/"+testPlaylistID) {
			t.Errorf("unexpected request path %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	pl, err := f.Playlist(context.Background(), testPlaylistID)
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}

	if pl.ID != testPlaylistID {
		t.Errorf("ID = %q, want %q", pl.ID, testPlaylistID)
	}
	if pl.Name != "Late Nights" {
		t.Errorf("Name = %q, want %q", pl.Name, "Late Nights")
	}
	if pl.Description != "after hours" {
		t.Errorf("Description = %q", pl.Description)
	}
	if pl.TrackCount != 2 {
		t.Errorf("TrackCount = %d, want 2", pl.TrackCount)
	}
	if pl.Owner != "DJ" {
		t.Errorf("Owner = %q, want display name", pl.Owner)
	}
	if !pl.Public {
		t.Error("Public = false, want true")
	}
	if pl.URL != "https://open.spotify.com/playlist/"+testPlaylistID {
		t.Errorf("URL = %q", pl.URL)
	}
}

func TestSpotifyFetcherPlaylistTracks(t *testing.T) {
	// Page one is full, so the fetcher has to come back for page two,
	// which carries a null item (a track removed from the catalog).
	firstItems := make([]string, trackPageLimit)
	for i := range firstItems {
		firstItems[i] = trackItemJSON(fmt.Sprintf("id%04d", i), fmt.Sprintf("Track %d", i), 200000, "Artist")
	}
	firstPage := fmt.Sprintf(`{"items":[%s],"total":%d}`, strings.Join(firstItems, ","), trackPageLimit+1)
	secondPage := fmt.Sprintf(`{"items":[{"track":null},%s],"total":%d}`,
		trackItemJSON("idlast", "Closer", 320000, "Nine Inch Nails", "Trent Reznor"), trackPageLimit+1)

	var offsets []string
	f := fetcherWith(func(r *http.Request) (*http.Response, error) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		if offset == "0" || offset == "" {
			return jsonResponse(http.StatusOK, firstPage), nil
		}
		return jsonResponse(http.StatusOK, secondPage), nil
	})

	tracks, err := f.PlaylistTracks(context.Background(), testPlaylistID)
	if err != nil {
		t.Fatalf("PlaylistTracks() error = %v", err)
	}

	if len(offsets) != 2 {
		t.Fatalf("made %d requests (%v), want 2 pages", len(offsets), offsets)
	}
	if len(tracks) != trackPageLimit+1 {
		t.Fatalf("got %d tracks, want %d", len(tracks), trackPageLimit+1)
	}

	for i, track := range tracks {
		if track.Position != i {
			t.Fatalf("tracks[%d].Position = %d, positions must be sequential", i, track.Position)
		}
	}

	last := tracks[trackPageLimit]
	if last.ID != "idlast" || last.Title != "Closer" {
		t.Errorf("last track = %+v, want the page-two track", last)
	}
	if last.Artist != "Nine Inch Nails, Trent Reznor" {
		t.Errorf("Artist = %q, want joined artist names", last.Artist)
	}
	if last.DurationSecs != 320 {
		t.Errorf("DurationSecs = %d, want milliseconds converted", last.DurationSecs)
	}
	if last.Album != "Album" {
		t.Errorf("Album = %q", last.Album)
	}
}

func TestSpotifyFetcherPlaylists(t *testing.T) {
	body := fmt.Sprintf(`{"items":[
		{"id": %q, "name": "Late Nights", "public": false,
		 "owner": {"id": "user1"},
		 "external_urls": {"spotify": "https://open.spotify.com/playlist/%s"},
		 "tracks": {"total": 42}}
	],"total":1}`, testPlaylistID, testPlaylistID)

	f := fetcherWith(func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.Path, "/me/playlists") {
			t.Errorf("unexpected request path %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	playlists, err := f.Playlists(context.Background())
	if err != nil {
		t.Fatalf("Playlists() error = %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("got %d playlists, want 1", len(playlists))
	}

	pl := playlists[0]
	if pl.Name != "Late Nights" || pl.TrackCount != 42 {
		t.Errorf("playlist = %+v", pl)
	}
	if pl.Owner != "user1" {
		t.Errorf("Owner = %q, want ID fallback when display name is empty", pl.Owner)
	}
}

func TestSpotifyFetcherErrorMapping(t *testing.T) {
	tc := []struct {
		name   string
		status int
		want   error
	}{
		{name: "expired token", status: http.StatusUnauthorized, want: shared.ErrTokenExpired},
		{name: "forbidden", status: http.StatusForbidden, want: shared.ErrAuthFailed},
		{name: "unknown playlist", status: http.StatusNotFound, want: shared.ErrPlaylistNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, want: shared.ErrTransientNetwork},
		{name: "server error", status: http.StatusInternalServerError, want: shared.ErrTransientNetwork},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"error":{"status":%d,"message":"nope"}}`, tt.status)
			f := fetcherWith(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, body), nil
			})

			_, err := f.Playlist(context.Background(), testPlaylistID)
			if !errors.Is(err, tt.want) {
				t.Errorf("Playlist() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		f := fetcherWith(func(r *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		})

		_, err := f.PlaylistTracks(context.Background(), testPlaylistID)
		if !errors.Is(err, shared.ErrTransientNetwork) {
			t.Errorf("PlaylistTracks() error = %v, want ErrTransientNetwork", err)
		}
	})
}

type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}

func TestRefreshingTokenSource(t *testing.T) {
	t.Run("silent while token unchanged", func(t *testing.T) {
		calls := 0
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "stored"}}
		source := &refreshingTokenSource{
			source:    mock,
			last:      "stored",
			onRefresh: func(*oauth2.Token) { calls++ },
		}

		if _, err := source.Token(); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if calls != 0 {
			t.Errorf("onRefresh fired %d times for an unchanged token", calls)
		}
	})

	t.Run("reports rotation once", func(t *testing.T) {
		var seen []string
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "stored"}}
		source := &refreshingTokenSource{
			source: mock,
			last:   "stored",
			onRefresh: func(tok *oauth2.Token) {
				seen = append(seen, tok.AccessToken)
			},
		}

		mock.token = &oauth2.Token{AccessToken: "rotated"}
		_, _ = source.Token()
		_, _ = source.Token()

		if len(seen) != 1 || seen[0] != "rotated" {
			t.Errorf("onRefresh calls = %v, want single rotation report", seen)
		}
	})

	t.Run("propagates errors", func(t *testing.T) {
		mock := &mockTokenSource{err: fmt.Errorf("refresh rejected")}
		source := &refreshingTokenSource{source: mock}

		if _, err := source.Token(); err == nil {
			t.Error("expected error from underlying source")
		}
	})
}
