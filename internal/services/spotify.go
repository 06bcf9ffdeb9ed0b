// Spotify API implementation of [Fetcher]
//
// Built on the zmb3/spotify client; endpoint reference at
// https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/shared"
)

// DefaultRedirectURI is used when the config file does not set one. It must
// match an allowed redirect URI of the registered Spotify application.
const DefaultRedirectURI = "http://127.0.0.1:8080/callback"

// The Web API throttles sustained traffic per client, so page fetches are
// spread out instead of relying on 429 retries.
const (
	apiRate  = 10 // sustained requests per second
	apiBurst = 2
)

// Page sizes, each at the API maximum for its endpoint.
const (
	playlistPageLimit = 50
	trackPageLimit    = 100
)

var (
	playlistURI    = regexp.MustCompile(`(?:spotify:playlist:|open\.spotify\.com/playlist/)([0-9A-Za-z]{22})`)
	barePlaylistID = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)
)

// ParsePlaylistID extracts a playlist ID from user input: a bare ID, a
// spotify:playlist: URI, or an open.spotify.com URL with or without
// tracking parameters.
func ParsePlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if m := playlistURI.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	if barePlaylistID.MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("%w: %q is not a playlist ID, URI, or URL", shared.ErrInvalidArgument, input)
}

// NewAuthenticator builds the OAuth2 authenticator for the login flow with
// the read-only playlist scopes.
func NewAuthenticator(cfg shared.SpotifyConfig) (*spotifyauth.Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: set credentials.spotify in the config file or the SPOTIFY_ID and SPOTIFY_SECRET environment variables", shared.ErrMissingCredentials)
	}

	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = DefaultRedirectURI
	}

	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(redirect),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
		),
	), nil
}

// SpotifyFetcher implements [Fetcher] for the Spotify Web API. All requests
// go through a shared rate limiter, and expired access tokens are refreshed
// transparently by the underlying [oauth2] transport.
type SpotifyFetcher struct {
	client  *spotify.Client
	limiter *rate.Limiter
}

// NewSpotifyFetcher builds a fetcher from stored credentials. The token
// must already exist (`cratesync auth login`); when the transport rotates
// it, the new token is reported through onRefresh so callers can persist
// it before the process exits.
func NewSpotifyFetcher(ctx context.Context, cfg shared.SpotifyConfig, onRefresh func(*oauth2.Token)) (*SpotifyFetcher, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: set credentials.spotify in the config file or the SPOTIFY_ID and SPOTIFY_SECRET environment variables", shared.ErrMissingCredentials)
	}

	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}

	source := &refreshingTokenSource{
		source:    conf.TokenSource(ctx, token),
		last:      token.AccessToken,
		onRefresh: onRefresh,
	}

	return NewSpotifyFetcherWithClient(oauth2.NewClient(ctx, source)), nil
}

// NewSpotifyFetcherWithClient wraps an existing HTTP client. Used by tests
// and by callers that manage their own token transport.
func NewSpotifyFetcherWithClient(httpClient *http.Client) *SpotifyFetcher {
	return &SpotifyFetcher{
		client:  spotify.New(httpClient),
		limiter: rate.NewLimiter(rate.Limit(apiRate), apiBurst),
	}
}

func (f *SpotifyFetcher) Name() string {
	return "Spotify"
}

// Playlist retrieves a playlist's metadata by ID.
func (f *SpotifyFetcher) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pl, err := f.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, mapError(err, playlistID)
	}

	owner := pl.Owner.DisplayName
	if owner == "" {
		owner = pl.Owner.ID
	}

	return &models.Playlist{
		ID:          string(pl.ID),
		Name:        pl.Name,
		Description: pl.Description,
		TrackCount:  int(pl.Tracks.Total),
		URL:         pl.ExternalURLs["spotify"],
		Owner:       owner,
		Public:      pl.IsPublic,
	}, nil
}

// PlaylistTracks retrieves the complete track listing of a playlist in
// playlist order. Episodes and tracks removed from the catalog come back
// as null items and are skipped; positions count delivered tracks.
func (f *SpotifyFetcher) PlaylistTracks(ctx context.Context, playlistID string) ([]models.RemoteTrack, error) {
	var tracks []models.RemoteTrack
	offset := 0

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := f.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(trackPageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, mapError(err, playlistID)
		}

		for _, item := range page.Items {
			track := item.Track.Track
			if track == nil {
				continue
			}

			names := make([]string, 0, len(track.Artists))
			for _, artist := range track.Artists {
				names = append(names, artist.Name)
			}

			tracks = append(tracks, models.RemoteTrack{
				ID:           string(track.ID),
				Title:        track.Name,
				Artist:       strings.Join(names, ", "),
				Album:        track.Album.Name,
				Position:     len(tracks),
				DurationSecs: int(track.Duration) / 1000,
			})
		}

		if len(page.Items) < trackPageLimit {
			break
		}
		offset += trackPageLimit
	}

	return tracks, nil
}

// Playlists retrieves all playlists of the authenticated user.
func (f *SpotifyFetcher) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := f.client.CurrentUsersPlaylists(ctx,
			spotify.Limit(playlistPageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, mapError(err, "")
		}

		for _, pl := range page.Playlists {
			owner := pl.Owner.DisplayName
			if owner == "" {
				owner = pl.Owner.ID
			}
			playlists = append(playlists, models.Playlist{
				ID:         string(pl.ID),
				Name:       pl.Name,
				TrackCount: int(pl.Tracks.Total),
				URL:        pl.ExternalURLs["spotify"],
				Owner:      owner,
				Public:     pl.IsPublic,
			})
		}

		if len(page.Playlists) < playlistPageLimit {
			break
		}
		offset += playlistPageLimit
	}

	return playlists, nil
}

// CurrentUserID returns the authenticated user's ID, which doubles as a
// check that the stored token still works.
func (f *SpotifyFetcher) CurrentUserID(ctx context.Context) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	user, err := f.client.CurrentUser(ctx)
	if err != nil {
		return "", mapError(err, "")
	}
	return user.ID, nil
}

// mapError converts Spotify API and token transport failures into the
// shared error taxonomy so callers can tell "log in again" from "retry
// later" without inspecting provider types.
func mapError(err error, playlistID string) error {
	var se spotify.Error
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, se.Message)
		case se.Status == http.StatusForbidden:
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, se.Message)
		case se.Status == http.StatusNotFound:
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		case se.Status == http.StatusTooManyRequests || se.Status >= 500:
			return fmt.Errorf("%w: spotify returned status %d", shared.ErrTransientNetwork, se.Status)
		}
		return err
	}

	// Refresh token rejected; the user has to log in again.
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: token refresh failed: %v", shared.ErrAuthFailed, re)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %v", shared.ErrTransientNetwork, err)
}

// refreshingTokenSource wraps an [oauth2.TokenSource] and reports tokens
// whose access token differs from the last one seen. Without this, a
// rotated refresh token would be lost when the process exits.
type refreshingTokenSource struct {
	mu        sync.Mutex
	source    oauth2.TokenSource
	last      string
	onRefresh func(*oauth2.Token)
}

func (s *refreshingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}
	if s.onRefresh != nil && token.AccessToken != s.last {
		s.last = token.AccessToken
		s.onRefresh(token)
	}
	return token, nil
}
