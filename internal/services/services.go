// package services defines interface Fetcher for reading remote playlists
//
// Spotify (via the Web API)
package services

import (
	"context"

	"github.com/desertthunder/cratesync/internal/models"
)

// Fetcher is the read-only view of a remote playlist provider. Extraction
// and consolidation treat whatever it returns as the source of truth for a
// playlist's membership and order; nothing behind this interface mutates
// the remote side.
type Fetcher interface {
	// Playlist retrieves a playlist's metadata by ID.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// PlaylistTracks retrieves the complete track listing of a playlist,
	// in playlist order, across however many pages the provider needs.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.RemoteTrack, error)

	// Playlists retrieves all playlists of the authenticated user.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// Name returns the provider name (e.g. "Spotify").
	Name() string
}
