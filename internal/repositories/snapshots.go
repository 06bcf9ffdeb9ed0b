package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cratesync/internal/models"
)

// SnapshotRepository caches the most recent remote snapshot per playlist.
//
// The cache exists so `cratesync status` can report the remote side without
// a network round trip. It is not a source of truth: reconciliation always
// fetches fresh, and every successful fetch replaces the cached rows
// wholesale.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Replace swaps the cached snapshot for a playlist in one transaction, so a
// reader never observes a half-replaced track list.
func (r *SnapshotRepository) Replace(playlistID string, tracks []models.RemoteTrack) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshot_tracks WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to clear cached snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshot_tracks (playlist_id, position, track_id, title, artist, album, duration_secs, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	fetchedAt := time.Now()
	for _, track := range tracks {
		_, err := tx.Exec(query,
			playlistID,
			track.Position,
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			track.DurationSecs,
			fetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// ListByPlaylist returns the cached snapshot for a playlist in position
// order, along with when it was fetched. An uncached playlist yields an
// empty slice and a zero time, not an error.
func (r *SnapshotRepository) ListByPlaylist(playlistID string) ([]models.RemoteTrack, time.Time, error) {
	query := `
		SELECT position, track_id, title, artist, album, duration_secs, fetched_at
		FROM snapshot_tracks
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var tracks []models.RemoteTrack
	var fetchedAt time.Time

	for rows.Next() {
		var track models.RemoteTrack
		if err := rows.Scan(&track.Position, &track.ID, &track.Title, &track.Artist, &track.Album, &track.DurationSecs, &fetchedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan snapshot track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, fetchedAt, nil
}

// Delete drops the cached snapshot for a playlist.
func (r *SnapshotRepository) Delete(playlistID string) error {
	if _, err := r.db.Exec("DELETE FROM snapshot_tracks WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
