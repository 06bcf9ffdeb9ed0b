package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratesync/internal/formatter"
	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/desertthunder/cratesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the authenticated user's remote playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.fetcher == nil {
		return fmt.Errorf("%w: configure Spotify credentials and run 'cratesync auth login'", shared.ErrNotAuthenticated)
	}

	r.logger.Infof("listing %s playlists with limit %v", r.fetcher.Name(), limit)

	playlists, err := r.fetcher.Playlists(ctx)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			if playlists, err = r.fetcher.Playlists(ctx); err != nil {
				return fmt.Errorf("failed to list playlists: %w", err)
			}
		} else {
			return fmt.Errorf("failed to list playlists: %w", err)
		}
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// Extract pulls a remote playlist snapshot into a managed library folder.
//
// New tracks become pending manifest entries, departed ones are flagged
// orphaned, and the folder's .m3u8 is rewritten in snapshot order.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	playlistArg := cmd.StringArg("playlist")
	useJSON := cmd.Bool("json")

	if playlistArg == "" {
		return fmt.Errorf("%w: playlist URL or ID is required", shared.ErrMissingArgument)
	}

	if r.fetcher == nil {
		return fmt.Errorf("%w: configure Spotify credentials and run 'cratesync auth login'", shared.ErrNotAuthenticated)
	}

	r.loadConfig(cmd)

	playlistID, err := services.ParsePlaylistID(playlistArg)
	if err != nil {
		return err
	}

	root := r.libraryRoot(cmd.String("dir"))
	folderName := cmd.String("name")

	r.logger.Info("starting extraction", "playlist", playlistID, "root", root)

	engine, done := r.newEngine(root, folderName)
	defer done()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSnapshot:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ScanFolder:
				r.writePlain("📂 %s\n", update.Message)
			case tasks.Reconcile:
				if update.Step == 0 {
					r.writePlain("🔀 %s\n", update.Message)
				}
			case tasks.WriteFiles:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	report, err := engine.Extract(ctx, playlistID, progressCh)
	close(progressCh)

	if err != nil {
		reauthed, authErr := r.handleAuthError(ctx, err)
		if !reauthed {
			return err
		}
		if authErr != nil {
			return authErr
		}

		retryEngine, retryDone := r.newEngine(root, folderName)
		defer retryDone()
		if report, err = retryEngine.Extract(ctx, playlistID, nil); err != nil {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(report, true)
	}

	text, err := formatter.ExportToText(report)
	if err != nil {
		return err
	}
	if err := r.writePlain("\n%s", text); err != nil {
		return err
	}

	if len(report.Added) > 0 {
		name := report.PlaylistName
		if folderName != "" {
			name = folderName
		}
		folder := library.FolderFor(root, name)
		r.writePlain("\n→ Download %d new tracks into %s\n", len(report.Added), folder)
		r.writePlain("→ Then run: cratesync consolidate %s\n", folder)
	}

	return nil
}
