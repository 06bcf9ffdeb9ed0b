package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/cratesync/internal/formatter"
	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/desertthunder/cratesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Consolidate matches downloaded files against pending manifest entries in
// one or more managed folders. Folders are selected by path, by playlist ID
// (--id), or all at once (--all).
func (r *Runner) Consolidate(ctx context.Context, cmd *cli.Command) error {
	dirArg := cmd.StringArg("dir")
	playlistID := cmd.String("id")
	all := cmd.Bool("all")
	refresh := cmd.Bool("refresh")
	useJSON := cmd.Bool("json")

	r.loadConfig(cmd)

	if refresh && r.fetcher == nil {
		return fmt.Errorf("%w: --refresh needs Spotify access, run 'cratesync auth login'", shared.ErrNotAuthenticated)
	}

	root := r.libraryRoot("")

	folders, err := r.resolveFolders(root, dirArg, playlistID, all)
	if err != nil {
		return err
	}

	engine, done := r.newEngine(root, "")
	defer done()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSnapshot:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ScanFolder:
				r.writePlain("📂 %s\n", update.Message)
			case tasks.MatchFiles:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.WriteFiles:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	var reports []*models.Report
	var failed int

	for _, folder := range folders {
		report, err := engine.Consolidate(ctx, folder, refresh, progressCh)
		if err != nil {
			failed++
			r.logger.Error("consolidation failed", "folder", folder, "error", err)
			if !all {
				close(progressCh)
				return err
			}
			continue
		}
		reports = append(reports, report)
	}
	close(progressCh)

	if useJSON {
		if !all && len(reports) == 1 {
			return r.writeJSON(reports[0], true)
		}
		return r.writeJSON(reports, true)
	}

	for _, report := range reports {
		text, err := formatter.ExportToText(report)
		if err != nil {
			return err
		}
		if err := r.writePlain("\n%s", text); err != nil {
			return err
		}
	}

	if all {
		r.writePlain("\n")
		r.writePlainHeader(fmt.Sprintf("Consolidated %d of %d folders", len(reports), len(folders)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d folders failed to consolidate", failed, len(folders))
	}

	return nil
}

// resolveFolders picks the managed folders a consolidation run covers.
func (r *Runner) resolveFolders(root, dirArg, playlistID string, all bool) ([]string, error) {
	switch {
	case all:
		folders, err := library.ManagedFolders(root)
		if err != nil {
			return nil, err
		}
		if len(folders) == 0 {
			return nil, fmt.Errorf("%w: no managed folders under %s", shared.ErrUnmanagedFolder, root)
		}
		return folders, nil

	case playlistID != "":
		folder, err := findFolderByID(root, playlistID)
		if err != nil {
			return nil, err
		}
		return []string{folder}, nil

	case dirArg != "":
		dir := shared.ExpandPath(dirArg)
		if !filepath.IsAbs(dir) {
			if _, err := os.Stat(dir); err != nil {
				dir = filepath.Join(root, dirArg)
			}
		}
		return []string{dir}, nil

	default:
		return nil, fmt.Errorf("%w: provide a folder path, --id, or --all", shared.ErrMissingArgument)
	}
}

// findFolderByID locates the managed folder whose link file points at the
// given playlist.
func findFolderByID(root, playlistID string) (string, error) {
	folders, err := library.ManagedFolders(root)
	if err != nil {
		return "", err
	}

	for _, folder := range folders {
		_, url, err := library.ReadLinkFile(folder)
		if err != nil {
			continue
		}
		id, err := services.ParsePlaylistID(url)
		if err != nil {
			continue
		}
		if id == playlistID {
			return folder, nil
		}
	}

	return "", fmt.Errorf("%w: no managed folder for playlist %s under %s", shared.ErrPlaylistNotFound, playlistID, root)
}
