// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand bootstraps the config file and the run-history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand lists the authenticated user's remote playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List remote playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// extractCommand pulls a remote playlist into the local library.
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "extract",
		Aliases: []string{"pull"},
		Usage:   "Record a remote playlist's tracks locally and rewrite its .m3u8",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Library root directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Folder name to use instead of the playlist name",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the drift report as JSON",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Extract,
	}
}

// consolidateCommand reconciles downloaded files against the manifest.
func consolidateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "consolidate",
		Aliases: []string{"con"},
		Usage:   "Match downloaded files to pending tracks and normalize filenames",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "dir",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Re-fetch the remote snapshot before consolidating",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Resolve the folder by playlist ID instead of path",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Consolidate every managed folder under the library root",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the drift report as JSON",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Consolidate,
	}
}

// statusCommand summarizes managed folders without mutating anything.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show manifest and download state for managed folders",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "dir",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Status,
	}
}

// historyCommand lists past reconciliation runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"runs"},
		Usage:   "List past extraction and consolidation runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to return",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Filter runs by playlist ID",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Filter runs by kind (extract or consolidate)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.History,
	}
}

// browseCommand launches the interactive picker.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"ui"},
		Usage:   "Browse playlists interactively and extract one",
		Action:  r.Browse,
	}
}
