package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file if needed, ensures the library root exists,
// and initializes the run-history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", path)
			if config, err = shared.LoadConfig(path); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.config = config
	r.configPath = path

	root := shared.ExpandPath(config.Library.Root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create library root: %w", err)
	}
	r.logger.Info("library root ready", "path", root)

	dbPath := shared.ExpandPath(config.Database.Path)
	r.logger.Info("initializing database", "path", dbPath)

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", dbPath)

	r.writePlain("✓ Config: %s\n", path)
	r.writePlain("✓ Library root: %s\n", root)
	r.writePlain("✓ Database: %s\n\n", dbPath)
	r.writePlain("Next: set Spotify credentials in %s (or SPOTIFY_ID / SPOTIFY_SECRET)\n", path)
	r.writePlain("then run 'cratesync auth login'\n")

	return nil
}
