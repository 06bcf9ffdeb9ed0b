package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	// Credentials may come from the environment instead of config.toml.
	godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	ctx := context.Background()

	var fetcher services.Fetcher
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		onRefresh := func(token *oauth2.Token) {
			config.Credentials.Spotify.UpdateToken(token)
			if err := shared.SaveConfig(config, configPath); err != nil {
				logger.Warn("failed to persist refreshed token", "error", err)
			}
		}
		if f, err := services.NewSpotifyFetcher(ctx, config.Credentials.Spotify, onRefresh); err == nil {
			fetcher = f
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Fetcher:    fetcher,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "cratesync",
		Usage:    "Keep local playlist folders in sync with their remote playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
