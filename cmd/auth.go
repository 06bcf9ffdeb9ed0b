package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/cratesync/internal/server"
	"github.com/desertthunder/cratesync/internal/services"
	"github.com/desertthunder/cratesync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// oauthProvider is the pair of operations the login flow needs from the
// Spotify authenticator.
type oauthProvider interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(path); statErr == nil {
			config, err = shared.LoadConfig(path)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
		r.config = config
	}
	if path != "" {
		r.configPath = path
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	authenticator, err := services.NewAuthenticator(config.Credentials.Spotify)
	if err != nil {
		return fmt.Errorf("failed to create Spotify authenticator: %w", err)
	}

	token, err := r.doOAuth(config, authenticator, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: cratesync playlists\n")

	return nil
}

// AuthStatus reports the stored credential and token state, and verifies the
// token against the API when a client is available.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sp := r.config.Credentials.Spotify

	if sp.ClientID == "" || sp.ClientSecret == "" {
		r.writePlain("✗ No Spotify credentials configured\n")
		r.writePlain("Set client_id and client_secret in %s or via SPOTIFY_ID / SPOTIFY_SECRET\n", r.configPath)
		return nil
	}

	r.writePlain("✓ Credentials configured\n")

	token, err := sp.Token()
	if err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'cratesync auth login' to authorize\n")
		return nil
	}

	if !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) {
		if token.RefreshToken == "" {
			r.writePlain("✗ Access token expired and no refresh token stored\n")
			r.writePlain("Run 'cratesync auth login' to reauthorize\n")
			return nil
		}
		r.writePlain("⚠ Access token expired; it will refresh on next use\n")
	}

	fetcher, ok := r.fetcher.(*services.SpotifyFetcher)
	if !ok {
		r.writePlain("✓ Token stored\n")
		return nil
	}

	userID, err := fetcher.CurrentUserID(ctx)
	if err != nil {
		r.writePlain("✗ Token check failed: %v\n", err)
		return nil
	}

	r.writePlain("✓ Authenticated as %s\n", userID)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, provider oauthProvider, prefix string) (*oauth2.Token, error) {
	state := shared.GenerateState()

	authURL := provider.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(provider, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// handleAuthError checks whether an error means the stored token is no
// longer usable and runs the reauthorization flow if so. Returns true when
// reauthorization was attempted, along with any error it produced.
func (r *Runner) handleAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) && !errors.Is(err, shared.ErrNotAuthenticated) {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	config := r.config
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return true, fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	authenticator, err := services.NewAuthenticator(config.Credentials.Spotify)
	if err != nil {
		return true, fmt.Errorf("failed to create Spotify authenticator: %w", err)
	}

	token, err := r.doOAuth(config, authenticator, "reauthorization")
	if err != nil {
		return true, fmt.Errorf("reauthorization failed: %w", err)
	}

	if err := r.saveTokens(token); err != nil {
		return true, err
	}

	fetcher, err := services.NewSpotifyFetcher(ctx, config.Credentials.Spotify, func(tok *oauth2.Token) {
		if err := r.saveTokens(tok); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	if err != nil {
		return true, fmt.Errorf("failed to recreate Spotify client: %w", err)
	}
	r.fetcher = fetcher

	r.writePlainln("✓ Reauthorization successful")

	return true, nil
}
