package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library     LibraryConfig     `toml:"library"`
	Matching    MatchingConfig    `toml:"matching"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// LibraryConfig describes the local music library layout.
type LibraryConfig struct {
	// Root holds one subfolder per playlist.
	Root string `toml:"root"`
	// Extensions lists the audio file extensions considered during scans.
	Extensions []string `toml:"extensions"`
}

// MatchingConfig tunes file-to-entry matching.
type MatchingConfig struct {
	// Threshold is the minimum fuzzy confidence (0.0 - 1.0) for a
	// metadata match to count as confident.
	Threshold float64 `toml:"threshold"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the stored OAuth token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenExpiry  time.Time `toml:"token_expiry"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Token converts the stored credentials into an [oauth2.Token].
//
// Returns [ErrNotAuthenticated] when no token has been stored yet.
func (c *SpotifyConfig) Token() (*oauth2.Token, error) {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil, fmt.Errorf("%w: run `cratesync auth login` first", ErrNotAuthenticated)
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.TokenExpiry,
		TokenType:    "Bearer",
	}, nil
}

// UpdateToken stores an [oauth2.Token] back into the credentials.
func (c *SpotifyConfig) UpdateToken(tok *oauth2.Token) {
	c.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	c.TokenExpiry = tok.Expiry
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Empty Spotify client credentials are filled from the SPOTIFY_ID and
// SPOTIFY_SECRET environment variables when set.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration back to the specified path, replacing
// the previous contents. Used to persist refreshed OAuth tokens.
func SaveConfig(config *Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// applyEnv fills empty credential fields from the environment. Values already
// present in the file always win.
func (c *Config) applyEnv() {
	if c.Credentials.Spotify.ClientID == "" {
		c.Credentials.Spotify.ClientID = os.Getenv("SPOTIFY_ID")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		c.Credentials.Spotify.ClientSecret = os.Getenv("SPOTIFY_SECRET")
	}
}
