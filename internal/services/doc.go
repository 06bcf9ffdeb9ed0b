// Package services defines the [Fetcher] interface for remote playlist
// providers and implements it for Spotify.
//
// # Fetcher Interface
//
// Reconciliation only ever reads the remote side. The interface is small on
// purpose: playlist metadata, the ordered track listing, and the user's
// playlist collection.
//
// # Spotify Implementation
//
// [SpotifyFetcher] wraps the zmb3/spotify client. Authentication uses
// OAuth2 with the read-only playlist scopes; the [oauth2] transport
// refreshes expired access tokens automatically, and rotations are
// reported through a callback so the config file can be updated.
//
// Requests share a rate limiter so multi-page listings do not burst into
// the API's throttle.
//
// # Error Handling
//
// API failures map onto typed errors from the shared package:
//   - [shared.ErrTokenExpired] : the access token was rejected (401)
//   - [shared.ErrAuthFailed] : authorization failed outright (403, refresh rejection)
//   - [shared.ErrPlaylistNotFound] : playlist ID unknown (404)
//   - [shared.ErrTransientNetwork] : throttling, server errors, transport failures
//
// Reconciliation treats the first three plus [shared.ErrTransientNetwork]
// as fatal for the run: no local file is touched when the snapshot cannot
// be fetched.
package services
