package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote snapshot errors; both abort a run before any local write
	ErrTransientNetwork = fmt.Errorf("transient network failure")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Reconciliation errors
	ErrCorruptManifest = fmt.Errorf("corrupt manifest")
	ErrRenameConflict  = fmt.Errorf("rename conflict")
	ErrAmbiguousMatch  = fmt.Errorf("ambiguous match")
	ErrUnmanagedFolder = fmt.Errorf("folder is not a managed playlist")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
