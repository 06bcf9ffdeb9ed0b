// Package tasks orchestrates reconciliation runs over playlist folders with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Extract] : Pull the remote playlist into local bookkeeping
//     - Fetches the playlist snapshot from the remote service
//     - Creates pending manifest entries for new tracks, refreshes position
//       and metadata for known ones, flags departed ones as orphaned
//     - Rewrites the .m3u8 in snapshot order over downloaded entries
//     - Returns a drift report of additions, moves, and orphans
//
//  2. [Engine.Consolidate] : Re-derive truth from the filesystem
//     - Matches pending entries against scanned files via the inference
//       ladder (stored filename, embedded identifier, naming convention,
//       fuzzy score against the confidence threshold)
//     - Renames matched files to the canonical "Artist - Title.ext" form
//     - Transitions entries between downloaded and missing, resolves
//       orphans, and reports unmanaged files without ever deleting them
//
// Both operations read everything first and write last, so a fatal error
// leaves the previous manifest and playlist files intact.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] and [SnapshotCacher] interfaces persist run
// outcomes and the latest remote snapshot. Both are best effort: failures
// are logged and never disrupt a run.
//
// # Implementation
//
// [ReconcileEngine] implements [Engine] with dependencies on:
//   - [services.Fetcher] : remote playlist snapshots
//   - [library.Scanner] : local folder evidence
//   - [RunRecorder], [SnapshotCacher] : optional persistence layer
package tasks
