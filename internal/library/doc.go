// Package library handles everything filesystem-shaped about a playlist
// folder: scanning audio files for matching evidence, the filename
// convention, the .m3u8 playlist file, and the hidden link file tying a
// folder to its remote playlist.
//
// # Naming convention
//
// Managed files are named "Artist - Title.ext" after [Sanitize] replaces
// characters invalid on any supported platform. Collisions from repeated
// downloads produce numbered variants ("Artist - Title_1.ext"), which
// [MatchesBase] recognizes as the same track.
//
// # Evidence, not truth
//
// [Scanner.Scan] derives per-file evidence: embedded tag metadata
// (via dhowden/tag), identifiers recovered from tags or filenames, size
// and modification time. Evidence is recomputed on every scan and never
// persisted; the manifest is the only durable record. Scanning is strictly
// read-only, and [Confidence] is a pure scoring function so that matching
// policy (thresholds, tie-breaks) stays with the reconcilers.
package library
