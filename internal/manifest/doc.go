// Package manifest persists the per-playlist track manifest, the only
// durable record of which remote tracks a playlist folder should contain
// and what state each one is in.
//
// # File format
//
// The manifest lives in a hidden ".song_ids" file inside the playlist
// folder, one tab-separated row per track:
//
//	id	added_at	artist	title	filename	state	position	flags
//
// added_at uses "2006-01-02 15:04:05". state is one of pending,
// downloaded, or missing. flags is a comma-joined token list (orphaned,
// local-only), usually empty.
//
// Rows written before the state column existed carry only the first five
// fields; they load with state=pending, position=-1, and no flags. Fields
// beyond the eighth and unknown flag tokens are ignored, so manifests
// written by newer versions remain readable. Anything else that fails to
// parse makes the whole load fail with [shared.ErrCorruptManifest] rather
// than silently dropping rows.
//
// # Durability
//
// [Store.Save] writes a sibling ".song_ids.tmp" file and renames it over
// the manifest. This write-new-then-replace step is the system's one
// durability guarantee: a crash at any point leaves either the old or the
// new manifest, never a truncated one.
package manifest
