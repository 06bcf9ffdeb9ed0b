// Package models defines domain entities for the cratesync playlist
// reconciliation engine.
//
// The engine compares three independently-mutating views of a playlist:
//
//  1. The remote snapshot: [RemoteTrack] records in playlist order, plus
//     [Playlist] metadata, rebuilt on every fetch.
//  2. The manifest: one [ManifestEntry] per track identifier, the only
//     persistent record of what the playlist folder should contain.
//  3. The local scan: [LocalFile] evidence derived fresh from the
//     filesystem and never persisted.
//
// Reconciliation results are collected into a [Report], rendered by the
// formatter package and folded into a persisted [Run] via
// [CountsFromReport].
//
// Persistent entities implement the [Model] interface; the [Repository]
// interface defines standard CRUD operations for database access.
package models
