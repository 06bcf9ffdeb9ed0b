// Package repositories implements SQLite persistence for the run history
// and the remote snapshot cache.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// The run history supports soft deletes via deleted_at timestamps and excludes deleted records from queries by default.
//
// Key Implementations:
//   - [RunRepository] : one row per reconciliation run, with per-category drift counts
//   - [SnapshotRepository] : the latest remote snapshot per playlist, replaced wholesale on each fetch
//
// Neither repository sits on the critical path: the engine records runs and
// caches snapshots best effort, so a broken database never fails a run.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
