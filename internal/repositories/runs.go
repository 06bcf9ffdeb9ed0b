package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cratesync/internal/models"
	"github.com/desertthunder/cratesync/internal/shared"
)

// runColumns is the SELECT list shared by every run query, kept in one
// place so the scan helpers stay aligned with it.
const runColumns = `
	id, sequence, playlist_id, playlist_name, kind, status, error,
	added, moved, confirmed, renamed, orphaned, local_only, removed,
	missing, unmanaged, ambiguous, conflicts,
	started_at, finished_at, created_at, updated_at, deleted_at
`

// RunRepository implements models.Repository[*models.Run] for the run
// history table.
//
// One row is written per reconciliation run, successful or failed, carrying
// the per-category drift counts so `cratesync history` can summarize runs
// without replaying them. Rows are soft deleted.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new [models.Run] into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	query := `
		INSERT INTO runs (
			id, sequence, playlist_id, playlist_name, kind, status, error,
			added, moved, confirmed, renamed, orphaned, local_only, removed,
			missing, unmanaged, ambiguous, conflicts,
			started_at, finished_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var finishedAt any = run.FinishedAt
	if run.FinishedAt.IsZero() {
		finishedAt = nil
	}

	_, err = r.db.Exec(query,
		run.ID,
		run.Sequence,
		run.PlaylistID,
		run.PlaylistName,
		run.Kind.String(),
		run.Status,
		run.Error,
		run.Counts.Added,
		run.Counts.Moved,
		run.Counts.Confirmed,
		run.Counts.Renamed,
		run.Counts.Orphaned,
		run.Counts.LocalOnly,
		run.Counts.Removed,
		run.Counts.Missing,
		run.Counts.Unmanaged,
		run.Counts.Ambiguous,
		run.Counts.Conflicts,
		run.StartedAt,
		finishedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT` + runColumns + `
		FROM runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing run in the database.
//
// Only the outcome fields change after a run is recorded; identity and
// counts are written once at creation.
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.UpdatedAt = now

	query := `
		UPDATE runs
		SET status = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, run.Status, run.Error, run.FinishedAt, now, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", run.ID)
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves runs matching the given criteria, newest first, excluding
// soft-deleted runs. Supported criteria: "playlist_id" and "kind" (strings),
// "limit" (int, 0 means no limit).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `
		SELECT` + runColumns + `
		FROM runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY started_at DESC, sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanOne scans a single [sql.Row] into a [models.Run]
func (r *RunRepository) scanOne(row *sql.Row) (*models.Run, error) {
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Run]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.Run, error) {
	run, err := scanRun(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}

// scanRun reads one row's columns, in [runColumns] order, through the given
// scan function.
func scanRun(scan func(dest ...any) error) (*models.Run, error) {
	var (
		run        models.Run
		kind       string
		finishedAt sql.NullTime
		deletedAt  sql.NullTime
	)

	err := scan(
		&run.ID, &run.Sequence, &run.PlaylistID, &run.PlaylistName, &kind,
		&run.Status, &run.Error,
		&run.Counts.Added, &run.Counts.Moved, &run.Counts.Confirmed,
		&run.Counts.Renamed, &run.Counts.Orphaned, &run.Counts.LocalOnly,
		&run.Counts.Removed, &run.Counts.Missing, &run.Counts.Unmanaged,
		&run.Counts.Ambiguous, &run.Counts.Conflicts,
		&run.StartedAt, &finishedAt, &run.CreatedAt, &run.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseRunKind(kind)
	if err != nil {
		return nil, err
	}
	run.Kind = parsed

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if deletedAt.Valid {
		run.DeletedAt = &deletedAt.Time
	}

	return &run, nil
}
