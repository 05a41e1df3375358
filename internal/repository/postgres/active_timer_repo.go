package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// ActiveTimerRepository implements domain.ActiveTimerRepository using PostgreSQL.
// The unique index on (user_id, workspace_id) is the authoritative enforcement
// of the one-timer-per-slot invariant; the in-process lock above only reduces
// contention on it.
type ActiveTimerRepository struct {
	pool *pgxpool.Pool
}

// NewActiveTimerRepository creates a new ActiveTimerRepository
func NewActiveTimerRepository(pool *pgxpool.Pool) *ActiveTimerRepository {
	return &ActiveTimerRepository{pool: pool}
}

const activeTimerColumns = `id, user_id, workspace_id, task_id, category_id, start_time,
	last_pause_time, total_paused_seconds, pause_reason, is_break, description,
	created_at, updated_at`

func scanActiveTimer(row pgx.Row) (*domain.ActiveTimer, error) {
	var t domain.ActiveTimer
	err := row.Scan(
		&t.ID, &t.UserID, &t.WorkspaceID, &t.TaskID, &t.CategoryID, &t.StartTime,
		&t.LastPauseTime, &t.TotalPausedSeconds, &t.PauseReason, &t.IsBreak, &t.Description,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByUserAndWorkspace retrieves the active timer for a (user, workspace) key
func (r *ActiveTimerRepository) GetByUserAndWorkspace(userID uuid.UUID, workspaceID int32) (*domain.ActiveTimer, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+activeTimerColumns+` FROM active_timers
		 WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	)
	timer, err := scanActiveTimer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveTimer
		}
		return nil, mapStorageErr(err)
	}
	return timer, nil
}

// Create inserts a timer row and its started event in one transaction.
// A unique violation on the slot index is translated to AlreadyRunningError
// carrying the winning timer's ID.
func (r *ActiveTimerRepository) Create(timer *domain.ActiveTimer, event *domain.LifecycleEvent) (*domain.ActiveTimer, error) {
	ctx, cancel := opCtx()
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapStorageErr(fmt.Errorf("failed to begin create timer tx: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`INSERT INTO active_timers
		 (id, user_id, workspace_id, task_id, category_id, start_time,
		  last_pause_time, total_paused_seconds, pause_reason, is_break, description)
		 VALUES ($1, $2, $3, $4, $5, $6, NULL, 0, NULL, $7, $8)
		 RETURNING `+activeTimerColumns,
		timer.ID, timer.UserID, timer.WorkspaceID, timer.TaskID, timer.CategoryID,
		timer.StartTime, timer.IsBreak, timer.Description,
	)
	created, err := scanActiveTimer(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, r.existingTimerError(ctx, timer.UserID, timer.WorkspaceID)
		}
		return nil, mapStorageErr(err)
	}

	if err := appendEventTx(ctx, tx, event); err != nil {
		return nil, mapStorageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStorageErr(fmt.Errorf("failed to commit create timer tx: %w", err))
	}
	return created, nil
}

// existingTimerError resolves the winner's ID after losing the insert race
func (r *ActiveTimerRepository) existingTimerError(ctx context.Context, userID uuid.UUID, workspaceID int32) error {
	var existingID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM active_timers WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	).Scan(&existingID)
	if err != nil {
		// The winner stopped already; the caller can simply retry
		return mapStorageErr(err)
	}
	return &domain.AlreadyRunningError{ExistingID: existingID}
}

// Update applies the mutable fields of a timer and returns the updated row
func (r *ActiveTimerRepository) Update(id uuid.UUID, update *domain.ActiveTimerUpdate) (*domain.ActiveTimer, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`UPDATE active_timers SET
			last_pause_time = CASE
				WHEN $2::timestamptz IS NOT NULL THEN $2
				WHEN $3 THEN NULL
				ELSE last_pause_time END,
			total_paused_seconds = COALESCE($4, total_paused_seconds),
			pause_reason = CASE
				WHEN $5::text IS NOT NULL THEN $5
				WHEN $6 THEN NULL
				ELSE pause_reason END,
			description = COALESCE($7, description),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+activeTimerColumns,
		id, update.LastPauseTime, update.ClearLastPauseTime,
		update.TotalPausedSeconds, update.PauseReason, update.ClearPauseReason,
		update.Description,
	)
	timer, err := scanActiveTimer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveTimer
		}
		return nil, mapStorageErr(err)
	}
	return timer, nil
}

// Delete removes a timer row without creating a time entry
func (r *ActiveTimerRepository) Delete(id uuid.UUID) error {
	ctx, cancel := opCtx()
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM active_timers WHERE id = $1`, id)
	if err != nil {
		return mapStorageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoActiveTimer
	}
	return nil
}

// StopAtomic inserts the time entry, deletes the timer and appends the stopped
// event in a single transaction. Either all three land or none do.
func (r *ActiveTimerRepository) StopAtomic(timerID uuid.UUID, entry *domain.TimeEntry, event *domain.LifecycleEvent) (*domain.TimeEntry, error) {
	ctx, cancel := opCtx()
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapStorageErr(fmt.Errorf("failed to begin stop tx: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM active_timers WHERE id = $1`, timerID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNoActiveTimer
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO time_entries
		 (id, user_id, workspace_id, task_id, category_id, start_time, end_time,
		  duration_seconds, description, is_break, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, user_id, workspace_id, task_id, category_id, start_time, end_time,
		  duration_seconds, description, is_break, status, created_at`,
		entry.ID, entry.UserID, entry.WorkspaceID, entry.TaskID, entry.CategoryID,
		entry.StartTime, entry.EndTime, entry.DurationSeconds, entry.Description,
		entry.IsBreak, string(entry.Status),
	)
	created, err := scanTimeEntry(row)
	if err != nil {
		return nil, mapStorageErr(err)
	}

	if err := appendEventTx(ctx, tx, event); err != nil {
		return nil, mapStorageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStorageErr(fmt.Errorf("failed to commit stop tx: %w", err))
	}
	return created, nil
}

// ListRunningLongerThan returns timers started before the cutoff
func (r *ActiveTimerRepository) ListRunningLongerThan(cutoff time.Time) ([]*domain.ActiveTimer, error) {
	ctx, cancel := opCtx()
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+activeTimerColumns+` FROM active_timers
		 WHERE start_time < $1
		 ORDER BY start_time`,
		cutoff,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var timers []*domain.ActiveTimer
	for rows.Next() {
		timer, err := scanActiveTimer(rows)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		timers = append(timers, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}
	return timers, nil
}
