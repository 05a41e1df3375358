package postgres

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// TimeEntryRepository implements domain.TimeEntryRepository using PostgreSQL.
// Entries are append-only; insertion happens inside the stop transaction in
// ActiveTimerRepository, so this type only reads.
type TimeEntryRepository struct {
	pool *pgxpool.Pool
}

// NewTimeEntryRepository creates a new TimeEntryRepository
func NewTimeEntryRepository(pool *pgxpool.Pool) *TimeEntryRepository {
	return &TimeEntryRepository{pool: pool}
}

const timeEntryColumns = `id, user_id, workspace_id, task_id, category_id, start_time, end_time,
	duration_seconds, description, is_break, status, created_at`

func scanTimeEntry(row pgx.Row) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var status string
	err := row.Scan(
		&e.ID, &e.UserID, &e.WorkspaceID, &e.TaskID, &e.CategoryID, &e.StartTime, &e.EndTime,
		&e.DurationSeconds, &e.Description, &e.IsBreak, &status, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.TimeEntryStatus(status)
	return &e, nil
}

// GetByID retrieves a time entry by ID within a workspace
func (r *TimeEntryRepository) GetByID(workspaceID int32, id uuid.UUID) (*domain.TimeEntry, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries
		 WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	entry, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTimeEntryNotFound
		}
		return nil, mapStorageErr(err)
	}
	return entry, nil
}

// GetByWorkspace retrieves a filtered, paginated page of entries
func (r *TimeEntryRepository) GetByWorkspace(workspaceID int32, filters *domain.TimeEntryFilters) (*domain.PaginatedTimeEntries, error) {
	ctx, cancel := opCtx()
	defer cancel()

	if filters == nil {
		filters = &domain.TimeEntryFilters{}
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	if pageSize > domain.MaxPageSize {
		pageSize = domain.MaxPageSize
	}

	where := `WHERE workspace_id = $1`
	args := []any{workspaceID}
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		where += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		where += ` AND start_time >= $` + strconv.Itoa(len(args))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		where += ` AND start_time < $` + strconv.Itoa(len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM time_entries `+where, args...).Scan(&total); err != nil {
		return nil, mapStorageErr(err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.pool.Query(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries `+where+
			` ORDER BY start_time DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	entries := make([]*domain.TimeEntry, 0, pageSize)
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}

	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTimeEntries{
		Data:       entries,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// ListByRange retrieves all entries in [from, to) for report export
func (r *TimeEntryRepository) ListByRange(workspaceID int32, from, to time.Time) ([]*domain.TimeEntry, error) {
	ctx, cancel := opCtx()
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries
		 WHERE workspace_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time`,
		workspaceID, from, to,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var entries []*domain.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}
	return entries, nil
}
