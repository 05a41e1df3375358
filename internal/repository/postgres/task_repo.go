package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository implements domain.TaskRepository using PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Exists reports whether a live task belongs to the workspace
func (r *TaskRepository) Exists(taskID int32, workspaceID int32) (bool, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL
		 )`,
		taskID, workspaceID,
	).Scan(&exists)
	if err != nil {
		return false, mapStorageErr(err)
	}
	return exists, nil
}
