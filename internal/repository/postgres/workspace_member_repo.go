package postgres

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkspaceMemberRepository implements domain.WorkspaceMemberRepository
// using PostgreSQL
type WorkspaceMemberRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceMemberRepository creates a new WorkspaceMemberRepository
func NewWorkspaceMemberRepository(pool *pgxpool.Pool) *WorkspaceMemberRepository {
	return &WorkspaceMemberRepository{pool: pool}
}

// IsMember reports whether the user belongs to the workspace
func (r *WorkspaceMemberRepository) IsMember(userID uuid.UUID, workspaceID int32) (bool, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var isMember bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workspace_members
			WHERE user_id = $1 AND workspace_id = $2
		 )`,
		userID, workspaceID,
	).Scan(&isMember)
	if err != nil {
		return false, mapStorageErr(err)
	}
	return isMember, nil
}
