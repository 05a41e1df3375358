package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

const workspaceColumns = `id, name, owner_id, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var w domain.Workspace
	err := row.Scan(&w.ID, &w.Name, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	workspace, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, mapStorageErr(err)
	}
	return workspace, nil
}

// GetDefaultForUser retrieves the workspace a user lands in by default,
// preferring the one they own
func (r *WorkspaceRepository) GetDefaultForUser(userID uuid.UUID) (*domain.Workspace, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = $1
		 ORDER BY (w.owner_id = $1) DESC, w.id
		 LIMIT 1`,
		userID,
	)
	workspace, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, mapStorageErr(err)
	}
	return workspace, nil
}

// GetDefaultForAuth0ID retrieves the default workspace for an Auth0 subject
func (r *WorkspaceRepository) GetDefaultForAuth0ID(auth0ID string) (*domain.Workspace, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 JOIN users u ON u.id = m.user_id
		 WHERE u.auth0_id = $1
		 ORDER BY (w.owner_id = u.id) DESC, w.id
		 LIMIT 1`,
		auth0ID,
	)
	workspace, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, mapStorageErr(err)
	}
	return workspace, nil
}

// ListAll retrieves every workspace, used by operator tooling
func (r *WorkspaceRepository) ListAll() ([]*domain.Workspace, error) {
	ctx, cancel := opCtx()
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var workspaces []*domain.Workspace
	for rows.Next() {
		workspace, err := scanWorkspace(rows)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		workspaces = append(workspaces, workspace)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}
	return workspaces, nil
}
