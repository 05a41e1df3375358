package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, workspace_id, name, color, is_billable, hourly_rate,
	created_at, updated_at, deleted_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.Name, &c.Color, &c.IsBillable, &c.HourlyRate,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create creates a new category. The partial unique index on
// (workspace_id, name) makes concurrent first-use creation safe.
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (workspace_id, name, color, is_billable, hourly_rate)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+categoryColumns,
		category.WorkspaceID, category.Name, category.Color,
		category.IsBillable, category.HourlyRate,
	)
	created, err := scanCategory(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, mapStorageErr(err)
	}
	return created, nil
}

// GetByID retrieves a category by ID within a workspace
func (r *CategoryRepository) GetByID(workspaceID int32, id int32) (*domain.Category, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, mapStorageErr(err)
	}
	return category, nil
}

// GetByName retrieves a category by name within a workspace
func (r *CategoryRepository) GetByName(workspaceID int32, name string) (*domain.Category, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE workspace_id = $1 AND name = $2 AND deleted_at IS NULL`,
		workspaceID, name,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, mapStorageErr(err)
	}
	return category, nil
}

// GetAllByWorkspace retrieves all live categories for a workspace
func (r *CategoryRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Category, error) {
	ctx, cancel := opCtx()
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE workspace_id = $1 AND deleted_at IS NULL
		 ORDER BY name`,
		workspaceID,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}
	return categories, nil
}
