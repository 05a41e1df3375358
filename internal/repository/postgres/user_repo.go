package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, auth0_id, email, name, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Auth0ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapStorageErr(err)
	}
	return user, nil
}

// GetByAuth0ID retrieves a user by their Auth0 subject
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapStorageErr(err)
	}
	return user, nil
}

// CreateOrGetByAuth0ID provisions a user row on first login. The upsert
// keeps concurrent first logins from racing.
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, auth0_id, email, name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (auth0_id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()
		 RETURNING `+userColumns,
		uuid.New(), auth0ID, email, name,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return user, nil
}
