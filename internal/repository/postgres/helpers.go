package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// queryTimeout bounds every repository call so a wedged database surfaces
// as ErrStorageUnavailable instead of an indefinite hang
const queryTimeout = 5 * time.Second

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), queryTimeout)
}

// isPgUniqueViolation checks if an error is a PostgreSQL unique constraint violation
func isPgUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// mapStorageErr converts pool-level failures to the transient sentinel so
// handlers can answer 503 instead of 500
func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStorageUnavailable
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.ErrStorageUnavailable
	}
	return err
}
