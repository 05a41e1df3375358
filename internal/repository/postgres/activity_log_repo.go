package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// ActivityLogRepository implements domain.ActivityLogRepository using
// PostgreSQL. Rows are append-only.
type ActivityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository creates a new ActivityLogRepository
func NewActivityLogRepository(pool *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{pool: pool}
}

// appendEventTx inserts a lifecycle event inside an existing transaction so
// start and stop can bind their audit row to the state mutation
func appendEventTx(ctx context.Context, tx pgx.Tx, event *domain.LifecycleEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO activity_log
		 (id, entity_type, entity_id, action, performed_by, workspace_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.EntityType, event.EntityID, string(event.Action),
		event.PerformedBy, event.WorkspaceID, details, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append lifecycle event: %w", err)
	}
	return nil
}

// Append inserts a lifecycle event outside any transaction
func (r *ActivityLogRepository) Append(event *domain.LifecycleEvent) error {
	ctx, cancel := opCtx()
	defer cancel()

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_log
		 (id, entity_type, entity_id, action, performed_by, workspace_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.EntityType, event.EntityID, string(event.Action),
		event.PerformedBy, event.WorkspaceID, details, event.CreatedAt,
	)
	if err != nil {
		return mapStorageErr(err)
	}
	return nil
}

// ListByWorkspace retrieves the most recent events for a workspace
func (r *ActivityLogRepository) ListByWorkspace(workspaceID int32, limit int32) ([]*domain.LifecycleEvent, error) {
	ctx, cancel := opCtx()
	defer cancel()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, entity_type, entity_id, action, performed_by, workspace_id, details, created_at
		 FROM activity_log
		 WHERE workspace_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		workspaceID, limit,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var events []*domain.LifecycleEvent
	for rows.Next() {
		var e domain.LifecycleEvent
		var action string
		var details []byte
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &e.PerformedBy, &e.WorkspaceID, &details, &e.CreatedAt); err != nil {
			return nil, mapStorageErr(err)
		}
		e.Action = domain.LifecycleAction(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode event details: %w", err)
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageErr(err)
	}
	return events, nil
}
