package domain

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleAction is a timer state transition recorded in the audit trail
type LifecycleAction string

const (
	ActionStarted   LifecycleAction = "started"
	ActionPaused    LifecycleAction = "paused"
	ActionResumed   LifecycleAction = "resumed"
	ActionStopped   LifecycleAction = "stopped"
	ActionCancelled LifecycleAction = "cancelled"
)

// EntityTypeTimer is the entity type recorded for timer lifecycle events
const EntityTypeTimer = "timer"

// LifecycleEvent is an append-only audit record of a state transition.
// Rows are written once and never mutated or deleted.
type LifecycleEvent struct {
	ID          uuid.UUID       `json:"id"`
	EntityType  string          `json:"entityType"`
	EntityID    uuid.UUID       `json:"entityId"`
	Action      LifecycleAction `json:"action"`
	PerformedBy uuid.UUID       `json:"performedBy"`
	WorkspaceID int32           `json:"workspaceId"`
	Details     map[string]any  `json:"details"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ActivityLogRepository is the append-only event sink
type ActivityLogRepository interface {
	Append(event *LifecycleEvent) error
	ListByWorkspace(workspaceID int32, limit int32) ([]*LifecycleEvent, error)
}
