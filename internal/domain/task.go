package domain

import "time"

// Task is an external work item a timer may reference. Task management
// itself lives outside this service; the engine only checks existence.
type Task struct {
	ID          int32      `json:"id"`
	WorkspaceID int32      `json:"workspaceId"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// TaskRepository defines the interface for task lookups
type TaskRepository interface {
	Exists(taskID int32, workspaceID int32) (bool, error)
}
