package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workspace represents a shared workspace
type Workspace struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(id int32) (*Workspace, error)
	GetDefaultForUser(userID uuid.UUID) (*Workspace, error)
	GetDefaultForAuth0ID(auth0ID string) (*Workspace, error)
	ListAll() ([]*Workspace, error)
}

// WorkspaceMemberRepository answers workspace membership questions.
// The engine consults it before any timer mutation.
type WorkspaceMemberRepository interface {
	IsMember(userID uuid.UUID, workspaceID int32) (bool, error)
}
