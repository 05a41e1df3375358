package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryKind classifies what a finished session was spent on. It drives
// which well-known category a stopped timer is billed against.
type CategoryKind string

const (
	CategoryKindBreak   CategoryKind = "break"
	CategoryKindTask    CategoryKind = "task"
	CategoryKindGeneral CategoryKind = "general"
)

// Category represents a billing category within a workspace
type Category struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	Name        string          `json:"name"`
	Color       string          `json:"color"`
	IsBillable  bool            `json:"isBillable"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}

// CategoryRepository defines the interface for category persistence operations.
// Create must surface ErrCategoryExists on a (workspace_id, name) unique
// violation so concurrent find-or-create callers can re-read the winner.
type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(workspaceID int32, id int32) (*Category, error)
	GetByName(workspaceID int32, name string) (*Category, error)
	GetAllByWorkspace(workspaceID int32) ([]*Category, error)
}
