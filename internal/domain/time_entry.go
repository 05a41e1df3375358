package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeEntryStatus is the terminal status of a persisted entry
type TimeEntryStatus string

const (
	TimeEntryStatusCompleted TimeEntryStatus = "completed"
)

// TimeEntry is the immutable record of a completed tracking session.
// Created exactly once when a timer is stopped, never mutated afterwards.
type TimeEntry struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	WorkspaceID     int32           `json:"workspaceId"`
	TaskID          *int32          `json:"taskId,omitempty"`
	CategoryID      int32           `json:"categoryId"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         time.Time       `json:"endTime"`
	DurationSeconds int64           `json:"durationSeconds"`
	Description     *string         `json:"description,omitempty"`
	IsBreak         bool            `json:"isBreak"`
	Status          TimeEntryStatus `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// BillableAmount computes rate * hours for a billable category rate.
// Returns zero for non-billable work.
func (e *TimeEntry) BillableAmount(rate decimal.Decimal, billable bool) decimal.Decimal {
	if !billable || e.IsBreak {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(e.DurationSeconds).Div(decimal.NewFromInt(3600))
	return rate.Mul(hours).Round(2)
}

// TimeEntryFilters narrows a workspace listing
type TimeEntryFilters struct {
	From     *time.Time
	To       *time.Time
	UserID   *uuid.UUID
	Page     int32
	PageSize int32
}

// Pagination constants
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// PaginatedTimeEntries is a page of entries plus paging metadata
type PaginatedTimeEntries struct {
	Data       []*TimeEntry `json:"data"`
	Page       int32        `json:"page"`
	PageSize   int32        `json:"pageSize"`
	TotalItems int64        `json:"totalItems"`
	TotalPages int32        `json:"totalPages"`
}

// TimeEntryRepository defines the interface for time entry persistence.
// Entries are append-only: there is deliberately no update or delete.
type TimeEntryRepository interface {
	GetByID(workspaceID int32, id uuid.UUID) (*TimeEntry, error)
	GetByWorkspace(workspaceID int32, filters *TimeEntryFilters) (*PaginatedTimeEntries, error)
	ListByRange(workspaceID int32, from, to time.Time) ([]*TimeEntry, error)
}
