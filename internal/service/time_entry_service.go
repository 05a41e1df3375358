package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// TimeEntryService is the read surface over completed time entries.
// Entries are append-only; all writes go through the timer lifecycle.
type TimeEntryService struct {
	entryRepo    domain.TimeEntryRepository
	categoryRepo domain.CategoryRepository
	memberRepo   domain.WorkspaceMemberRepository
}

// NewTimeEntryService creates a new TimeEntryService
func NewTimeEntryService(
	entryRepo domain.TimeEntryRepository,
	categoryRepo domain.CategoryRepository,
	memberRepo domain.WorkspaceMemberRepository,
) *TimeEntryService {
	return &TimeEntryService{
		entryRepo:    entryRepo,
		categoryRepo: categoryRepo,
		memberRepo:   memberRepo,
	}
}

// TimeEntryView is a time entry decorated with its billable amount
type TimeEntryView struct {
	*domain.TimeEntry
	BillableAmount decimal.Decimal `json:"billableAmount"`
}

func (s *TimeEntryService) checkMembership(userID uuid.UUID, workspaceID int32) error {
	isMember, err := s.memberRepo.IsMember(userID, workspaceID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrNotWorkspaceMember
	}
	return nil
}

func (s *TimeEntryService) toView(entry *domain.TimeEntry) *TimeEntryView {
	view := &TimeEntryView{TimeEntry: entry, BillableAmount: decimal.Zero}
	category, err := s.categoryRepo.GetByID(entry.WorkspaceID, entry.CategoryID)
	if err == nil {
		view.BillableAmount = entry.BillableAmount(category.HourlyRate, category.IsBillable)
	}
	return view
}

// GetByID retrieves a single entry within the caller's workspace
func (s *TimeEntryService) GetByID(userID uuid.UUID, workspaceID int32, id uuid.UUID) (*TimeEntryView, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}
	entry, err := s.entryRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return s.toView(entry), nil
}

// PaginatedEntryViews is a page of decorated entries
type PaginatedEntryViews struct {
	Data       []*TimeEntryView `json:"data"`
	Page       int32            `json:"page"`
	PageSize   int32            `json:"pageSize"`
	TotalItems int64            `json:"totalItems"`
	TotalPages int32            `json:"totalPages"`
}

// List retrieves entries for a workspace with optional filters
func (s *TimeEntryService) List(userID uuid.UUID, workspaceID int32, filters *domain.TimeEntryFilters) (*PaginatedEntryViews, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	if filters == nil {
		filters = &domain.TimeEntryFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, domain.ErrInvalidInput
	}

	page, err := s.entryRepo.GetByWorkspace(workspaceID, filters)
	if err != nil {
		return nil, err
	}

	views := make([]*TimeEntryView, len(page.Data))
	for i, entry := range page.Data {
		views[i] = s.toView(entry)
	}
	return &PaginatedEntryViews{
		Data:       views,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}, nil
}
