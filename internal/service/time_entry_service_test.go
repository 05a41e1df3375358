package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/testutil"
)

func TestTimeEntryService_GetByIDDecoratesBillableAmount(t *testing.T) {
	entryRepo := testutil.NewMockTimeEntryRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	memberRepo := testutil.NewMockWorkspaceMemberRepository()

	userID := uuid.New()
	memberRepo.AddMember(userID, 1)
	category := categoryRepo.AddCategory(&domain.Category{
		WorkspaceID: 1,
		Name:        "Consulting",
		IsBillable:  true,
		HourlyRate:  decimal.NewFromInt(100),
	})

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	entry := &domain.TimeEntry{
		ID:              uuid.New(),
		UserID:          userID,
		WorkspaceID:     1,
		CategoryID:      category.ID,
		StartTime:       start,
		EndTime:         start.Add(90 * time.Minute),
		DurationSeconds: 5400,
		Status:          domain.TimeEntryStatusCompleted,
	}
	entryRepo.AddEntry(entry)

	service := NewTimeEntryService(entryRepo, categoryRepo, memberRepo)
	view, err := service.GetByID(userID, 1, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !view.BillableAmount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected 150 billable, got %s", view.BillableAmount)
	}
}

func TestTimeEntryService_GetByIDNotFound(t *testing.T) {
	memberRepo := testutil.NewMockWorkspaceMemberRepository()
	userID := uuid.New()
	memberRepo.AddMember(userID, 1)

	service := NewTimeEntryService(testutil.NewMockTimeEntryRepository(), testutil.NewMockCategoryRepository(), memberRepo)
	_, err := service.GetByID(userID, 1, uuid.New())
	if !errors.Is(err, domain.ErrTimeEntryNotFound) {
		t.Errorf("Expected ErrTimeEntryNotFound, got %v", err)
	}
}

func TestTimeEntryService_ListClampsPagination(t *testing.T) {
	entryRepo := testutil.NewMockTimeEntryRepository()
	memberRepo := testutil.NewMockWorkspaceMemberRepository()
	userID := uuid.New()
	memberRepo.AddMember(userID, 1)

	var captured domain.TimeEntryFilters
	entryRepo.GetByWorkspaceFn = func(workspaceID int32, filters *domain.TimeEntryFilters) (*domain.PaginatedTimeEntries, error) {
		captured = *filters
		return &domain.PaginatedTimeEntries{Page: filters.Page, PageSize: filters.PageSize}, nil
	}

	service := NewTimeEntryService(entryRepo, testutil.NewMockCategoryRepository(), memberRepo)
	if _, err := service.List(userID, 1, &domain.TimeEntryFilters{Page: 0, PageSize: 10000}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if captured.Page != 1 {
		t.Errorf("Expected page clamped to 1, got %d", captured.Page)
	}
	if captured.PageSize != domain.MaxPageSize {
		t.Errorf("Expected page size clamped to %d, got %d", domain.MaxPageSize, captured.PageSize)
	}
}

func TestTimeEntryService_ListRejectsInvertedRange(t *testing.T) {
	memberRepo := testutil.NewMockWorkspaceMemberRepository()
	userID := uuid.New()
	memberRepo.AddMember(userID, 1)

	service := NewTimeEntryService(testutil.NewMockTimeEntryRepository(), testutil.NewMockCategoryRepository(), memberRepo)
	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)
	_, err := service.List(userID, 1, &domain.TimeEntryFilters{From: &from, To: &to})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTimeEntryService_ListRequiresMembership(t *testing.T) {
	service := NewTimeEntryService(testutil.NewMockTimeEntryRepository(), testutil.NewMockCategoryRepository(), testutil.NewMockWorkspaceMemberRepository())
	_, err := service.List(uuid.New(), 1, &domain.TimeEntryFilters{})
	if !errors.Is(err, domain.ErrNotWorkspaceMember) {
		t.Errorf("Expected ErrNotWorkspaceMember, got %v", err)
	}
}
