package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// Well-known category names per kind. The storage-level uniqueness
// constraint on (workspace_id, name) keeps concurrent first-use races from
// creating duplicates.
const (
	BreakCategoryName   = "Break"
	WorkCategoryName    = "Work"
	GeneralCategoryName = "Administrative"
)

// categoryDefaults describes how a well-known category is created on first use
type categoryDefaults struct {
	name       string
	color      string
	billable   bool
	hourlyRate decimal.Decimal
}

var defaultsByKind = map[domain.CategoryKind]categoryDefaults{
	domain.CategoryKindBreak:   {name: BreakCategoryName, color: "#f59e0b", billable: false, hourlyRate: decimal.Zero},
	domain.CategoryKindTask:    {name: WorkCategoryName, color: "#3b82f6", billable: true, hourlyRate: decimal.Zero},
	domain.CategoryKindGeneral: {name: GeneralCategoryName, color: "#6b7280", billable: false, hourlyRate: decimal.Zero},
}

// CategoryResolver maps a stopped timer's kind to a billing category,
// creating the well-known category on first use within a workspace.
type CategoryResolver struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryResolver creates a new CategoryResolver
func NewCategoryResolver(categoryRepo domain.CategoryRepository) *CategoryResolver {
	return &CategoryResolver{categoryRepo: categoryRepo}
}

// Resolve returns the category for the given kind, creating it if absent.
// It is idempotent: a caller that loses a create race re-reads the winner.
func (r *CategoryResolver) Resolve(workspaceID int32, kind domain.CategoryKind) (*domain.Category, error) {
	defaults, ok := defaultsByKind[kind]
	if !ok {
		return nil, domain.ErrInvalidInput
	}

	category, err := r.categoryRepo.GetByName(workspaceID, defaults.name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	created, err := r.categoryRepo.Create(&domain.Category{
		WorkspaceID: workspaceID,
		Name:        defaults.name,
		Color:       defaults.color,
		IsBillable:  defaults.billable,
		HourlyRate:  defaults.hourlyRate,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, domain.ErrCategoryExists) {
		// Lost the create race; the winner's row is now visible
		return r.categoryRepo.GetByName(workspaceID, defaults.name)
	}
	return nil, err
}

// KindForTimer classifies a timer for category resolution
func KindForTimer(timer *domain.ActiveTimer) domain.CategoryKind {
	switch {
	case timer.IsBreak:
		return domain.CategoryKindBreak
	case timer.TaskID != nil:
		return domain.CategoryKindTask
	default:
		return domain.CategoryKindGeneral
	}
}

// GetCategories retrieves all categories for a workspace
func (r *CategoryResolver) GetCategories(workspaceID int32) ([]*domain.Category, error) {
	return r.categoryRepo.GetAllByWorkspace(workspaceID)
}
