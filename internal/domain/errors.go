package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUserNotFound        = errors.New("user not found")
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrNotWorkspaceMember  = errors.New("user is not a member of this workspace")
	ErrTaskNotFound        = errors.New("task not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryExists      = errors.New("category with this name already exists")
	ErrTimeEntryNotFound   = errors.New("time entry not found")
	ErrNoActiveTimer       = errors.New("no active timer for this workspace")
	ErrTimerAlreadyPaused  = errors.New("timer is already paused")
	ErrTimerNotPaused      = errors.New("timer is not paused")
	ErrStorageUnavailable  = errors.New("storage temporarily unavailable")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrPauseReasonTooLong  = errors.New("pause reason exceeds maximum length")
	ErrInvalidExportRange  = errors.New("export range is invalid")
)

// Validation constants
const (
	MaxDescriptionLength = 500
	MaxPauseReasonLength = 255
)
