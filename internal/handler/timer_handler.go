package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/middleware"
	"github.com/tempora-app/tempora-backend/internal/service"
)

// TimerHandler handles timer lifecycle HTTP requests
type TimerHandler struct {
	timerService *service.TimerService
}

// NewTimerHandler creates a new TimerHandler
func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{
		timerService: timerService,
	}
}

// StartTimerRequest represents the start timer request body
type StartTimerRequest struct {
	TaskID      *int32  `json:"taskId"`
	CategoryID  *int32  `json:"categoryId"`
	Description *string `json:"description"`
	IsBreak     bool    `json:"isBreak"`
}

// PauseTimerRequest represents the pause timer request body
type PauseTimerRequest struct {
	Reason *string `json:"reason"`
}

// StopTimerRequest represents the stop timer request body
type StopTimerRequest struct {
	Description *string `json:"description"`
}

// UpdateDescriptionRequest represents the description patch body
type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

// StartTimer handles POST /api/v1/timers/start
func (h *TimerHandler) StartTimer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req StartTimerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	timer, err := h.timerService.Start(userID, workspaceID, service.StartParams{
		TaskID:      req.TaskID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		IsBreak:     req.IsBreak,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Str("timer_id", timer.ID.String()).
		Str("action", "start_timer").
		Msg("Timer started")

	return c.JSON(http.StatusCreated, timer)
}

// PauseTimer handles POST /api/v1/timers/pause
func (h *TimerHandler) PauseTimer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req PauseTimerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.timerService.Pause(userID, workspaceID, req.Reason)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Str("action", "pause_timer").
		Msg("Timer paused")

	return c.JSON(http.StatusOK, result)
}

// ResumeTimer handles POST /api/v1/timers/resume
func (h *TimerHandler) ResumeTimer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	result, err := h.timerService.Resume(userID, workspaceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Str("action", "resume_timer").
		Msg("Timer resumed")

	return c.JSON(http.StatusOK, result)
}

// StopTimer handles POST /api/v1/timers/stop
func (h *TimerHandler) StopTimer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req StopTimerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	entry, err := h.timerService.Stop(userID, workspaceID, req.Description)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Str("time_entry_id", entry.ID.String()).
		Int64("duration_seconds", entry.DurationSeconds).
		Str("action", "stop_timer").
		Msg("Timer stopped")

	return c.JSON(http.StatusCreated, entry)
}

// CancelTimer handles DELETE /api/v1/timers/current
func (h *TimerHandler) CancelTimer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	result, err := h.timerService.Cancel(userID, workspaceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Str("timer_id", result.CancelledID.String()).
		Str("action", "cancel_timer").
		Msg("Timer cancelled")

	return c.JSON(http.StatusOK, result)
}

// UpdateDescription handles PATCH /api/v1/timers/current
func (h *TimerHandler) UpdateDescription(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req UpdateDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	timer, err := h.timerService.UpdateDescription(userID, workspaceID, req.Description)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, timer)
}

// GetStatus handles GET /api/v1/timers/status
func (h *TimerHandler) GetStatus(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	status, err := h.timerService.Status(userID, workspaceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// handleServiceError maps domain errors to HTTP responses
func (h *TimerHandler) handleServiceError(c echo.Context, err error) error {
	var alreadyRunning *domain.AlreadyRunningError
	if errors.As(err, &alreadyRunning) {
		return c.JSON(http.StatusConflict, ProblemDetails{
			Type:     ErrorTypeConflict,
			Title:    "Conflict",
			Status:   http.StatusConflict,
			Detail:   "A timer is already running in this workspace",
			Instance: c.Request().URL.Path,
			TimerID:  alreadyRunning.ExistingID.String(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrNoActiveTimer):
		return NewNotFoundError(c, "No active timer")
	case errors.Is(err, domain.ErrTimerAlreadyPaused):
		return NewConflictError(c, "Timer is already paused")
	case errors.Is(err, domain.ErrTimerNotPaused):
		return NewConflictError(c, "Timer is not paused")
	case errors.Is(err, domain.ErrNotWorkspaceMember):
		return NewForbiddenError(c, "Not a member of this workspace")
	case errors.Is(err, domain.ErrTaskNotFound):
		return NewValidationError(c, "Task not found in this workspace", nil)
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Category not found in this workspace", nil)
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Description exceeds 500 characters", nil)
	case errors.Is(err, domain.ErrPauseReasonTooLong):
		return NewValidationError(c, "Pause reason exceeds 255 characters", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	case errors.Is(err, domain.ErrStorageUnavailable):
		return NewUnavailableError(c, "Storage temporarily unavailable, please retry")
	default:
		log.Error().Err(err).Msg("Timer operation failed")
		return NewInternalError(c, "An unexpected error occurred")
	}
}
