package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/middleware"
	"github.com/tempora-app/tempora-backend/internal/service"
)

// ActivityHandler handles activity feed HTTP requests
type ActivityHandler struct {
	timerService *service.TimerService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(timerService *service.TimerService) *ActivityHandler {
	return &ActivityHandler{
		timerService: timerService,
	}
}

// GetActivity handles GET /api/v1/activity
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	limit := int32(100)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 500 {
			return NewValidationError(c, "Invalid 'limit', expected 1-500", nil)
		}
		limit = int32(parsed)
	}

	events, err := h.timerService.ListActivity(userID, workspaceID, limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotWorkspaceMember):
			return NewForbiddenError(c, "Not a member of this workspace")
		case errors.Is(err, domain.ErrStorageUnavailable):
			return NewUnavailableError(c, "Storage temporarily unavailable, please retry")
		default:
			log.Error().Err(err).Msg("Activity listing failed")
			return NewInternalError(c, "An unexpected error occurred")
		}
	}

	if events == nil {
		events = []*domain.LifecycleEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
