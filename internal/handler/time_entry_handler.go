package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/middleware"
	"github.com/tempora-app/tempora-backend/internal/service"
)

// TimeEntryHandler handles time entry HTTP requests
type TimeEntryHandler struct {
	entryService *service.TimeEntryService
}

// NewTimeEntryHandler creates a new TimeEntryHandler
func NewTimeEntryHandler(entryService *service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{
		entryService: entryService,
	}
}

// GetEntries handles GET /api/v1/time-entries
func (h *TimeEntryHandler) GetEntries(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters, err := parseEntryFilters(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	page, err := h.entryService.List(userID, workspaceID, filters)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// GetEntry handles GET /api/v1/time-entries/:id
func (h *TimeEntryHandler) GetEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	entry, err := h.entryService.GetByID(userID, workspaceID, id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, entry)
}

func parseEntryFilters(c echo.Context) (*domain.TimeEntryFilters, error) {
	filters := &domain.TimeEntryFilters{}

	if raw := c.QueryParam("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.New("invalid 'from' timestamp, expected RFC 3339")
		}
		filters.From = &from
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.New("invalid 'to' timestamp, expected RFC 3339")
		}
		filters.To = &to
	}
	if raw := c.QueryParam("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("invalid 'userId'")
		}
		filters.UserID = &id
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || page < 1 {
			return nil, errors.New("invalid 'page'")
		}
		filters.Page = int32(page)
	}
	if raw := c.QueryParam("pageSize"); raw != "" {
		pageSize, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || pageSize < 1 {
			return nil, errors.New("invalid 'pageSize'")
		}
		filters.PageSize = int32(pageSize)
	}

	return filters, nil
}

// handleServiceError maps domain errors to HTTP responses
func (h *TimeEntryHandler) handleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrTimeEntryNotFound):
		return NewNotFoundError(c, "Time entry not found")
	case errors.Is(err, domain.ErrNotWorkspaceMember):
		return NewForbiddenError(c, "Not a member of this workspace")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid filter range", nil)
	case errors.Is(err, domain.ErrStorageUnavailable):
		return NewUnavailableError(c, "Storage temporarily unavailable, please retry")
	default:
		log.Error().Err(err).Msg("Time entry operation failed")
		return NewInternalError(c, "An unexpected error occurred")
	}
}
