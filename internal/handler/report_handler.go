package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/middleware"
	"github.com/tempora-app/tempora-backend/internal/service"
)

// ReportHandler handles report export HTTP requests
type ReportHandler struct {
	exportService *service.ExportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(exportService *service.ExportService) *ReportHandler {
	return &ReportHandler{
		exportService: exportService,
	}
}

// ExportRequest represents the report export request body
type ExportRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ExportCSV handles POST /api/v1/reports/export
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	userID := middleware.GetUserID(c)
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "from", Message: "Required RFC 3339 timestamp"},
			{Field: "to", Message: "Required RFC 3339 timestamp"},
		})
	}

	result, err := h.exportService.ExportCSV(c.Request().Context(), userID, workspaceID, req.From, req.To)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidExportRange):
			return NewValidationError(c, "Export range must be non-empty and at most one year", nil)
		case errors.Is(err, domain.ErrNotWorkspaceMember):
			return NewForbiddenError(c, "Not a member of this workspace")
		case errors.Is(err, domain.ErrStorageUnavailable):
			return NewUnavailableError(c, "Storage temporarily unavailable, please retry")
		default:
			log.Error().Err(err).Msg("Report export failed")
			return NewInternalError(c, "An unexpected error occurred")
		}
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("workspace_id", workspaceID).
		Int("entries", result.EntryCount).
		Str("action", "export_report").
		Msg("Report exported")

	return c.JSON(http.StatusOK, result)
}
