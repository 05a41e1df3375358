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

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	resolver *service.CategoryResolver
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(resolver *service.CategoryResolver) *CategoryHandler {
	return &CategoryHandler{
		resolver: resolver,
	}
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	categories, err := h.resolver.GetCategories(workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return NewUnavailableError(c, "Storage temporarily unavailable, please retry")
		}
		log.Error().Err(err).Msg("Category listing failed")
		return NewInternalError(c, "An unexpected error occurred")
	}

	return c.JSON(http.StatusOK, categories)
}
