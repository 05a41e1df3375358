package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/tempora-app/tempora-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	timerHandler *TimerHandler,
	entryHandler *TimeEntryHandler,
	categoryHandler *CategoryHandler,
	activityHandler *ActivityHandler,
	reportHandler *ReportHandler,
	wsHandler *WebSocketHandler,
) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Timer lifecycle routes
	timers := api.Group("/timers")
	timers.POST("/start", timerHandler.StartTimer)
	timers.POST("/pause", timerHandler.PauseTimer)
	timers.POST("/resume", timerHandler.ResumeTimer)
	timers.POST("/stop", timerHandler.StopTimer)
	timers.DELETE("/current", timerHandler.CancelTimer)
	timers.PATCH("/current", timerHandler.UpdateDescription)
	timers.GET("/status", timerHandler.GetStatus)

	// Time entry routes
	entries := api.Group("/time-entries")
	entries.GET("", entryHandler.GetEntries)
	entries.GET("/:id", entryHandler.GetEntry)

	// Category routes
	api.GET("/categories", categoryHandler.GetCategories)

	// Activity feed routes
	api.GET("/activity", activityHandler.GetActivity)

	// Report routes
	api.POST("/reports/export", reportHandler.ExportCSV)

	// WebSocket endpoint (token auth via query parameter)
	e.GET("/ws", wsHandler.HandleWS)
}
