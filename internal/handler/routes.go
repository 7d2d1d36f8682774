package handler

import (
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Workspace   *WorkspaceHandler
	RateProfile *RateProfileHandler
	Quote       *QuoteHandler
}

// RegisterRoutes sets up all API routes. Every route requires a workspace
// member; rateLimiter may be nil to disable per-member limits.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	if rateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	api.GET("/workspace", h.Workspace.GetWorkspace)

	// Rate profiles
	profiles := api.Group("/rate-profiles")
	profiles.POST("", h.RateProfile.CreateProfile)
	profiles.GET("", h.RateProfile.GetProfiles)
	profiles.GET("/:id", h.RateProfile.GetProfile)
	profiles.PUT("/:id", h.RateProfile.UpdateProfile)

	// Quotes
	quotes := api.Group("/quotes")
	quotes.POST("", h.Quote.CreateQuote)
	quotes.GET("", h.Quote.ListQuotes)
	quotes.GET("/:id", h.Quote.GetQuote)
	quotes.PUT("/:id", h.Quote.UpdateQuote)
	quotes.DELETE("/:id", h.Quote.DeleteQuote)

	// Budget structure
	quotes.POST("/:id/sections", h.Quote.AddSection)
	quotes.DELETE("/:id/sections/:sectionId", h.Quote.DeleteSection)
	quotes.POST("/:id/sections/:sectionId/lines", h.Quote.AddLine)
	quotes.PUT("/:id/lines/:lineId", h.Quote.UpdateLine)
	quotes.DELETE("/:id/lines/:lineId", h.Quote.DeleteLine)

	// Payment schedule
	quotes.POST("/:id/milestones", h.Quote.AddMilestone)
	quotes.DELETE("/:id/milestones/:milestoneId", h.Quote.DeleteMilestone)

	// Computation
	quotes.GET("/:id/totals", h.Quote.GetTotals)
	quotes.GET("/:id/breakdown", h.Quote.GetBreakdown)
	quotes.GET("/:id/coverage", h.Quote.GetCoverage)
	quotes.POST("/:id/recompute", h.Quote.Recompute)
	quotes.POST("/:id/export", h.Quote.ExportQuote)

	// Workflow
	quotes.PATCH("/:id/status", h.Quote.ChangeStatus)
	quotes.POST("/:id/tasks", h.Quote.DeriveTasks)
	quotes.GET("/:id/tasks", h.Quote.GetTasks)
}
