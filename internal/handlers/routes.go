package handlers

import (
	"github.com/labstack/echo/v4"
)

// Route registers the API. auth guards every route that acts on the
// caller's account.
func (h *Handler) Route(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.POST("/users", h.Register)
	api.POST("/auth", h.Login)
	api.GET("/goals/catalog", h.GetCatalog)

	user := api.Group("/user", auth)
	user.GET("", h.GetCurrentUser)
	user.PATCH("", h.UpdateProfile)
	user.PUT("/password", h.ChangePassword)
	user.DELETE("", h.DeleteAccount)

	protected := api.Group("", auth)
	protected.GET("/users", h.ListUsers)

	protected.GET("/goals", h.GetGoals)
	protected.PUT("/goals", h.ReplaceGoals)
	protected.PATCH("/goals", h.UpsertGoals)
	protected.POST("/goals/progress", h.RecomputeProgress)
	protected.POST("/goals/:goal/tasks", h.AddTask)
	protected.PATCH("/goals/:goal/tasks/:task", h.SetTaskCompletion)
	protected.DELETE("/goals/:goal/tasks/:task", h.RemoveTask)

	protected.GET("/pairing", h.FindPartners)

	if h.companion != nil {
		protected.POST("/companion/chat", h.Chat)
	}
}
