package server

import (
	"github.com/mlkg-org/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Query routes
	apiRoutes.POST("/answer", routes.AnswerQuestionHandler)
	apiRoutes.GET("/stats", routes.GetStatsHandler)
	apiRoutes.GET("/graph", routes.GetGraphHandler)

	// Build routes
	apiRoutes.POST("/build", routes.QueueBuildHandler)
	apiRoutes.POST("/reload", routes.ReloadGraphHandler)
}
