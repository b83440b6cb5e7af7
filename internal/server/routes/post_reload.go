package routes

import (
	"net/http"

	"github.com/mlkg-org/backend/internal/server/middleware"
	"github.com/mlkg-org/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReloadGraphHandler reloads the stored graph into memory, picking up the
// result of the latest build.
func ReloadGraphHandler(c echo.Context) error {
	svc := c.(*middleware.AppContext).Service
	if err := svc.Reload(c.Request().Context()); err != nil {
		logger.Error("[Server] Failed to reload graph", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "Failed to reload graph",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Graph reloaded",
	})
}
