package routes

import (
	"errors"
	"net/http"

	"github.com/mlkg-org/backend/internal/server/middleware"
	"github.com/mlkg-org/backend/internal/service"
	"github.com/mlkg-org/backend/pkg/kg"

	"github.com/labstack/echo/v4"
)

// GetStatsHandler returns statistics of the loaded knowledge graph.
func GetStatsHandler(c echo.Context) error {
	type statsResponse struct {
		Message string         `json:"message"`
		Stats   *kg.GraphStats `json:"stats,omitempty"`
	}

	svc := c.(*middleware.AppContext).Service
	stats, err := svc.Stats()
	if errors.Is(err, service.ErrGraphNotLoaded) {
		return c.JSON(http.StatusServiceUnavailable, statsResponse{
			Message: "No knowledge graph has been built yet",
		})
	}

	return c.JSON(http.StatusOK, statsResponse{
		Message: "OK",
		Stats:   &stats,
	})
}
