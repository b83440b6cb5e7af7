package routes

import (
	"net/http"

	"github.com/mlkg-org/backend/internal/server/middleware"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

var contentTypes = map[kg.Format]string{
	kg.FormatTurtle:   "text/turtle",
	kg.FormatNTriples: "application/n-triples",
	kg.FormatJSONLD:   "application/ld+json",
}

// GetGraphHandler serves the stored graph serialization in the requested
// format (default Turtle).
func GetGraphHandler(c echo.Context) error {
	format := kg.Format(c.QueryParam("format"))
	if format == "" {
		format = kg.FormatTurtle
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": "Unsupported format",
		})
	}

	svc := c.(*middleware.AppContext).Service
	content, err := svc.Serialization(c.Request().Context(), string(format))
	if err != nil {
		logger.Error("[Server] Failed to load serialization", "format", format, "err", err)
		return c.JSON(http.StatusNotFound, map[string]string{
			"message": "No stored serialization for this format",
		})
	}

	return c.Blob(http.StatusOK, contentType, []byte(content))
}
