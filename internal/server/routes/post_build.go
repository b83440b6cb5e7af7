package routes

import (
	"encoding/json"
	"net/http"

	"github.com/mlkg-org/backend/internal/queue"
	"github.com/mlkg-org/backend/internal/server/middleware"
	"github.com/mlkg-org/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// QueueBuildHandler enqueues a graph construction job for the worker.
func QueueBuildHandler(c echo.Context) error {
	type buildBody struct {
		InputPath string `json:"input_path" validate:"required"`
		OutputDir string `json:"output_dir"`
	}

	type buildResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(buildBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Invalid request body",
		})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildResponse{
			Message: "Failed to create correlation id",
		})
	}

	msg := queue.BuildGraphMsg{
		Message:       "Build knowledge graph",
		CorrelationID: correlationID,
		InputPath:     data.InputPath,
		OutputDir:     data.OutputDir,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildResponse{
			Message: "Failed to marshal job",
		})
	}

	ch := c.(*middleware.AppContext).Channel
	if err := queue.PublishFIFO(ch, queue.BuildQueue, msgBytes); err != nil {
		logger.Error("[Server] Failed to enqueue build job", "err", err)
		return c.JSON(http.StatusInternalServerError, buildResponse{
			Message: "Failed to enqueue build job",
		})
	}

	return c.JSON(http.StatusAccepted, buildResponse{
		Message:       "Build job enqueued",
		CorrelationID: correlationID,
	})
}
