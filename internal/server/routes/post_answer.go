package routes

import (
	"errors"
	"net/http"

	"github.com/mlkg-org/backend/internal/server/middleware"
	"github.com/mlkg-org/backend/internal/service"
	"github.com/mlkg-org/backend/pkg/answer"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/query"

	"github.com/labstack/echo/v4"
)

// AnswerQuestionHandler answers one natural-language question against the
// loaded knowledge graph.
func AnswerQuestionHandler(c echo.Context) error {
	type answerBody struct {
		Question string `json:"question" validate:"required"`
	}

	type answerResponse struct {
		Message string         `json:"message"`
		Answer  *answer.Answer `json:"answer,omitempty"`
	}

	data := new(answerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, answerResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, answerResponse{
			Message: "Invalid request body",
		})
	}

	svc := c.(*middleware.AppContext).Service
	ans, err := svc.Answer(c.Request().Context(), data.Question)
	switch {
	case errors.Is(err, service.ErrGraphNotLoaded):
		return c.JSON(http.StatusServiceUnavailable, answerResponse{
			Message: "No knowledge graph has been built yet",
		})
	case errors.Is(err, query.ErrEntityNotFound):
		return c.JSON(http.StatusNotFound, answerResponse{
			Message: "The mentioned entity is not in the knowledge graph",
		})
	case errors.Is(err, query.ErrUnsupportedIntent):
		return c.JSON(http.StatusUnprocessableEntity, answerResponse{
			Message: "The question could not be understood",
		})
	case err != nil:
		logger.Error("[Server] Failed to answer question", "err", err)
		return c.JSON(http.StatusInternalServerError, answerResponse{
			Message: "Failed to answer question",
		})
	}

	return c.JSON(http.StatusOK, answerResponse{
		Message: "OK",
		Answer:  &ans,
	})
}
