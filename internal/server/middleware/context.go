package middleware

import (
	"github.com/mlkg-org/backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

// AppContext carries the shared application state into route handlers.
type AppContext struct {
	echo.Context
	Service *service.Service
	Channel *amqp091.Channel
}

// AppContextMiddleware wraps every request context with the application
// state.
func AppContextMiddleware(svc *service.Service, ch *amqp091.Channel) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, Service: svc, Channel: ch})
		}
	}
}
