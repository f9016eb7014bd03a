// Package middleware holds the echo middleware shared by the introspection
// server's route groups.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger injects a request-scoped logger into the request context, tagged
// with the request ID assigned by the RequestID middleware. It must run
// after RequestID in the chain.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		requestLogger := slog.Default().With("request_id", reqID)

		newCtx := context.WithValue(c.Request().Context(), loggerKey, requestLogger)
		c.SetRequest(c.Request().WithContext(newCtx))

		return next(c)
	}
}

// FromContext returns the request-scoped logger, or the process default when
// the context carries none (background goroutines, tests).
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// TapLimiter caps how fast a single client can open tap streams. Each tap
// attaches a subscriber to the bus, so unchecked connection churn from one
// address turns into registry churn; steady clients are unaffected.
func TapLimiter() echo.MiddlewareFunc {
	config := echomw.RateLimiterConfig{
		// In-memory store, suitable for a single-process server. The rate is
		// per second with an equal burst.
		Store: echomw.NewRateLimiterMemoryStore(5),

		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"code":    "rate_limited",
				"message": "too many tap requests, slow down",
			})
		},
	}
	return echomw.RateLimiterWithConfig(config)
}
