package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per HTTP request with slog.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			res := c.Response()
			attrs := []any{
				slog.Int("status", res.Status),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.String("ip", c.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Duration("latency", time.Since(start)),
				slog.Int64("body_size", res.Size),
			}
			if uid, ok := c.Get(ContextUserID).(string); ok {
				attrs = append(attrs, slog.String("user_id", uid))
			}

			switch {
			case res.Status >= 500:
				logger.Error("HTTP Request", attrs...)
			case res.Status >= 400:
				logger.Warn("HTTP Request", attrs...)
			default:
				logger.Info("HTTP Request", attrs...)
			}
			return nil
		}
	}
}
