package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger пишет одну запись на запрос; уровень зависит от статуса ответа.
func Logger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := GetRequestID(c); id != "" {
			args = append(args, "request_id", id)
		}
		if u := CurrentUser(c); u != nil {
			args = append(args, "user_id", u.ID)
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			args = append(args, "error", msg)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "http request", args...)
		case status >= 400:
			log.WarnContext(ctx, "http request", args...)
		default:
			log.InfoContext(ctx, "http request", args...)
		}
	}
}
