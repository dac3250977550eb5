package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
)

// CoverLetterIDKey is set by handlers so the request log can carry the id.
const CoverLetterIDKey = "coverLetterId"

// StatusTransitionKey is set by handlers that move a cover letter between states.
const StatusTransitionKey = "statusTransition"

// Logging writes one structured line per request and records its latency.
// Preflights and scrapes of /metrics are not logged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		metrics.ObserveRequest(c.FullPath(), c.Request.Method, status, latency)
		if c.Request.Method == http.MethodOptions || c.FullPath() == "/metrics" {
			return
		}

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
		}
		if id := c.GetString(CoverLetterIDKey); id != "" {
			fields["cover_letter_id"] = id
		}
		if transition := c.GetString(StatusTransitionKey); transition != "" {
			fields["status_transition"] = transition
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
