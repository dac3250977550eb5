package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 error envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		fields := map[string]any{
			"request_id": RequestIDFromContext(c),
			"panic":      rec,
			"stack":      string(debug.Stack()),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		}
		if id := c.GetString(CoverLetterIDKey); id != "" {
			fields["cover_letter_id"] = id
		}
		telemetry.Error("http.panic", fields)
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	})
}
