package server

import (
	"context"
	"database/sql"
	"errors"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/shared/auth"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/storage/object"
)

const (
	generateRateGroup = "GENERATE"
	healthPingTimeout = 2 * time.Second
)

// RouterDeps collects what the router needs. Nil DB or Store disables the
// related checks and routes.
type RouterDeps struct {
	Config       config.Config
	DB           *sql.DB
	Store        object.ObjectStore
	Verifier     *auth.Verifier
	CoverLetters *coverletters.Handler
	// AsyncGeneration is true when generate requests are queued.
	AsyncGeneration bool
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	cfg := deps.Config

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Store != nil {
		r.GET("/files/*key", serveObject(deps.Store))
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.DB))

	secured := api.Group("", middleware.Auth(deps.Verifier, cfg.IsDevLike()))
	secured.GET("/me", meHandler(deps.AsyncGeneration, cfg.GenerateRatePerMinute))
	if deps.CoverLetters != nil {
		deps.CoverLetters.RegisterRoutes(secured, generateRateLimit(cfg.GenerateRatePerMinute))
	}
	return r
}

// generateRateLimit allows perMinute generations per user with a burst of
// the same size. Zero or negative disables the limit.
func generateRateLimit(perMinute int) gin.HandlerFunc {
	rules := map[string]middleware.RateLimitRule{}
	if perMinute > 0 {
		rules[generateRateGroup] = middleware.RateLimitRule{Rate: float64(perMinute) / 60, Burst: perMinute}
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: generateRateGroup,
	})
}

func healthHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sqlDB == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true, "db": "memory"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "db": "unreachable"})
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "db": "postgres"})
	}
}

func serveObject(store object.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, object.ErrInvalidKey) {
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read file", nil)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Cache-Control", "private, max-age=300")
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
