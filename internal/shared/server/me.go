package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
)

type generationInfo struct {
	Mode          string `json:"mode"`
	RatePerMinute int    `json:"ratePerMinute"`
}

type meResponse struct {
	UserID     string         `json:"userId"`
	Email      string         `json:"email,omitempty"`
	IsGuest    bool           `json:"isGuest"`
	Generation generationInfo `json:"generation"`
}

// meHandler reports the resolved caller and how generate requests are served,
// so the client knows whether to expect 202 and poll.
func meHandler(async bool, ratePerMinute int) gin.HandlerFunc {
	mode := "sync"
	if async {
		mode = "async"
	}
	if ratePerMinute < 0 {
		ratePerMinute = 0
	}
	return func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		respond.JSON(c, http.StatusOK, meResponse{
			UserID:     userID,
			Email:      middleware.UserEmailFromContext(c),
			IsGuest:    middleware.IsGuest(c),
			Generation: generationInfo{Mode: mode, RatePerMinute: ratePerMinute},
		})
	}
}
