// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the bearer-token authentication guard for the protected
// API group. It verifies the JWT access token issued by the auth service and
// stores the caller's identity in the Gin context for handlers and the rate
// limiter to key on.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/services"
)

// Context keys set by RequireAuth on success.
const (
	// SlackUserIDKey holds the caller's Slack user ID.
	SlackUserIDKey = "slackUserID"
	// TeamIDKey holds the caller's Slack workspace ID.
	TeamIDKey = "teamID"
)

// TokenVerifier is the single operation the guard needs from the auth service.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*services.Claims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" access
// token. On success the caller's user ID (primary key of the users table) is
// stored under "userID", plus Slack identifiers under their own keys.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := services.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "access token required")
			return
		}

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(SlackUserIDKey, claims.SlackUserID)
		c.Set(TeamIDKey, claims.TeamID)
		c.Next()
	}
}

// UserID returns the authenticated caller's ID, or "" when the request did
// not pass RequireAuth.
func UserID(c *gin.Context) string {
	return asString(mustGet(c, userIDKey))
}

func unauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
