// Auth HTTP handlers.
//
// This file exposes the OAuth and session endpoints:
//   - GET  /auth/slack           (redirect the browser to Slack's consent screen)
//   - GET  /auth/slack/callback  (Slack redirects back; forward code to the frontend)
//   - GET  /auth/token           (frontend exchanges the code for a JWT pair)
//   - POST /auth/refresh         (rotate a JWT pair)
//   - GET  /auth/me              (authenticated caller's identity)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/http/middleware"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/services"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

// RefreshRequest is the JSON payload for rotating a token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// InitiateAuth godoc
// @ID          initiateAuth
// @Summary     Start the Slack OAuth flow
// @Tags        Auth
// @Success     302 {string} string "Redirect to Slack consent screen"
// @Router      /auth/slack [get]
func (h *Handlers) InitiateAuth(c *gin.Context) {
	c.Redirect(http.StatusFound, h.authSvc.AuthorizeURL())
}

// OAuthCallback godoc
// @ID          oauthCallback
// @Summary     Slack OAuth callback
// @Description Forwards the authorization code to the frontend, which completes the exchange via /auth/token.
// @Tags        Auth
// @Success     302 {string} string "Redirect to frontend"
// @Failure     400 {object} handlers.ErrorResponse "Authorization code missing"
// @Router      /auth/slack/callback [get]
func (h *Handlers) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "authorization code missing")
		return
	}
	c.Redirect(http.StatusFound, h.authSvc.CallbackRedirectURL(code, c.Query("state")))
}

// ExchangeToken godoc
// @ID          exchangeToken
// @Summary     Exchange an OAuth code for a JWT pair
// @Tags        Auth
// @Produce     json
// @Param       code query string true "OAuth authorization code"
// @Success     200 {object} map[string]any
// @Failure     400 {object} handlers.ErrorResponse "Code missing or rejected by Slack"
// @Router      /auth/token [get]
func (h *Handlers) ExchangeToken(c *gin.Context) {
	res, err := h.authSvc.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.failAuth(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":            res.User.ID,
			"slack_user_id": res.User.SlackUserID,
			"team_id":       res.User.TeamID,
		},
		"access_token":  res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
	})
}

// RefreshTokens godoc
// @ID          refreshTokens
// @Summary     Rotate a JWT pair using a refresh token
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body handlers.RefreshRequest true "Refresh payload"
// @Success     200 {object} map[string]any
// @Failure     401 {object} handlers.ErrorResponse "Invalid refresh token"
// @Router      /auth/refresh [post]
func (h *Handlers) RefreshTokens(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh_token is required")
		return
	}
	res, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.failAuth(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"access_token":  res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
	})
}

// CurrentUser godoc
// @ID          currentUser
// @Summary     Authenticated caller's identity
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]any
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Router      /auth/me [get]
func (h *Handlers) CurrentUser(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":            middleware.UserID(c),
			"slack_user_id": asCtxString(c, middleware.SlackUserIDKey),
			"team_id":       asCtxString(c, middleware.TeamIDKey),
		},
	})
}

// failAuth translates auth-service errors into HTTP results.
func (h *Handlers) failAuth(c *gin.Context, err error) {
	var apiErr *slackapi.APIError
	switch {
	case errors.Is(err, services.ErrMissingCode):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "authorization code missing")
	case errors.Is(err, services.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token")
	case errors.As(err, &apiErr):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slack rejected the authorization code")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// asCtxString reads a string value from the Gin context, "" when absent.
func asCtxString(c *gin.Context, key string) string {
	if v, exists := c.Get(key); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
