package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/http/middleware"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/services"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

// fakeOAuth implements services.OAuthGateway with a canned credential.
type fakeOAuth struct {
	cred *slackapi.Credential
	err  error
}

func (g *fakeOAuth) AuthorizeURL(state string) string {
	return "https://slack.com/oauth/v2/authorize?client_id=test&state=" + state
}

func (g *fakeOAuth) ExchangeCode(context.Context, string) (*slackapi.Credential, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.cred, nil
}

func newAuthAPI(t *testing.T, db *gorm.DB, gw services.OAuthGateway) (*gin.Engine, *services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := &services.AuthService{
		DB:              db,
		Gateway:         gw,
		AccessSecret:    []byte("access-secret-for-tests"),
		RefreshSecret:   []byte("refresh-secret-for-tests"),
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      7 * 24 * time.Hour,
		FrontendBaseURL: "http://localhost:3000",
	}
	h := New(nil, authSvc)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/auth/slack", h.InitiateAuth)
	r.GET("/auth/slack/callback", h.OAuthCallback)
	r.GET("/auth/token", h.ExchangeToken)
	r.POST("/auth/refresh", h.RefreshTokens)
	r.GET("/auth/me", middleware.RequireAuth(authSvc), h.CurrentUser)
	return r, authSvc
}

func TestInitiateAuth_RedirectsToConsentScreen(t *testing.T) {
	r, _ := newAuthAPI(t, newHandlerDB(t), &fakeOAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/slack", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://slack.com/oauth/v2/authorize") || !strings.Contains(loc, "state=") {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestOAuthCallback_ForwardsCodeToFrontend(t *testing.T) {
	r, _ := newAuthAPI(t, newHandlerDB(t), &fakeOAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/slack/callback?code=abc123&state=s1", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "http://localhost:3000/auth/callback?") ||
		!strings.Contains(loc, "code=abc123") || !strings.Contains(loc, "state=s1") {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestOAuthCallback_MissingCodeIs400(t *testing.T) {
	r, _ := newAuthAPI(t, newHandlerDB(t), &fakeOAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/slack/callback", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExchangeToken_IssuesJWTPair(t *testing.T) {
	gw := &fakeOAuth{cred: &slackapi.Credential{SlackUserID: "U1", TeamID: "T1", AccessToken: "xoxp"}}
	r, authSvc := newAuthAPI(t, newHandlerDB(t), gw)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/token?code=auth-code", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			ID          string `json:"id"`
			SlackUserID string `json:"slack_user_id"`
		} `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.SlackUserID != "U1" || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, err := authSvc.VerifyAccessToken(resp.AccessToken); err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
}

func TestExchangeToken_MissingCodeIs400(t *testing.T) {
	r, _ := newAuthAPI(t, newHandlerDB(t), &fakeOAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/token", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExchangeToken_SlackRejectionIs400(t *testing.T) {
	gw := &fakeOAuth{err: &slackapi.APIError{Op: "oauth.v2.access", Reason: "invalid_code"}}
	r, _ := newAuthAPI(t, newHandlerDB(t), gw)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/token?code=bad", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "slack rejected") {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

func TestRefreshTokens_RoundTripAndRejection(t *testing.T) {
	gw := &fakeOAuth{cred: &slackapi.Credential{SlackUserID: "U1", TeamID: "T1", AccessToken: "xoxp"}}
	db := newHandlerDB(t)
	r, authSvc := newAuthAPI(t, db, gw)

	res, err := authSvc.Exchange(context.Background(), "code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	body := strings.NewReader(`{"refresh_token":"` + res.Tokens.RefreshToken + `"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("incomplete pair: %+v", resp)
	}

	// Garbage refresh token is a 401.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"garbage"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Missing body field is a 400.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCurrentUser_RequiresAndReflectsIdentity(t *testing.T) {
	gw := &fakeOAuth{cred: &slackapi.Credential{SlackUserID: "U1", TeamID: "T1", AccessToken: "xoxp"}}
	db := newHandlerDB(t)
	r, authSvc := newAuthAPI(t, db, gw)

	// No token: 401.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	res, err := authSvc.Exchange(context.Background(), "code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.Tokens.AccessToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			ID          string `json:"id"`
			SlackUserID string `json:"slack_user_id"`
			TeamID      string `json:"team_id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != res.User.ID || resp.User.SlackUserID != "U1" || resp.User.TeamID != "T1" {
		t.Fatalf("identity mismatch: %+v", resp)
	}
}
