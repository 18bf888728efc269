// Package services – AuthService
//
// This file implements the AuthService, which owns the Slack OAuth handshake
// and the API's own JWT session tokens. The flow mirrors Slack's OAuth v2:
// the browser is redirected to the consent screen, Slack calls back with an
// authorization code, and the frontend exchanges that code here for a JWT
// access/refresh pair. The Slack credential obtained during the exchange is
// upserted into the users table, which doubles as the credential store used
// by the dispatcher and the message service.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/repo"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

// OAuthGateway is the contract AuthService needs from the Slack client.
type OAuthGateway interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*slackapi.Credential, error)
}

// Claims are the JWT claims carried by both access and refresh tokens.
type Claims struct {
	UserID      string `json:"user_id"`
	SlackUserID string `json:"slack_user_id"`
	TeamID      string `json:"team_id"`
	jwt.RegisteredClaims
}

// TokenPair is an issued access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult bundles the authenticated user with their freshly issued tokens.
type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

// AuthService orchestrates OAuth code exchange, user upsert, and JWT
// issuance/verification.
type AuthService struct {
	// DB is the database handle for user persistence.
	DB *gorm.DB
	// Gateway performs the OAuth calls against Slack.
	Gateway OAuthGateway

	// AccessSecret / RefreshSecret sign the two token families. They must
	// differ so a refresh token can never pass as an access token.
	AccessSecret  []byte
	RefreshSecret []byte
	// AccessTTL / RefreshTTL control token lifetimes (15m / 7d by default
	// via config).
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// FrontendBaseURL is where the OAuth callback redirects the browser.
	FrontendBaseURL string
}

// AuthorizeURL returns the Slack consent URL with a fresh random state.
func (s *AuthService) AuthorizeURL() string {
	return s.Gateway.AuthorizeURL(uuid.NewString())
}

// CallbackRedirectURL builds the frontend URL the OAuth callback redirects
// to, forwarding the authorization code (and state when present) so the
// frontend can complete the exchange via /auth/token.
func (s *AuthService) CallbackRedirectURL(code, state string) string {
	base := strings.TrimRight(s.FrontendBaseURL, "/")
	u := base + "/auth/callback?code=" + url.QueryEscape(code)
	if state != "" {
		u += "&state=" + url.QueryEscape(state)
	}
	return u
}

// Exchange trades an OAuth authorization code for a JWT token pair, creating
// or updating the user's stored Slack credential along the way.
func (s *AuthService) Exchange(ctx context.Context, code string) (*AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	cred, err := s.Gateway.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var refresh *string
	if cred.RefreshToken != "" {
		refresh = &cred.RefreshToken
	}
	var expiry *time.Time
	if cred.ExpiresIn > 0 {
		t := time.Now().Add(cred.ExpiresIn).UTC()
		expiry = &t
	}

	u, err := repo.UpsertUserBySlackID(ctx, s.DB, cred.SlackUserID, cred.TeamID, cred.AccessToken, refresh, expiry)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// Refresh verifies a refresh token and issues a new token pair for its user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.verify(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := repo.GetUser(ctx, s.DB, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*Claims, error) {
	claims, err := s.verify(token, s.AccessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer pulls the token out of an "Authorization: Bearer <tok>"
// header value, returning "" when the header is absent or malformed.
func ExtractBearer(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *AuthService) issuePair(u *domain.User) (TokenPair, error) {
	access, err := s.sign(u, s.AccessSecret, s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(u, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(u *domain.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      u.ID,
		SlackUserID: u.SlackUserID,
		TeamID:      u.TeamID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *AuthService) verify(token string, secret []byte) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
