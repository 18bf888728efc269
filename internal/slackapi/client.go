// Package slackapi wraps the Slack Web API behind a small gateway. Every
// messaging call is parameterized by a per-user access token obtained through
// the OAuth flow; the gateway itself holds only the app credentials needed
// for token exchange.
//
// The gateway is deliberately thin: it translates between domain arguments
// and slack-go calls, normalizes failures into *APIError, and nothing else.
// Delivery bookkeeping lives in the repo layer.
package slackapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// oauthScopes are the workspace permissions requested during authorization,
// matching what the messaging endpoints need: reading channel lists and
// posting to public or private channels.
var oauthScopes = []string{
	"channels:read",
	"chat:write",
	"chat:write.public",
	"groups:read",
	"im:read",
	"users:read",
}

// Channel is the slice of Slack conversation metadata the API exposes.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// Receipt is the acknowledgment returned by Slack for an accepted delivery.
// MessageID is the message timestamp for immediate sends or the scheduled
// message ID for remote-native scheduling.
type Receipt struct {
	Channel   string
	MessageID string
}

// Credential is the authed-user result of an OAuth code exchange or refresh.
type Credential struct {
	SlackUserID  string
	TeamID       string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Client is the Slack gateway. Safe for concurrent use; per-user API clients
// are constructed per call around the caller's token.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	apiURL       string
	httpc        *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIURL points the gateway at an alternate Slack API base URL.
// Used by tests to target an httptest server; must end with a slash.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithHTTPClient replaces the underlying HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// New constructs a gateway from the Slack app credentials.
func New(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpc:        &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// api builds a slack-go client bound to the given user token.
func (c *Client) api(token string) *slack.Client {
	opts := []slack.Option{slack.OptionHTTPClient(c.httpc)}
	if c.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(c.apiURL))
	}
	return slack.New(token, opts...)
}

// AuthorizeURL returns the OAuth v2 consent URL the browser is redirected to.
// state should be an unguessable value echoed back on the callback.
func (c *Client) AuthorizeURL(state string) string {
	v := url.Values{}
	v.Set("client_id", c.clientID)
	v.Set("scope", strings.Join(oauthScopes, ","))
	v.Set("redirect_uri", c.redirectURI)
	if state != "" {
		v.Set("state", state)
	}
	return "https://slack.com/oauth/v2/authorize?" + v.Encode()
}

// ExchangeCode trades an OAuth authorization code for user credentials.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, c.httpc, c.clientID, c.clientSecret, code, c.redirectURI)
	if err != nil {
		return nil, wrapErr("oauth.v2.access", err)
	}
	return credentialFrom(resp), nil
}

// RefreshToken rotates an expired user token using its refresh token.
// Only meaningful when token rotation is enabled on the Slack app.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Credential, error) {
	resp, err := slack.RefreshOAuthV2TokenContext(ctx, c.httpc, c.clientID, c.clientSecret, refreshToken)
	if err != nil {
		return nil, wrapErr("oauth.v2.access", err)
	}
	return credentialFrom(resp), nil
}

func credentialFrom(resp *slack.OAuthV2Response) *Credential {
	cred := &Credential{
		SlackUserID:  resp.AuthedUser.ID,
		TeamID:       resp.Team.ID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
	}
	// With user-scoped installs the token rides on authed_user instead.
	if cred.AccessToken == "" && resp.AuthedUser.AccessToken != "" {
		cred.AccessToken = resp.AuthedUser.AccessToken
		cred.RefreshToken = resp.AuthedUser.RefreshToken
		cred.ExpiresIn = time.Duration(resp.AuthedUser.ExpiresIn) * time.Second
	}
	return cred
}

// ListChannels returns the non-archived public and private channels reachable
// with the given token, following cursor pagination to the end.
func (c *Client) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	api := c.api(token)
	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           200,
	}

	var out []Channel
	for {
		chans, cursor, err := api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, wrapErr("conversations.list", err)
		}
		for _, ch := range chans {
			out = append(out, Channel{ID: ch.ID, Name: ch.Name, IsPrivate: ch.IsPrivate})
		}
		if cursor == "" {
			return out, nil
		}
		params.Cursor = cursor
	}
}

// SendNow posts text to a channel immediately on behalf of the token's user.
func (c *Client) SendNow(ctx context.Context, token, channel, text string) (*Receipt, error) {
	respChannel, ts, err := c.api(token).PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, wrapErr("chat.postMessage", err)
	}
	return &Receipt{Channel: respChannel, MessageID: ts}, nil
}

// ScheduleRemote asks Slack itself to hold and deliver the message at the
// given time. This is the remote-native scheduling path; the local dispatcher
// remains the delivery authority unless it is explicitly enabled.
func (c *Client) ScheduleRemote(ctx context.Context, token, channel, text string, at time.Time) (*Receipt, error) {
	postAt := strconv.FormatInt(at.Unix(), 10)
	respChannel, id, err := c.api(token).ScheduleMessageContext(ctx, channel, postAt, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, wrapErr("chat.scheduleMessage", err)
	}
	return &Receipt{Channel: respChannel, MessageID: id}, nil
}

// DeleteScheduledRemote cancels a remote-native scheduled message so a local
// cancel cannot leave an orphaned delivery on Slack's side.
func (c *Client) DeleteScheduledRemote(ctx context.Context, token, channel, scheduledMessageID string) error {
	_, err := c.api(token).DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{
		Channel:            channel,
		ScheduledMessageID: scheduledMessageID,
	})
	if err != nil {
		return wrapErr("chat.deleteScheduledMessage", err)
	}
	return nil
}
