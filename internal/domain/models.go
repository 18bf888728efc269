// Package domain defines the persistence models for Slack workspace users
// and their scheduled messages. These types are mapped with GORM and form
// the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Scheduled message delivery states. A message starts as StatusPending and
// moves to exactly one terminal state: StatusSent or StatusFailed through a
// dispatch attempt, or StatusCancelled through an explicit user cancel.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// User represents a Slack workspace member who completed the OAuth flow.
// The row stores the per-user access credential used for all Slack API
// calls made on their behalf, plus the optional rotation material.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SlackUserID: Slack's identifier for the authed user; unique, used for upserts.
//   - TeamID: Slack workspace identifier.
//   - AccessToken: bearer token for Slack API calls.
//   - RefreshToken / TokenExpiry: present only when token rotation is enabled
//     on the Slack app.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	SlackUserID  string         `json:"slack_user_id" gorm:"type:varchar(32);not null;uniqueIndex:ux_users_slack_user"`
	TeamID       string         `json:"team_id"       gorm:"type:varchar(32);not null"`
	AccessToken  string         `json:"-"             gorm:"type:text;not null"`
	RefreshToken *string        `json:"-"             gorm:"type:text"`
	TokenExpiry  *time.Time     `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ScheduledMessage is a durable record of a future (or attempted) send.
// The repo layer is the sole writer of Status and SlackMessageID; the
// dispatcher and the request-facing service mutate rows only through it.
//
// Fields:
//   - ID: UUID primary key (char(36)), immutable after creation.
//   - UserID: owner of the message; never changes.
//   - Channel: destination Slack channel ID.
//   - Message: message text, non-empty (validated at the service layer).
//   - ScheduledAt: target delivery time; strictly in the future at creation.
//   - Status: pending | sent | failed | cancelled (see constants above).
//   - SlackMessageID: identifier returned by Slack once a send (or remote
//     schedule) is accepted; set only on success.
//   - CreatedAt / UpdatedAt: audit timestamps; UpdatedAt refreshed on every
//     status change.
//   - DeletedAt: soft deletion marker set when a message is cancelled, so the
//     row drops out of reads but the audit history survives.
type ScheduledMessage struct {
	ID             string         `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id"          gorm:"type:char(36);not null;index:idx_user_schedule"`
	Channel        string         `json:"channel"          gorm:"type:varchar(64);not null"`
	Message        string         `json:"message"          gorm:"type:text;not null"`
	ScheduledAt    time.Time      `json:"scheduled_at"     gorm:"not null;index:idx_due,priority:2"`
	Status         string         `json:"status"           gorm:"type:varchar(16);not null;default:'pending';index:idx_due,priority:1;check:status IN ('pending','sent','failed','cancelled')"`
	SlackMessageID *string        `json:"slack_message_id,omitempty" gorm:"type:varchar(64)"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for ScheduledMessage.
func (ScheduledMessage) TableName() string { return "scheduled_messages" }

// Terminal reports whether the message can no longer change state through
// a dispatch attempt.
func (m *ScheduledMessage) Terminal() bool {
	return m.Status != StatusPending
}
