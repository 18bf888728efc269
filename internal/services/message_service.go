// Package services – MessageService
//
// This file implements the MessageService, the request-facing surface for
// everything a caller does with messages: immediate sends, scheduling,
// listing, cancelling, and channel discovery. It validates input, resolves
// the caller's stored Slack credential, and coordinates the repo layer with
// the Slack gateway.
//
// Delivery of due messages is NOT handled here; that is the dispatcher's job
// (internal/scheduler). Scheduling only writes the pending record. When the
// optional remote-native path is enabled the service additionally asks Slack
// to hold the message, but a remote failure never blocks local creation.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/repo"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

// Gateway is the contract MessageService needs from the Slack client.
// *slackapi.Client satisfies it; tests substitute fakes.
type Gateway interface {
	ListChannels(ctx context.Context, token string) ([]slackapi.Channel, error)
	SendNow(ctx context.Context, token, channel, text string) (*slackapi.Receipt, error)
	ScheduleRemote(ctx context.Context, token, channel, text string, at time.Time) (*slackapi.Receipt, error)
	DeleteScheduledRemote(ctx context.Context, token, channel, scheduledMessageID string) error
}

// MessageService implements the use-cases around immediate and scheduled
// messages. All persistence goes through the repo layer; all Slack traffic
// goes through the injected Gateway.
type MessageService struct {
	// DB is the database handle used for all message operations.
	DB *gorm.DB
	// Gateway is the Slack client used for channel listing and delivery.
	Gateway Gateway

	// RemoteSchedule enables the remote-native scheduling path: when true,
	// Schedule also registers the message with Slack's own scheduler and
	// Cancel deletes the remote counterpart. Off by default; the local
	// dispatcher is the single delivery authority.
	RemoteSchedule bool
}

// credential resolves the caller's stored Slack access token.
func (s *MessageService) credential(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListChannels returns the channels reachable with the caller's credential.
func (s *MessageService) ListChannels(ctx context.Context, userID string) ([]slackapi.Channel, error) {
	u, err := s.credential(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Gateway.ListChannels(ctx, u.AccessToken)
}

// SendNow posts text to a channel immediately. No record is stored; the
// receipt (or the upstream error) goes straight back to the caller.
func (s *MessageService) SendNow(ctx context.Context, userID, channel, text string) (*slackapi.Receipt, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, ErrEmptyChannel
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	u, err := s.credential(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Gateway.SendNow(ctx, u.AccessToken, channel, text)
}

// Schedule validates the request and persists a pending record for the
// dispatcher to deliver.
//
// Validation:
//   - channel and text must be non-empty (text is trimmed for the check but
//     stored as given);
//   - scheduledAt must be strictly after the current time.
//
// When RemoteSchedule is on, the message is also registered with Slack's
// native scheduler and the returned scheduled-message ID is merged into the
// stored row. The remote call is best-effort: if it fails, the local pending
// record still exists and the dispatcher will deliver it at due time.
func (s *MessageService) Schedule(ctx context.Context, userID, channel, text string, scheduledAt time.Time) (*domain.ScheduledMessage, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, ErrEmptyChannel
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !scheduledAt.After(time.Now()) {
		return nil, ErrScheduleInPast
	}

	u, err := s.credential(ctx, userID)
	if err != nil {
		return nil, err
	}

	m, err := repo.CreateScheduledMessage(ctx, s.DB, userID, channel, text, scheduledAt)
	if err != nil {
		return nil, err
	}

	if s.RemoteSchedule {
		if rec, err := s.Gateway.ScheduleRemote(ctx, u.AccessToken, channel, text, scheduledAt); err == nil && rec.MessageID != "" {
			if uerr := repo.UpdateMessageStatus(ctx, s.DB, m.ID, domain.StatusPending, rec.MessageID); uerr == nil {
				id := rec.MessageID
				m.SlackMessageID = &id
			}
		}
	}

	return m, nil
}

// GetScheduled returns a single scheduled message owned by the caller.
// Returns ErrMessageNotFound for an unknown ID, a cancelled row, or a row
// owned by someone else.
func (s *MessageService) GetScheduled(ctx context.Context, userID, id string) (*domain.ScheduledMessage, error) {
	m, err := repo.GetScheduledMessage(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListScheduled returns all of the caller's scheduled messages, soonest first.
func (s *MessageService) ListScheduled(ctx context.Context, userID string) ([]domain.ScheduledMessage, error) {
	return repo.ListScheduledByUser(ctx, s.DB, userID)
}

// ListScheduledPage returns one page of the caller's scheduled messages plus
// the total count for pagination metadata.
func (s *MessageService) ListScheduledPage(ctx context.Context, userID string, offset, limit int) ([]domain.ScheduledMessage, int64, error) {
	total, err := repo.CountScheduledByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListScheduledPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats returns per-status counts for the caller's messages.
func (s *MessageService) Stats(ctx context.Context, userID string) (*repo.ScheduleStats, error) {
	return repo.ScheduledStats(ctx, s.DB, userID)
}

// Cancel marks a scheduled message cancelled. Cancelling an unknown (or
// already cancelled) ID is a no-op, so racing a concurrent dispatch or a
// double-click is safe.
//
// When the remote-native path is enabled and the row carries a remote
// scheduled-message ID, the upstream counterpart is deleted best-effort so
// Slack does not deliver a message the user cancelled.
func (s *MessageService) Cancel(ctx context.Context, userID, id string) error {
	if s.RemoteSchedule {
		if m, err := repo.GetScheduledMessage(ctx, s.DB, id, userID); err == nil &&
			m.Status == domain.StatusPending && m.SlackMessageID != nil {
			if u, err := s.credential(ctx, userID); err == nil {
				_ = s.Gateway.DeleteScheduledRemote(ctx, u.AccessToken, m.Channel, *m.SlackMessageID)
			}
		}
	}
	return repo.CancelScheduledMessage(ctx, s.DB, id, userID)
}
