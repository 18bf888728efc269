// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ScheduledMessage model: the durable record of future sends that the
// dispatcher and the request-facing service both operate on.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - Missing rows on UpdateMessageStatus and CancelScheduledMessage are NOT
//     errors: a user cancel may race an in-flight dispatch, and both sides
//     must be able to complete. Zero rows affected simply means the other
//     side won.
//   - GetScheduledMessage returns ErrNotFound when the row is absent.
//   - On DB errors (constraint violations, connectivity issues, etc.) the
//     raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateScheduledMessage inserts a new pending message row owned by userID.
// The ID is a randomly generated UUID and timestamps are set in UTC.
func CreateScheduledMessage(ctx context.Context, db *gorm.DB, userID, channel, text string, scheduledAt time.Time) (*domain.ScheduledMessage, error) {
	now := time.Now().UTC()
	m := &domain.ScheduledMessage{
		ID:          uuid.NewString(),
		UserID:      userID,
		Channel:     channel,
		Message:     text,
		ScheduledAt: scheduledAt.UTC(),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetScheduledMessage fetches a single message by ID and owner.
// Returns ErrNotFound when the row is absent or owned by someone else.
func GetScheduledMessage(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ScheduledMessage, error) {
	var m domain.ScheduledMessage
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListScheduledByUser returns all messages owned by userID ordered by
// scheduled time ascending (soonest first). Cancelled rows are soft-deleted
// and therefore excluded.
func ListScheduledByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.ScheduledMessage, error) {
	var out []domain.ScheduledMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountScheduledByUser returns the total number of messages owned by userID.
func CountScheduledByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ScheduledMessage{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListScheduledPage returns a paginated slice of messages for userID ordered
// by scheduled time ascending. Use CountScheduledByUser for the total.
func ListScheduledPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ScheduledMessage, error) {
	var out []domain.ScheduledMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// FindDue returns every pending message whose scheduled time is at or before
// now, ordered by scheduled time ascending so overdue messages are attempted
// in schedule order. Sent, failed, and cancelled rows never match.
func FindDue(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.ScheduledMessage, error) {
	var out []domain.ScheduledMessage
	err := db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", domain.StatusPending, now.UTC()).
		Order("scheduled_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// UpdateMessageStatus sets the status of a message and refreshes updated_at.
// A non-empty slackMessageID is stored alongside (successful sends); an empty
// one leaves the column untouched so a failed row keeps no remote ID.
//
// A missing ID is not an error: the row may have been cancelled while a
// dispatch attempt was in flight, and the attempt must still complete cleanly.
func UpdateMessageStatus(ctx context.Context, db *gorm.DB, id, status, slackMessageID string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if slackMessageID != "" {
		updates["slack_message_id"] = slackMessageID
	}
	return db.WithContext(ctx).
		Model(&domain.ScheduledMessage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CancelScheduledMessage marks a message cancelled and soft-deletes it in a
// single transaction, so it disappears from ListScheduledByUser and FindDue
// while the row survives for audit. Only the owner's pending rows match:
// sent, failed, and cancelled are terminal, and a row that reached one of
// them keeps its status so the audit trail stays truthful.
//
// Cancelling an ID that does not exist, is not pending anymore, or was
// already cancelled is a no-op.
func CancelScheduledMessage(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.ScheduledMessage{}).
			Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.StatusPending).
			Updates(map[string]any{
				"status":     domain.StatusCancelled,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&domain.ScheduledMessage{}).Error
	})
}
