// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over the
// scheduled_messages table, used by the owner-facing stats endpoint.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
)

// ScheduleStats summarizes a user's scheduled messages by delivery state.
// Cancelled counts come from soft-deleted rows, so the query runs Unscoped.
type ScheduleStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Sent      int64 `json:"sent"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}

// ScheduledStats returns per-status counts for userID, including cancelled
// (soft-deleted) rows so the audit trail stays visible.
func ScheduledStats(ctx context.Context, db *gorm.DB, userID string) (*ScheduleStats, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := db.WithContext(ctx).
		Unscoped().
		Model(&domain.ScheduledMessage{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var s ScheduleStats
	for _, r := range rows {
		s.Total += r.N
		switch r.Status {
		case domain.StatusPending:
			s.Pending = r.N
		case domain.StatusSent:
			s.Sent = r.N
		case domain.StatusFailed:
			s.Failed = r.N
		case domain.StatusCancelled:
			s.Cancelled = r.N
		}
	}
	return &s, nil
}
