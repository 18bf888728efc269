// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model,
// which doubles as the per-user Slack credential store.
//
// All credential reads and rotations go through this file; no other component
// touches the token columns directly.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
)

// GetUser fetches a user by primary key. Returns ErrNotFound when absent.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserBySlackID fetches a user by their Slack user ID.
// Returns ErrNotFound when absent.
func GetUserBySlackID(ctx context.Context, db *gorm.DB, slackUserID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("slack_user_id = ?", slackUserID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUserBySlackID creates a user row for slackUserID or, when one already
// exists, rotates its stored credentials. This is the single entry point used
// by the OAuth callback, so repeating the flow never duplicates a user.
func UpsertUserBySlackID(ctx context.Context, db *gorm.DB, slackUserID, teamID, accessToken string, refreshToken *string, tokenExpiry *time.Time) (*domain.User, error) {
	var out *domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		err := tx.Where("slack_user_id = ?", slackUserID).First(&u).Error
		switch {
		case err == nil:
			u.TeamID = teamID
			u.AccessToken = accessToken
			u.RefreshToken = refreshToken
			u.TokenExpiry = tokenExpiry
			u.UpdatedAt = time.Now().UTC()
			if err := tx.Save(&u).Error; err != nil {
				return err
			}
			out = &u
			return nil
		case err == gorm.ErrRecordNotFound:
			now := time.Now().UTC()
			u = domain.User{
				ID:           uuid.NewString(),
				SlackUserID:  slackUserID,
				TeamID:       teamID,
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				TokenExpiry:  tokenExpiry,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			out = &u
			return nil
		default:
			return err
		}
	})
	return out, err
}

// UpdateUserTokens rotates the stored Slack credentials for slackUserID.
// Returns ErrNotFound when no such user exists.
func UpdateUserTokens(ctx context.Context, db *gorm.DB, slackUserID, accessToken string, refreshToken *string, tokenExpiry *time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("slack_user_id = ?", slackUserID).
		Updates(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"token_expiry":  tokenExpiry,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
