// Message HTTP handlers.
//
// This file exposes the REST endpoints for Slack messaging:
//   - GET    /messages/channels         (list reachable channels)
//   - POST   /messages/send             (immediate send)
//   - POST   /messages/schedule         (create a scheduled message)
//   - GET    /messages/scheduled        (list own scheduled messages)
//   - GET    /messages/scheduled/stats  (per-status counts)
//   - GET    /messages/scheduled/:id    (fetch one)
//   - DELETE /messages/scheduled/:id    (cancel)
//
// Handlers are transport-thin: they validate input shape, delegate to the
// message service, and translate service errors into HTTP results. Upstream
// Slack failures map to 502 with the upstream error payload in the message.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/http/middleware"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/services"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/utils"
)

// SendMessageRequest is the JSON payload for an immediate send.
type SendMessageRequest struct {
	Channel string `json:"channel" binding:"required" example:"C0123456789"`
	Text    string `json:"text"    binding:"required" example:"deploy finished"`
}

// ScheduleMessageRequest is the JSON payload for creating a scheduled message.
// ScheduledAt must be RFC 3339 and strictly in the future.
type ScheduleMessageRequest struct {
	Channel     string    `json:"channel"      binding:"required" example:"C0123456789"`
	Text        string    `json:"text"         binding:"required" example:"standup in 5"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required" example:"2026-09-01T09:00:00Z"`
}

// ListChannels godoc
// @ID          listChannels
// @Summary     List Slack channels
// @Description Returns the non-archived channels reachable with the caller's Slack credential.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]slackapi.Channel
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure     502 {object} handlers.ErrorResponse "Slack API failure"
// @Router      /messages/channels [get]
func (h *Handlers) ListChannels(c *gin.Context) {
	channels, err := h.msgSvc.ListChannels(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"channels": channels})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message immediately
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.SendMessageRequest true "Message payload"
// @Success     200 {object} map[string]any
// @Failure     400 {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure     502 {object} handlers.ErrorResponse "Slack API failure"
// @Router      /messages/send [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel and text are required")
		return
	}

	receipt, err := h.msgSvc.SendNow(c.Request.Context(), middleware.UserID(c), req.Channel, req.Text)
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"channel":    receipt.Channel,
		"message_id": receipt.MessageID,
	})
}

// ScheduleMessage godoc
// @ID          scheduleMessage
// @Summary     Schedule a message for future delivery
// @Description Persists a pending record delivered by the dispatch loop at the scheduled time.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.ScheduleMessageRequest true "Schedule payload"
// @Success     201 {object} domain.ScheduledMessage
// @Failure     400 {object} handlers.ErrorResponse "Invalid payload or past schedule time"
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Router      /messages/schedule [post]
func (h *Handlers) ScheduleMessage(c *gin.Context) {
	var req ScheduleMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel, text and scheduled_at (RFC 3339) are required")
		return
	}

	m, err := h.msgSvc.Schedule(c.Request.Context(), middleware.UserID(c), req.Channel, req.Text, req.ScheduledAt)
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ListScheduled godoc
// @ID          listScheduled
// @Summary     List own scheduled messages
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int false "Page (1-based)"        default(1)
// @Param       per_page query int false "Page size (max 200)"   default(50)
// @Success     200 {object} map[string]any
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Router      /messages/scheduled [get]
func (h *Handlers) ListScheduled(c *gin.Context) {
	page, perPage := utils.PageParams(
		c.Query("page"),
		c.Query("per_page"),
	)

	items, total, err := h.msgSvc.ListScheduledPage(c.Request.Context(), middleware.UserID(c), (page-1)*perPage, perPage)
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"scheduled_messages": items,
		"total":              total,
		"page":               page,
		"per_page":           perPage,
	})
}

// ScheduledStats godoc
// @ID          scheduledStats
// @Summary     Per-status counts of own scheduled messages
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} repo.ScheduleStats
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Router      /messages/scheduled/stats [get]
func (h *Handlers) ScheduledStats(c *gin.Context) {
	stats, err := h.msgSvc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// GetScheduled godoc
// @ID          getScheduled
// @Summary     Fetch one scheduled message
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Scheduled message ID (UUID)" format(uuid)
// @Success     200 {object} domain.ScheduledMessage
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure     404 {object} handlers.ErrorResponse "Unknown, cancelled or foreign ID"
// @Router      /messages/scheduled/{id} [get]
func (h *Handlers) GetScheduled(c *gin.Context) {
	m, err := h.msgSvc.GetScheduled(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// CancelScheduled godoc
// @ID          cancelScheduled
// @Summary     Cancel a scheduled message
// @Description Cancelling is idempotent: an unknown or already-cancelled ID also yields 204.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Scheduled message ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Router      /messages/scheduled/{id} [delete]
func (h *Handlers) CancelScheduled(c *gin.Context) {
	if err := h.msgSvc.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.failMessage(c, err)
		return
	}
	noContent(c)
}

// failMessage translates message-service errors into HTTP results.
func (h *Handlers) failMessage(c *gin.Context, err error) {
	var apiErr *slackapi.APIError
	switch {
	case errors.Is(err, services.ErrEmptyChannel),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrScheduleInPast):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no Slack workspace connected for this user")
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "scheduled message not found")
	case errors.As(err, &apiErr):
		fail(c, http.StatusBadGateway, ErrCodeUpstream, apiErr.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
