package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"upkeep/internal/api/service"
	"upkeep/internal/feed"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 100

	handlerTimeout = 5 * time.Second
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Recent)
	rg.POST("", h.Create)
	rg.GET("/unread-count", h.UnreadCount)
	rg.PUT("/read-all", h.MarkAllRead)
	rg.PUT("/:id/read", h.MarkRead)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/subscriptions", h.RegisterSubscription)
}

// Recent returns the newest notifications for the authenticated user
func (h *NotificationHandler) Recent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	notifications, err := h.svc.Recent(ctx, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount returns the unread aggregate, independent of the recent limit
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	count, err := h.svc.UnreadCount(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks a specific notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	if err := h.svc.MarkRead(ctx, userID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks every notification of the user as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	if err := h.svc.MarkAllRead(ctx, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete removes a notification server-side
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, userID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

type createRequest struct {
	UserID      string         `json:"user_id" binding:"required,uuid"`
	Title       string         `json:"title" binding:"required"`
	Body        string         `json:"body"`
	Priority    string         `json:"priority" binding:"omitempty,oneof=normal high urgent"`
	ActionURL   string         `json:"action_url"`
	ActionLabel string         `json:"action_label"`
	Payload     map[string]any `json:"payload"`
}

// Create stores a notification and publishes it to the user's live sessions.
// Exposed for internal producers (work-order events, billing reminders).
func (h *NotificationHandler) Create(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	notification, err := h.svc.Create(ctx, service.CreateInput{
		UserID:      req.UserID,
		Title:       req.Title,
		Body:        req.Body,
		Priority:    feed.Priority(req.Priority),
		ActionURL:   req.ActionURL,
		ActionLabel: req.ActionLabel,
		Payload:     req.Payload,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, notification)
}

type subscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
	Device struct {
		Type    string `json:"device_type"`
		Browser string `json:"browser"`
		Name    string `json:"device_name"`
	} `json:"device_info"`
}

// RegisterSubscription stores the push subscription produced by a client's
// registration pipeline
func (h *NotificationHandler) RegisterSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	rec := feed.PushSubscriptionRecord{
		Endpoint: req.Endpoint,
		Keys:     feed.SubscriptionKeys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
		Device:   feed.DeviceInfo{Type: req.Device.Type, Browser: req.Device.Browser, Name: req.Device.Name},
	}
	if err := h.svc.RegisterSubscription(ctx, userID, rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

// currentUser pulls the authenticated user id set by the auth middleware
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return id, true
}
