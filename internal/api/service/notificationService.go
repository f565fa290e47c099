package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"upkeep/internal/api/models"
	"upkeep/internal/api/repository"
	"upkeep/internal/feed"
)

// ErrNotFound is returned when the target notification does not exist or
// belongs to another user
var ErrNotFound = errors.New("notification not found")

// EventPublisher pushes a freshly created notification to the owner's live
// sessions. realtime.Publisher satisfies it in production.
type EventPublisher interface {
	PublishNotification(ctx context.Context, n feed.Notification) error
}

// CreateInput is the server-side creation request
type CreateInput struct {
	UserID      string
	Title       string
	Body        string
	Priority    feed.Priority
	ActionURL   string
	ActionLabel string
	Payload     map[string]any
}

type NotificationService interface {
	Create(ctx context.Context, input CreateInput) (feed.Notification, error)
	Recent(ctx context.Context, userID string, limit int) ([]feed.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
	RegisterSubscription(ctx context.Context, userID string, rec feed.PushSubscriptionRecord) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	subs      repository.PushSubscriptionRepository
	publisher EventPublisher
	log       *slog.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	subs repository.PushSubscriptionRepository,
	publisher EventPublisher,
	log *slog.Logger,
) NotificationService {
	if log == nil {
		log = slog.Default()
	}
	return &notificationService{repo: repo, subs: subs, publisher: publisher, log: log}
}

// Create persists the notification and then publishes it to any live session
// of the user. Publish failures are logged, not returned: offline delivery
// rides the table and the next initial load picks the row up.
func (s *notificationService) Create(ctx context.Context, input CreateInput) (feed.Notification, error) {
	priority := input.Priority
	if priority == "" {
		priority = feed.PriorityNormal
	}
	if !feed.ValidPriority(priority) {
		return feed.Notification{}, fmt.Errorf("invalid priority %q", input.Priority)
	}

	var payload []byte
	if len(input.Payload) > 0 {
		data, err := json.Marshal(input.Payload)
		if err != nil {
			return feed.Notification{}, fmt.Errorf("marshal payload: %w", err)
		}
		payload = data
	}

	notification := &models.Notification{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       input.Title,
		Body:        input.Body,
		Priority:    string(priority),
		ActionURL:   input.ActionURL,
		ActionLabel: input.ActionLabel,
		Payload:     payload,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return feed.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	wire := notification.ToWire()
	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, wire); err != nil {
			s.log.Warn("realtime publish failed, stored only",
				"notification_id", wire.ID, "user_id", wire.UserID, "error", err)
		}
	}
	return wire, nil
}

func (s *notificationService) Recent(ctx context.Context, userID string, limit int) ([]feed.Notification, error) {
	rows, err := s.repo.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]feed.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToWire())
	}
	return out, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := s.repo.MarkAsRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) RegisterSubscription(ctx context.Context, userID string, rec feed.PushSubscriptionRecord) error {
	sub := &models.PushSubscription{
		ID:         uuid.NewString(),
		UserID:     userID,
		Endpoint:   rec.Endpoint,
		P256dh:     rec.Keys.P256dh,
		Auth:       rec.Keys.Auth,
		DeviceType: rec.Device.Type,
		Browser:    rec.Device.Browser,
		DeviceName: rec.Device.Name,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("register push subscription: %w", err)
	}
	return nil
}
