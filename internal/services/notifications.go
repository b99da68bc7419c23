package services

import (
	"context"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// NotificationService persists notifications and fans them out over the
// WebSocket hub. Delivery is best effort: a failed insert or broadcast is
// logged, never surfaced to the operation that produced the event.
type NotificationService struct {
	log  logger.Logger
	repo repository.NotificationRepository
	hub  Broadcaster
}

// NewNotificationService creates a new NotificationService. hub may be nil
// when no live fanout is wanted (tests, batch tools).
func NewNotificationService(log logger.Logger, repo repository.NotificationRepository, hub Broadcaster) *NotificationService {
	return &NotificationService{
		log:  log,
		repo: repo,
		hub:  hub,
	}
}

// Notify stores a notification for a user and broadcasts it
func (s *NotificationService) Notify(ctx context.Context, userID int, typ models.NotificationType, title, message, priority string) {
	n := models.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Priority:  priority,
		CreatedAt: time.Now(),
	}

	id, err := s.repo.InsertNotification(ctx, n)
	if err != nil {
		s.log.Error("failed to store notification", "type", typ, "user_id", userID, "error", err)
		return
	}
	n.ID = id

	if s.hub != nil {
		s.hub.Broadcast(models.WSMessage{
			Type:    string(typ),
			Payload: n,
		})
	}
}

// Announce broadcasts an event without a specific recipient, for staff-facing
// updates like new submissions. Nothing is persisted; the hub carries it to
// whoever is connected.
func (s *NotificationService) Announce(ctx context.Context, typ models.NotificationType, title, message, priority string) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(models.WSMessage{
		Type: string(typ),
		Payload: models.Notification{
			Type:      typ,
			Title:     title,
			Message:   message,
			Priority:  priority,
			CreatedAt: time.Now(),
		},
	})
}

// ListNotifications returns a user's notifications
func (s *NotificationService) ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks a notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id int) error {
	return s.repo.MarkNotificationRead(ctx, id)
}
