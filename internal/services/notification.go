package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// NotificationService reads and acknowledges notifications
type NotificationService struct {
	clients ClientProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(clients ClientProvider) *NotificationService {
	return &NotificationService{clients: clients}
}

// Count returns the number of unread notifications
func (s *NotificationService) Count(ctx context.Context) (*models.NotificationCount, error) {
	var count models.NotificationCount
	if err := s.clients.Client().Get(ctx, "/api/participations/notifications/count", nil, &count); err != nil {
		return nil, fmt.Errorf("failed to load notification count: %w", err)
	}
	return &count, nil
}

// List returns the unread notifications
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	var resp models.NotificationsResponse
	if err := s.clients.Client().Get(ctx, "/api/participations/notifications", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return resp.Notifications, nil
}

// MarkRead acknowledges one notification
func (s *NotificationService) MarkRead(ctx context.Context, n *models.Notification) error {
	path := fmt.Sprintf("/api/participations/notifications/%s/%d/read", n.Type, n.ID)
	if err := s.clients.Client().Post(ctx, path, nil, &messageResponse{}); err != nil {
		return fmt.Errorf("failed to mark notification %s/%d as read: %w", n.Type, n.ID, err)
	}
	return nil
}
