package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// MessageService handles activity chat
type MessageService struct {
	clients ClientProvider
}

// NewMessageService creates a new message service
func NewMessageService(clients ClientProvider) *MessageService {
	return &MessageService{clients: clients}
}

// List loads the chat of an activity. The backend answers 403 to users who
// are neither the creator nor an accepted participant.
func (s *MessageService) List(ctx context.Context, activityID int64) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.clients.Client().Get(ctx, "/api/messages/activity/"+itoa(activityID), nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to load messages for activity %d: %w", activityID, err)
	}
	return msgs, nil
}

// Send posts a chat message
func (s *MessageService) Send(ctx context.Context, activityID int64, text string) (*models.Message, error) {
	body := struct {
		ActivityID int64  `json:"activity_id"`
		Text       string `json:"text"`
	}{activityID, text}

	var msg models.Message
	if err := s.clients.Client().Post(ctx, "/api/messages/", body, &msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &msg, nil
}
