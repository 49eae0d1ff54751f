package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// ParticipationService handles join requests and their moderation
type ParticipationService struct {
	clients ClientProvider
}

// NewParticipationService creates a new participation service
func NewParticipationService(clients ClientProvider) *ParticipationService {
	return &ParticipationService{clients: clients}
}

// Join requests to participate in an activity
func (s *ParticipationService) Join(ctx context.Context, activityID int64) (*models.Participation, error) {
	body := map[string]int64{"activity_id": activityID}
	var p models.Participation
	if err := s.clients.Client().Post(ctx, "/api/participations/", body, &p); err != nil {
		return nil, fmt.Errorf("failed to join activity %d: %w", activityID, err)
	}
	return &p, nil
}

// Mine lists the current user's participations
func (s *ParticipationService) Mine(ctx context.Context) ([]models.Participation, error) {
	var ps []models.Participation
	if err := s.clients.Client().Get(ctx, "/api/participations/my/activities", nil, &ps); err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}
	return ps, nil
}

// ForActivity lists the requests for an activity. Only its creator may call this.
func (s *ParticipationService) ForActivity(ctx context.Context, activityID int64) ([]models.Participation, error) {
	var ps []models.Participation
	if err := s.clients.Client().Get(ctx, "/api/participations/activity/"+itoa(activityID), nil, &ps); err != nil {
		return nil, fmt.Errorf("failed to load participations for activity %d: %w", activityID, err)
	}
	return ps, nil
}

// UpdateStatus accepts or rejects a request
func (s *ParticipationService) UpdateStatus(ctx context.Context, id int64, status models.ParticipationStatus) (*models.Participation, error) {
	body := map[string]models.ParticipationStatus{"status": status}
	var p models.Participation
	if err := s.clients.Client().Put(ctx, "/api/participations/"+itoa(id), body, &p); err != nil {
		return nil, fmt.Errorf("failed to update participation %d: %w", id, err)
	}
	return &p, nil
}

// Cancel withdraws a participation
func (s *ParticipationService) Cancel(ctx context.Context, id int64) error {
	if err := s.clients.Client().Delete(ctx, "/api/participations/"+itoa(id), &messageResponse{}); err != nil {
		return fmt.Errorf("failed to cancel participation %d: %w", id, err)
	}
	return nil
}
