package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// StatisticsService loads dashboard figures
type StatisticsService struct {
	clients ClientProvider
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(clients ClientProvider) *StatisticsService {
	return &StatisticsService{clients: clients}
}

func (s *StatisticsService) General(ctx context.Context) (*models.GeneralStatistics, error) {
	var stats models.GeneralStatistics
	if err := s.clients.Client().Get(ctx, "/api/statistics/general", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to load general statistics: %w", err)
	}
	return &stats, nil
}

func (s *StatisticsService) Personal(ctx context.Context) (*models.PersonalStatistics, error) {
	var stats models.PersonalStatistics
	if err := s.clients.Client().Get(ctx, "/api/statistics/personal", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to load personal statistics: %w", err)
	}
	return &stats, nil
}
