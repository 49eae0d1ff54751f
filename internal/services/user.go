package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// UserService handles the current user's profile
type UserService struct {
	clients ClientProvider
}

// NewUserService creates a new user service
func NewUserService(clients ClientProvider) *UserService {
	return &UserService{clients: clients}
}

// Me loads the current user's profile
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.clients.Client().Get(ctx, "/api/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &user, nil
}

// Update saves the non-nil fields of update
func (s *UserService) Update(ctx context.Context, update *models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.clients.Client().Put(ctx, "/api/users/me", update, &user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}
