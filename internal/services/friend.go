package services

import (
	"context"
	"fmt"

	"social-explore-client/internal/models"
)

// FriendService handles friendships and friend requests
type FriendService struct {
	clients ClientProvider
}

// NewFriendService creates a new friend service
func NewFriendService(clients ClientProvider) *FriendService {
	return &FriendService{clients: clients}
}

// Friends lists accepted friends
func (s *FriendService) Friends(ctx context.Context) ([]models.User, error) {
	var friends []models.User
	if err := s.clients.Client().Get(ctx, "/api/friends/", nil, &friends); err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}
	return friends, nil
}

// Received lists pending requests sent to the current user
func (s *FriendService) Received(ctx context.Context) ([]models.FriendRequest, error) {
	return s.requests(ctx, "received")
}

// Sent lists pending requests sent by the current user
func (s *FriendService) Sent(ctx context.Context) ([]models.FriendRequest, error) {
	return s.requests(ctx, "sent")
}

func (s *FriendService) requests(ctx context.Context, direction string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := s.clients.Client().Get(ctx, "/api/friends/requests/"+direction, nil, &reqs); err != nil {
		return nil, fmt.Errorf("failed to load %s friend requests: %w", direction, err)
	}
	return reqs, nil
}

// SendRequest asks toUserID to become a friend
func (s *FriendService) SendRequest(ctx context.Context, toUserID int64) (*models.FriendRequest, error) {
	body := map[string]int64{"to_user_id": toUserID}
	var req models.FriendRequest
	if err := s.clients.Client().Post(ctx, "/api/friends/requests", body, &req); err != nil {
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}
	return &req, nil
}

// Respond accepts or rejects a received request
func (s *FriendService) Respond(ctx context.Context, requestID int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	body := map[string]models.FriendRequestStatus{"status": status}
	var req models.FriendRequest
	if err := s.clients.Client().Put(ctx, "/api/friends/requests/"+itoa(requestID), body, &req); err != nil {
		return nil, fmt.Errorf("failed to %s friend request %d: %w", verb(status), requestID, err)
	}
	return &req, nil
}

// Remove ends a friendship
func (s *FriendService) Remove(ctx context.Context, friendID int64) error {
	if err := s.clients.Client().Delete(ctx, "/api/friends/"+itoa(friendID), &messageResponse{}); err != nil {
		return fmt.Errorf("failed to remove friend %d: %w", friendID, err)
	}
	return nil
}

func verb(status models.FriendRequestStatus) string {
	if status == models.FriendRequestAccepted {
		return "accept"
	}
	return "reject"
}
