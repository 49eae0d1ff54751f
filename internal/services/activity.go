package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"social-explore-client/internal/models"
)

// NearbyQuery selects activities around a center
type NearbyQuery struct {
	Center   models.Coordinate
	RadiusKm float64
	Category models.Category // empty means all categories
}

// Values encodes the query the way the backend expects it
func (q NearbyQuery) Values() url.Values {
	v := url.Values{}
	v.Set("latitude", formatFloat(q.Center.Latitude))
	v.Set("longitude", formatFloat(q.Center.Longitude))
	v.Set("radius_km", formatFloat(q.RadiusKm))
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	return v
}

// ActivityService handles activity listing and lifecycle
type ActivityService struct {
	clients ClientProvider
}

// NewActivityService creates a new activity service
func NewActivityService(clients ClientProvider) *ActivityService {
	return &ActivityService{clients: clients}
}

// Nearby lists activities within the query radius
func (s *ActivityService) Nearby(ctx context.Context, q NearbyQuery) ([]models.Activity, error) {
	var activities []models.Activity
	if err := s.clients.Client().Get(ctx, "/api/activities/nearby", q.Values(), &activities); err != nil {
		return nil, fmt.Errorf("failed to load nearby activities: %w", err)
	}
	return activities, nil
}

// MyCreated lists activities created by the current user
func (s *ActivityService) MyCreated(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := s.clients.Client().Get(ctx, "/api/activities/my/created", nil, &activities); err != nil {
		return nil, fmt.Errorf("failed to load created activities: %w", err)
	}
	return activities, nil
}

// Get loads a single activity
func (s *ActivityService) Get(ctx context.Context, id int64) (*models.Activity, error) {
	var activity models.Activity
	if err := s.clients.Client().Get(ctx, "/api/activities/"+itoa(id), nil, &activity); err != nil {
		return nil, fmt.Errorf("failed to load activity %d: %w", id, err)
	}
	return &activity, nil
}

// Create publishes a new activity
func (s *ActivityService) Create(ctx context.Context, create *models.ActivityCreate) (*models.Activity, error) {
	var activity models.Activity
	if err := s.clients.Client().Post(ctx, "/api/activities/", create, &activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return &activity, nil
}

// Delete removes an activity owned by the current user
func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	if err := s.clients.Client().Delete(ctx, "/api/activities/"+itoa(id), &messageResponse{}); err != nil {
		return fmt.Errorf("failed to delete activity %d: %w", id, err)
	}
	return nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
