package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"social-explore-client/internal/models"
)

// SearchService handles people search
type SearchService struct {
	clients ClientProvider
}

// NewSearchService creates a new search service
func NewSearchService(clients ClientProvider) *SearchService {
	return &SearchService{clients: clients}
}

// NearbyUsers lists users with a home location within radiusKm of center,
// optionally filtered by interests
func (s *SearchService) NearbyUsers(ctx context.Context, center models.Coordinate, radiusKm float64, interests ...string) ([]models.NearbyUser, error) {
	q := url.Values{}
	q.Set("latitude", formatFloat(center.Latitude))
	q.Set("longitude", formatFloat(center.Longitude))
	q.Set("radius_km", formatFloat(radiusKm))
	if len(interests) > 0 {
		q.Set("interests", strings.Join(interests, ","))
	}

	var users []models.NearbyUser
	if err := s.clients.Client().Get(ctx, "/api/search/users/nearby", q, &users); err != nil {
		return nil, fmt.Errorf("failed to search nearby users: %w", err)
	}
	return users, nil
}
