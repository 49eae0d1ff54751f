package mapsurface

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SetActivityHeatmap attaches or detaches the activity density layer. On
// attach it is filled from the current activity dataset.
func (s *Surface) SetActivityHeatmap(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.layers[LayerActivityHeatmap]
	if !on {
		s.attached[LayerActivityHeatmap] = false
		layer.HeatPoints = nil
		return
	}
	s.attached[LayerActivityHeatmap] = true
	layer.HeatPoints = activityHeatPoints(s.activities)
}

// SetUsersHeatmap attaches or detaches the user density layer. On attach
// it is filled from a nearby-users search around the user's location.
// Search failures leave the layer empty.
func (s *Surface) SetUsersHeatmap(ctx context.Context, on bool) {
	s.mu.Lock()
	s.usersSeq++
	seq := s.usersSeq
	layer := s.layers[LayerUsersHeatmap]
	layer.HeatPoints = nil
	s.attached[LayerUsersHeatmap] = on
	loc := s.userLocation
	s.mu.Unlock()

	if !on || loc == nil || s.opts.Users == nil {
		return
	}

	users, err := s.opts.Users.NearbyUsers(ctx, *loc, usersHeatmapRadiusKm)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load users for heatmap")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.usersSeq {
		return
	}
	layer.HeatPoints = userHeatPoints(users)
	log.Debug().Int("points", len(layer.HeatPoints)).Msg("Users heatmap updated")
}
