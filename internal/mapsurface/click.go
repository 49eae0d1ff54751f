package mapsurface

import (
	"context"
	"fmt"

	"social-explore-client/internal/geo"
	"social-explore-client/internal/models"

	"github.com/rs/zerolog/log"
)

// HandleClick routes a map click according to the mode. While a form is
// picking a location the click places the picked marker and is forwarded to
// the form; activity markers are not hit-tested then. Otherwise a click on
// an activity marker selects it.
func (s *Surface) HandleClick(ctx context.Context, point models.Coordinate) error {
	s.mu.Lock()
	if s.pickerOwner != "" {
		p := point
		s.layers[LayerSelection].Graphics = []Graphic{{Point: &p, Symbol: selectionSymbol}}
		s.mu.Unlock()

		if s.opts.Bridge == nil {
			return nil
		}
		if err := s.opts.Bridge.Deliver(ctx, point); err != nil {
			return fmt.Errorf("failed to deliver picked location: %w", err)
		}
		return nil
	}

	hit, ok := s.hitTestLocked(point)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	log.Debug().Int64("activity_id", hit.ID).Msg("Activity marker clicked")
	s.SelectActivity(&hit)
	return nil
}

// hitTestLocked returns the activity whose marker is closest to point within
// the marker radius at the current zoom
func (s *Surface) hitTestLocked(point models.Coordinate) (models.Activity, bool) {
	var (
		best     models.Activity
		bestDist = -1.0
	)
	for _, g := range s.layers[LayerActivities].Graphics {
		if g.Point == nil || !geo.WithinPixels(point, *g.Point, activityHitTolerancePx, s.zoom) {
			continue
		}
		d := geo.DistanceKm(point, *g.Point)
		if bestDist >= 0 && d >= bestDist {
			continue
		}
		for i := range s.activities {
			if s.activities[i].ID == g.ActivityID {
				best, bestDist = s.activities[i], d
				break
			}
		}
	}
	return best, bestDist >= 0
}
