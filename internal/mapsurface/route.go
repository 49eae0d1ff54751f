package mapsurface

import (
	"context"
	"errors"
	"fmt"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"
	"social-explore-client/internal/observability"
	"social-explore-client/internal/routing"

	"github.com/rs/zerolog/log"
)

// FallbackNotice is shown when the route could not be computed
const FallbackNotice = "Could not compute a route automatically. Showing a straight line as an approximation."

// RouteInfo is the route currently drawn on the map
type RouteInfo struct {
	Activity models.Activity
	Route    *routing.Route
}

// ShowRoute draws a route from the user's location to activity. When the
// routing service fails, or no key is configured, a dashed straight line
// with the geodesic distance is drawn instead and one notice is raised.
func (s *Surface) ShowRoute(ctx context.Context, activity *models.Activity) (*RouteInfo, error) {
	if activity == nil {
		return nil, errors.New("no activity to route to")
	}

	s.mu.Lock()
	if s.userLocation == nil {
		s.mu.Unlock()
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: apperr.ErrLocationUnavailable}
	}
	from := *s.userLocation
	s.routeSeq++
	seq := s.routeSeq
	s.route = nil
	s.layers[LayerRoute].Graphics = nil
	s.mu.Unlock()

	to := activity.Location()

	var (
		route *routing.Route
		err   error
	)
	if s.opts.Solver == nil {
		err = routing.ErrMissingAPIKey
	} else {
		route, err = s.opts.Solver.Solve(ctx, from, to)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("route request aborted: %w", ctxErr)
	}

	fallback := err != nil
	if fallback {
		log.Warn().Err(err).Int64("activity_id", activity.ID).Msg("Route solve failed, drawing straight line")
		route = routing.StraightLine(from, to)
		observability.IncRoute("straight_line")
	} else {
		observability.IncRoute("solved")
	}

	info := &RouteInfo{Activity: *activity, Route: route}
	if !s.installRoute(seq, info) {
		return nil, errors.New("route request superseded")
	}

	if fallback && s.opts.OnNotice != nil {
		s.opts.OnNotice(FallbackNotice)
	}
	return info, nil
}

// SetRoute draws info directly, replacing any current route
func (s *Surface) SetRoute(info *RouteInfo) {
	if info == nil {
		s.ClearRoute()
		return
	}
	s.mu.Lock()
	s.routeSeq++
	seq := s.routeSeq
	s.mu.Unlock()
	s.installRoute(seq, info)
}

// ClearRoute removes the route and cancels any route being computed
func (s *Surface) ClearRoute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeSeq++
	s.route = nil
	s.layers[LayerRoute].Graphics = nil
}

// Route returns the route on the map, or nil
func (s *Surface) Route() *RouteInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route == nil {
		return nil
	}
	cp := *s.route
	return &cp
}

func (s *Surface) installRoute(seq uint64, info *RouteInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.routeSeq {
		return false
	}
	symbol := routeSymbol
	if info.Route.Straight {
		symbol = fallbackSymbol
	}
	s.route = info
	s.layers[LayerRoute].Graphics = []Graphic{{
		Paths:      info.Route.Paths,
		Symbol:     symbol,
		ActivityID: info.Activity.ID,
		Title:      info.Activity.Title,
	}}
	return true
}
