package mapsurface

import (
	"context"
	"errors"
	"sync"
	"testing"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/config"
	"social-explore-client/internal/geo"
	"social-explore-client/internal/geolocation"
	"social-explore-client/internal/models"
	"social-explore-client/internal/routing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type solverMock struct{ mock.Mock }

func (m *solverMock) Solve(ctx context.Context, from, to models.Coordinate) (*routing.Route, error) {
	args := m.Called(ctx, from, to)
	route, _ := args.Get(0).(*routing.Route)
	return route, args.Error(1)
}

type usersMock struct{ mock.Mock }

func (m *usersMock) NearbyUsers(ctx context.Context, center models.Coordinate, radiusKm float64, interests ...string) ([]models.NearbyUser, error) {
	args := m.Called(ctx, center, radiusKm)
	users, _ := args.Get(0).([]models.NearbyUser)
	return users, args.Error(1)
}

type profile struct{ user *models.User }

func (p profile) User() *models.User { return p.user }

type deliveries struct {
	mu  sync.Mutex
	got []models.Coordinate
	err error
}

func (d *deliveries) Deliver(_ context.Context, c models.Coordinate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, c)
	return d.err
}

type failingViewport struct{ calls int }

func (v *failingViewport) GoTo(context.Context, models.Coordinate, int) error {
	v.calls++
	return errors.New("animation interrupted")
}

var (
	home = models.Coordinate{Latitude: 44.43, Longitude: 26.10}
	gps  = models.Coordinate{Latitude: 46.77, Longitude: 23.62}
)

func floatPtr(f float64) *float64 { return &f }

func testActivities() []models.Activity {
	return []models.Activity{
		{ID: 1, Title: "Football", Category: models.CategorySport, Latitude: 44.4300, Longitude: 26.1000},
		{ID: 2, Title: "Board games", Category: models.CategoryGames, Latitude: 44.4500, Longitude: 26.1300},
	}
}

func TestInit_NoLocationStaysOnDefault(t *testing.T) {
	var located []models.Coordinate
	s := New(Options{
		Config:     config.Default().Map,
		Locator:    geolocation.DeniedLocator{},
		OnLocation: func(c models.Coordinate) { located = append(located, c) },
	})

	assert.False(t, s.Loaded())
	s.Init(context.Background())

	assert.True(t, s.Loaded())
	assert.Equal(t, models.Coordinate{Latitude: 44.4268, Longitude: 26.1025}, s.Center())
	assert.Equal(t, 13, s.Zoom())
	assert.Empty(t, located)
	_, ok := s.UserLocation()
	assert.False(t, ok)

	self, attached := s.Layer(LayerSelf)
	assert.True(t, attached)
	assert.Empty(t, self.Graphics)
	assert.Equal(t, Idle, s.Mode())
}

func TestInit_ProfileLocationBeatsDevice(t *testing.T) {
	var located []models.Coordinate
	s := New(Options{
		Config:     config.Default().Map,
		Locator:    geolocation.StaticLocator{Position: gps},
		Profile:    profile{user: &models.User{Latitude: floatPtr(home.Latitude), Longitude: floatPtr(home.Longitude)}},
		OnLocation: func(c models.Coordinate) { located = append(located, c) },
	})
	s.Init(context.Background())

	assert.Equal(t, []models.Coordinate{home}, located)
	assert.Equal(t, home, s.Center())
	assert.Equal(t, 14, s.Zoom())

	self, _ := s.Layer(LayerSelf)
	require.Len(t, self.Graphics, 1)
	assert.Equal(t, home, *self.Graphics[0].Point)
	assert.Equal(t, Color{0, 120, 255, 1}, self.Graphics[0].Symbol.Color)
}

func TestInit_DeviceLocationAndSwallowedGoToError(t *testing.T) {
	vp := &failingViewport{}
	s := New(Options{
		Config:   config.Default().Map,
		Locator:  geolocation.StaticLocator{Position: gps},
		Profile:  profile{},
		Viewport: vp,
	})
	s.Init(context.Background())

	assert.True(t, s.Loaded())
	assert.Equal(t, 1, vp.calls)
	loc, ok := s.UserLocation()
	require.True(t, ok)
	assert.Equal(t, gps, loc)
	// camera stays where it was when the animation fails
	assert.Equal(t, 13, s.Zoom())
}

func TestReloadSelfLocation_ReplacesMarker(t *testing.T) {
	p := &models.User{}
	s := New(Options{Config: config.Default().Map, Locator: geolocation.StaticLocator{Position: gps}, Profile: profileFunc(func() *models.User { return p })})
	s.Init(context.Background())

	p = &models.User{Latitude: floatPtr(home.Latitude), Longitude: floatPtr(home.Longitude)}
	_, ok := s.ReloadSelfLocation(context.Background())
	require.True(t, ok)

	self, _ := s.Layer(LayerSelf)
	require.Len(t, self.Graphics, 1)
	assert.Equal(t, home, *self.Graphics[0].Point)
}

type profileFunc func() *models.User

func (f profileFunc) User() *models.User { return f() }

func TestHandleClick_PickingDeliversAndIgnoresMarkers(t *testing.T) {
	bridge := &deliveries{}
	var selected []*models.Activity
	s := New(Options{
		Config:   config.Default().Map,
		Bridge:   bridge,
		OnSelect: func(a *models.Activity) { selected = append(selected, a) },
	})
	s.SetMarkers(testActivities())
	s.OpenPicker("activity-form")
	assert.Equal(t, PickingLocation, s.Mode())

	onMarker := models.Coordinate{Latitude: 44.4300, Longitude: 26.1000}
	require.NoError(t, s.HandleClick(context.Background(), onMarker))

	second := models.Coordinate{Latitude: 44.44, Longitude: 26.11}
	require.NoError(t, s.HandleClick(context.Background(), second))

	assert.Empty(t, selected)
	assert.Equal(t, []models.Coordinate{onMarker, second}, bridge.got)

	sel, _ := s.Layer(LayerSelection)
	require.Len(t, sel.Graphics, 1)
	assert.Equal(t, second, *sel.Graphics[0].Point)
	assert.Equal(t, 20.0, sel.Graphics[0].Symbol.Size)

	s.ClosePicker("profile")
	assert.Equal(t, PickingLocation, s.Mode())
	s.ClosePicker("activity-form")
	assert.Equal(t, Idle, s.Mode())
	sel, _ = s.Layer(LayerSelection)
	assert.Empty(t, sel.Graphics)
}

func TestHandleClick_DeliveryFailure(t *testing.T) {
	bridge := &deliveries{err: errors.New("no receiver")}
	s := New(Options{Config: config.Default().Map, Bridge: bridge})
	s.OpenPicker("profile")

	err := s.HandleClick(context.Background(), home)
	assert.Error(t, err)
}

func TestHandleClick_SelectsActivityWithinTolerance(t *testing.T) {
	var selected []*models.Activity
	s := New(Options{
		Config:   config.Default().Map,
		OnSelect: func(a *models.Activity) { selected = append(selected, a) },
	})
	s.SetMarkers(testActivities())

	// ~11 m from the football marker at zoom 13
	require.NoError(t, s.HandleClick(context.Background(), models.Coordinate{Latitude: 44.4301, Longitude: 26.1000}))
	require.Len(t, selected, 1)
	assert.Equal(t, int64(1), selected[0].ID)
	assert.Equal(t, ActivitySelected, s.Mode())

	// empty area: nothing changes
	require.NoError(t, s.HandleClick(context.Background(), models.Coordinate{Latitude: 44.50, Longitude: 26.20}))
	assert.Len(t, selected, 1)
	assert.Equal(t, int64(1), s.Selected().ID)

	s.CloseDetails()
	assert.Equal(t, Idle, s.Mode())
	assert.Nil(t, selected[1])
}

func TestSetMarkers_CategorySymbols(t *testing.T) {
	s := New(Options{Config: config.Default().Map})
	s.SetMarkers(testActivities())

	layer, attached := s.Layer(LayerActivities)
	assert.True(t, attached)
	require.Len(t, layer.Graphics, 2)
	assert.Equal(t, Color{255, 0, 0, 1}, layer.Graphics[0].Symbol.Color)
	assert.Equal(t, Color{0, 255, 0, 1}, layer.Graphics[1].Symbol.Color)
	assert.Equal(t, 16.0, layer.Graphics[0].Symbol.Size)

	a, ok := s.Activity(2)
	require.True(t, ok)
	assert.Equal(t, "Board games", a.Title)

	s.ClearMarkers()
	layer, _ = s.Layer(LayerActivities)
	assert.Empty(t, layer.Graphics)
}

func TestActivityHeatmap_AttachRepopulates(t *testing.T) {
	s := New(Options{Config: config.Default().Map})
	s.SetMarkers(testActivities())

	assert.False(t, s.Attached(LayerActivityHeatmap))

	s.SetActivityHeatmap(true)
	layer, attached := s.Layer(LayerActivityHeatmap)
	assert.True(t, attached)
	assert.Len(t, layer.HeatPoints, 2)
	assert.Equal(t, 0.7, layer.Opacity)
	require.NotNil(t, layer.Renderer)
	assert.Equal(t, 75.0, layer.Renderer.MaxPixelIntensity)

	s.SetMarkers(testActivities()[:1])
	layer, _ = s.Layer(LayerActivityHeatmap)
	assert.Len(t, layer.HeatPoints, 1)

	s.SetActivityHeatmap(false)
	layer, attached = s.Layer(LayerActivityHeatmap)
	assert.False(t, attached)
	assert.Empty(t, layer.HeatPoints)

	s.SetMarkers(testActivities())
	s.SetActivityHeatmap(true)
	layer, _ = s.Layer(LayerActivityHeatmap)
	assert.Len(t, layer.HeatPoints, 2)
}

func TestUsersHeatmap_Queries50Km(t *testing.T) {
	users := &usersMock{}
	users.On("NearbyUsers", mock.Anything, gps, 50.0).Return([]models.NearbyUser{
		{ID: 1, Latitude: floatPtr(46.7), Longitude: floatPtr(23.6)},
		{ID: 2},
	}, nil).Once()

	s := New(Options{Config: config.Default().Map, Locator: geolocation.StaticLocator{Position: gps}, Users: users})
	s.Init(context.Background())

	s.SetUsersHeatmap(context.Background(), true)
	layer, attached := s.Layer(LayerUsersHeatmap)
	assert.True(t, attached)
	assert.Len(t, layer.HeatPoints, 1)

	s.SetUsersHeatmap(context.Background(), false)
	assert.False(t, s.Attached(LayerUsersHeatmap))
	users.AssertExpectations(t)
}

func TestUsersHeatmap_FailureLeavesLayerEmpty(t *testing.T) {
	users := &usersMock{}
	users.On("NearbyUsers", mock.Anything, gps, 50.0).Return(nil, errors.New("boom")).Once()

	s := New(Options{Config: config.Default().Map, Locator: geolocation.StaticLocator{Position: gps}, Users: users})
	s.Init(context.Background())
	s.SetUsersHeatmap(context.Background(), true)

	layer, attached := s.Layer(LayerUsersHeatmap)
	assert.True(t, attached)
	assert.Empty(t, layer.HeatPoints)
}

func TestShowRoute_SolvedRoute(t *testing.T) {
	solver := &solverMock{}
	activity := testActivities()[1]
	minutes := 6
	solver.On("Solve", mock.Anything, gps, activity.Location()).Return(&routing.Route{
		Paths:         [][][2]float64{{{23.62, 46.77}, {26.13, 44.45}}},
		DistanceKm:    410.2,
		TravelMinutes: &minutes,
	}, nil).Once()

	var notices []string
	s := New(Options{
		Config:   config.Default().Map,
		Locator:  geolocation.StaticLocator{Position: gps},
		Solver:   solver,
		OnNotice: func(msg string) { notices = append(notices, msg) },
	})
	s.Init(context.Background())

	info, err := s.ShowRoute(context.Background(), &activity)
	require.NoError(t, err)
	assert.False(t, info.Route.Straight)
	assert.Equal(t, 410.2, info.Route.DistanceKm)
	assert.Empty(t, notices)

	layer, _ := s.Layer(LayerRoute)
	require.Len(t, layer.Graphics, 1)
	assert.False(t, layer.Graphics[0].Symbol.Dashed)
	assert.Equal(t, Color{0, 100, 255, 0.8}, layer.Graphics[0].Symbol.Color)
	solver.AssertExpectations(t)
}

func TestShowRoute_FailureFallsBackToStraightLine(t *testing.T) {
	solver := &solverMock{}
	activity := testActivities()[0]
	solver.On("Solve", mock.Anything, gps, activity.Location()).
		Return(nil, &apperr.ExternalServiceError{Service: "routing", Err: errors.New("Invalid token.")}).Twice()

	var notices []string
	s := New(Options{
		Config:   config.Default().Map,
		Locator:  geolocation.StaticLocator{Position: gps},
		Solver:   solver,
		OnNotice: func(msg string) { notices = append(notices, msg) },
	})
	s.Init(context.Background())

	info, err := s.ShowRoute(context.Background(), &activity)
	require.NoError(t, err)
	assert.True(t, info.Route.Straight)
	assert.InDelta(t, geo.DistanceKm(gps, activity.Location()), info.Route.DistanceKm, 1e-9)
	assert.Nil(t, info.Route.TravelMinutes)

	layer, _ := s.Layer(LayerRoute)
	require.Len(t, layer.Graphics, 1)
	assert.True(t, layer.Graphics[0].Symbol.Dashed)
	assert.Equal(t, Color{255, 100, 0, 0.8}, layer.Graphics[0].Symbol.Color)
	assert.Equal(t, []string{FallbackNotice}, notices)

	_, err = s.ShowRoute(context.Background(), &activity)
	require.NoError(t, err)
	assert.Len(t, notices, 2)
	layer, _ = s.Layer(LayerRoute)
	assert.Len(t, layer.Graphics, 1)
}

func TestShowRoute_MissingSolverUsesFallback(t *testing.T) {
	s := New(Options{Config: config.Default().Map, Locator: geolocation.StaticLocator{Position: gps}})
	s.Init(context.Background())

	activity := testActivities()[0]
	info, err := s.ShowRoute(context.Background(), &activity)
	require.NoError(t, err)
	assert.True(t, info.Route.Straight)
}

func TestShowRoute_RequiresUserLocation(t *testing.T) {
	s := New(Options{Config: config.Default().Map})
	s.Init(context.Background())

	activity := testActivities()[0]
	_, err := s.ShowRoute(context.Background(), &activity)
	assert.ErrorIs(t, err, apperr.ErrLocationUnavailable)
}

func TestClearRoute(t *testing.T) {
	s := New(Options{Config: config.Default().Map})
	s.SetRoute(&RouteInfo{Activity: testActivities()[0], Route: routing.StraightLine(home, gps)})
	require.NotNil(t, s.Route())

	s.ClearRoute()
	assert.Nil(t, s.Route())
	layer, attached := s.Layer(LayerRoute)
	assert.True(t, attached)
	assert.Empty(t, layer.Graphics)
}
