package mapsurface

import (
	"context"
	"sync"

	"social-explore-client/internal/config"
	"social-explore-client/internal/geolocation"
	"social-explore-client/internal/models"
	"social-explore-client/internal/routing"

	"github.com/rs/zerolog/log"
)

// Mode is how the surface interprets a click
type Mode int

const (
	Idle Mode = iota
	PickingLocation
	ActivitySelected
)

func (m Mode) String() string {
	switch m {
	case PickingLocation:
		return "picking_location"
	case ActivitySelected:
		return "activity_selected"
	default:
		return "idle"
	}
}

// Viewport is the camera of a rendered map
type Viewport interface {
	GoTo(ctx context.Context, center models.Coordinate, zoom int) error
}

// Deliverer forwards a picked coordinate to the form that asked for it
type Deliverer interface {
	Deliver(ctx context.Context, coord models.Coordinate) error
}

// UserSearcher finds users around a point for the users heatmap
type UserSearcher interface {
	NearbyUsers(ctx context.Context, center models.Coordinate, radiusKm float64, interests ...string) ([]models.NearbyUser, error)
}

// ProfileSource returns the signed-in user's profile, or nil
type ProfileSource interface {
	User() *models.User
}

// Options wires a Surface to its collaborators. Nil callbacks are skipped.
type Options struct {
	Config   config.MapConfig
	Locator  geolocation.Locator
	Solver   routing.Solver
	Bridge   Deliverer
	Users    UserSearcher
	Profile  ProfileSource
	Viewport Viewport

	// OnLocation fires when the user's location is resolved
	OnLocation func(models.Coordinate)
	// OnSelect fires when an activity is selected or deselected (nil)
	OnSelect func(*models.Activity)
	// OnNotice shows an informational message to the user
	OnNotice func(string)
}

// Surface holds the map state: viewport, layers and click mode
type Surface struct {
	opts Options

	mu           sync.Mutex
	loaded       bool
	center       models.Coordinate
	zoom         int
	userLocation *models.Coordinate
	pickerOwner  string
	selected     *models.Activity
	activities   []models.Activity
	route        *RouteInfo
	routeSeq     uint64
	layers       map[LayerID]*Layer
	attached     map[LayerID]bool
	usersSeq     uint64
}

// New creates a surface centered on the configured default
func New(opts Options) *Surface {
	if opts.Locator == nil {
		opts.Locator = geolocation.DeniedLocator{}
	}
	s := &Surface{
		opts: opts,
		center: models.Coordinate{
			Latitude:  opts.Config.DefaultCenter.Latitude,
			Longitude: opts.Config.DefaultCenter.Longitude,
		},
		zoom:     opts.Config.DefaultZoom,
		layers:   make(map[LayerID]*Layer),
		attached: make(map[LayerID]bool),
	}
	for _, id := range []LayerID{LayerActivities, LayerSelf, LayerSelection, LayerRoute, LayerActivityHeatmap, LayerUsersHeatmap} {
		s.layers[id] = newLayer(id)
	}
	for _, id := range baseLayers {
		s.attached[id] = true
	}
	return s
}

// Init resolves the user's location and marks the surface loaded. The
// surface is loaded afterwards whether or not a location was found.
func (s *Surface) Init(ctx context.Context) {
	if _, ok := s.ResolveLocation(ctx); !ok {
		log.Info().Msg("No user location, map stays on the default center")
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
}

// Loaded reports whether Init has completed
func (s *Surface) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// ResolveLocation finds the user's location: the saved profile location
// first, then the device. On success the self marker is moved there and the
// viewport animates to it.
func (s *Surface) ResolveLocation(ctx context.Context) (models.Coordinate, bool) {
	var loc models.Coordinate
	found := false

	if s.opts.Profile != nil {
		if home, ok := s.opts.Profile.User().HomeLocation(); ok {
			loc, found = home, true
			log.Debug().Msg("Using profile location")
		}
	}
	if !found {
		pos, err := s.opts.Locator.CurrentPosition(ctx)
		if err != nil {
			log.Info().Err(err).Msg("Device location unavailable")
		} else {
			loc, found = pos, true
		}
	}
	if !found {
		return models.Coordinate{}, false
	}

	s.placeSelf(loc)
	s.goTo(ctx, loc, s.opts.Config.LocationZoom)
	if s.opts.OnLocation != nil {
		s.opts.OnLocation(loc)
	}
	return loc, true
}

// ReloadSelfLocation re-resolves the location after the profile changed
func (s *Surface) ReloadSelfLocation(ctx context.Context) (models.Coordinate, bool) {
	return s.ResolveLocation(ctx)
}

func (s *Surface) placeSelf(loc models.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userLocation = &loc
	p := loc
	s.layers[LayerSelf].Graphics = []Graphic{{Point: &p, Symbol: selfSymbol, Title: "You are here"}}
}

// goTo moves the camera. Animation failures are not errors for the caller.
func (s *Surface) goTo(ctx context.Context, center models.Coordinate, zoom int) {
	if s.opts.Viewport != nil {
		if err := s.opts.Viewport.GoTo(ctx, center, zoom); err != nil {
			log.Debug().Err(err).Msg("Viewport animation interrupted")
			return
		}
	}
	s.mu.Lock()
	s.center = center
	s.zoom = zoom
	s.mu.Unlock()
}

// Mode returns the current click mode
func (s *Surface) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeLocked()
}

func (s *Surface) modeLocked() Mode {
	switch {
	case s.pickerOwner != "":
		return PickingLocation
	case s.selected != nil:
		return ActivitySelected
	default:
		return Idle
	}
}

// Center returns the viewport center
func (s *Surface) Center() models.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// Zoom returns the viewport zoom level
func (s *Surface) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// UserLocation returns the resolved user location
func (s *Surface) UserLocation() (models.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userLocation == nil {
		return models.Coordinate{}, false
	}
	return *s.userLocation, true
}

// Layer returns a snapshot of a layer and whether it is attached
func (s *Surface) Layer(id LayerID) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[id]
	if !ok {
		return Layer{}, false
	}
	return l.clone(), s.attached[id]
}

// Attached reports whether a layer is on the map
func (s *Surface) Attached(id LayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached[id]
}

// OpenPicker switches to location picking on behalf of owner
func (s *Surface) OpenPicker(owner string) {
	s.mu.Lock()
	s.pickerOwner = owner
	s.mu.Unlock()
	log.Debug().Str("owner", owner).Msg("Location picking enabled")
}

// ClosePicker leaves location picking if owner still holds it and removes
// the picked marker
func (s *Surface) ClosePicker(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickerOwner != owner {
		return
	}
	s.pickerOwner = ""
	s.layers[LayerSelection].Graphics = nil
}

// PickerOwner returns who is picking a location, or ""
func (s *Surface) PickerOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickerOwner
}

// SetMarkers replaces the activity markers. The activity heatmap, when
// attached, follows the new dataset.
func (s *Surface) SetMarkers(activities []models.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append([]models.Activity(nil), activities...)
	s.layers[LayerActivities].Graphics = activityGraphics(s.activities)
	if s.attached[LayerActivityHeatmap] {
		s.layers[LayerActivityHeatmap].HeatPoints = activityHeatPoints(s.activities)
	}
}

// ClearMarkers removes all activity markers
func (s *Surface) ClearMarkers() {
	s.SetMarkers(nil)
}

// Activities returns the dataset behind the activity markers
func (s *Surface) Activities() []models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Activity(nil), s.activities...)
}

// Activity finds an activity of the current dataset by id
func (s *Surface) Activity(id int64) (*models.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.activities {
		if s.activities[i].ID == id {
			a := s.activities[i]
			return &a, true
		}
	}
	return nil, false
}

// SelectActivity opens the details of an activity
func (s *Surface) SelectActivity(a *models.Activity) {
	if a == nil {
		s.CloseDetails()
		return
	}
	cp := *a
	s.mu.Lock()
	s.selected = &cp
	s.mu.Unlock()

	log.Debug().Int64("activity_id", cp.ID).Msg("Activity selected")
	if s.opts.OnSelect != nil {
		sel := cp
		s.opts.OnSelect(&sel)
	}
}

// CloseDetails clears the selected activity
func (s *Surface) CloseDetails() {
	s.mu.Lock()
	had := s.selected != nil
	s.selected = nil
	s.mu.Unlock()

	if had && s.opts.OnSelect != nil {
		s.opts.OnSelect(nil)
	}
}

// Selected returns the selected activity, or nil
func (s *Surface) Selected() *models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}
