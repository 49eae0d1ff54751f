// Package app wires the client components together and owns the state of
// the open views: which modal is showing, which friends tab is active and
// which activity is selected.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"social-explore-client/internal/apiclient"
	"social-explore-client/internal/bridge"
	"social-explore-client/internal/config"
	"social-explore-client/internal/feed"
	"social-explore-client/internal/geolocation"
	"social-explore-client/internal/mapsurface"
	"social-explore-client/internal/models"
	"social-explore-client/internal/notifications"
	"social-explore-client/internal/routing"
	"social-explore-client/internal/services"
	"social-explore-client/internal/session"
	"social-explore-client/internal/workflows"

	"github.com/rs/zerolog/log"
)

var errNoSelection = errors.New("no activity selected")

// UIState is a snapshot of the open views
type UIState struct {
	ActivityForm bool
	Profile      bool
	Friends      bool
	FriendsTab   workflows.Tab
	Dashboard    bool
	Selected     *models.Activity
}

// Option customizes an App
type Option func(*options)

type options struct {
	transport http.RoundTripper
	locator   geolocation.Locator
	viewport  mapsurface.Viewport
}

// WithTransport routes backend and routing-service traffic through rt
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithLocator replaces the configured device locator
func WithLocator(l geolocation.Locator) Option {
	return func(o *options) { o.locator = l }
}

// WithViewport attaches a rendered map camera
func WithViewport(v mapsurface.Viewport) Option {
	return func(o *options) { o.viewport = v }
}

// App is the top-level client. Create it with New, then Start it.
type App struct {
	cfg *config.Config

	Session       *session.Store
	Map           *mapsurface.Surface
	Feed          *feed.Feed
	Notifications *notifications.Poller
	Picker        *bridge.LocationPicker

	Activities     *services.ActivityService
	Participations *services.ParticipationService
	Friends        *services.FriendService
	Messages       *services.MessageService
	Search         *services.SearchService
	Statistics     *services.StatisticsService
	Users          *services.UserService
	Inbox          *services.NotificationService

	push *notifications.PushSubscriber

	ActivityForm *workflows.ActivityForm
	Profile      *workflows.ProfileEditor
	Dashboard    *workflows.Dashboard

	// OnNotice shows an informational message; defaults to logging it
	OnNotice func(string)

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	ui         UIState
	friends    *workflows.FriendsList
	details    *workflows.ActivityDetails
	pushCancel context.CancelFunc
	wg         sync.WaitGroup
	shutdown   bool
}

// New builds every component from cfg. Nothing runs until Start.
func New(cfg *config.Config, tokens session.TokenStore, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locator == nil {
		o.locator = geolocation.FromConfig(cfg.Map)
	}

	apiOpts := []apiclient.Option{apiclient.WithTimeout(cfg.API.Timeout)}
	if o.transport != nil {
		apiOpts = append(apiOpts, apiclient.WithTransport(o.transport))
	}

	a := &App{cfg: cfg}
	a.Session = session.NewStore(cfg.API.BaseURL, tokens, cfg.Session.StartupPolicy, apiOpts...)

	a.Activities = services.NewActivityService(a.Session)
	a.Participations = services.NewParticipationService(a.Session)
	a.Friends = services.NewFriendService(a.Session)
	a.Messages = services.NewMessageService(a.Session)
	a.Search = services.NewSearchService(a.Session)
	a.Statistics = services.NewStatisticsService(a.Session)
	a.Users = services.NewUserService(a.Session)
	a.Inbox = services.NewNotificationService(a.Session)

	a.Picker = bridge.NewLocationPicker(cfg.Bridge.MaxAttempts, cfg.Bridge.RetryInterval)

	var solver routing.Solver
	if cfg.Map.RoutingEnabled() {
		routeClient := &http.Client{Timeout: cfg.API.Timeout, Transport: o.transport}
		solver = routing.NewArcGISSolver(cfg.Map.RouteServiceURL, cfg.Map.ArcGISAPIKey, routeClient)
	} else {
		log.Info().Msg("No routing API key configured, routes will be drawn as straight lines")
	}
	a.Map = mapsurface.New(mapsurface.Options{
		Config:     cfg.Map,
		Locator:    o.locator,
		Solver:     solver,
		Bridge:     a.Picker,
		Users:      a.Search,
		Profile:    a.Session,
		Viewport:   o.viewport,
		OnLocation: a.onLocation,
		OnSelect:   a.onSelect,
		OnNotice:   a.notice,
	})
	a.Feed = feed.New(a.Activities, a.Map, cfg.Feed.DefaultRadiusKm)

	a.Notifications = notifications.NewPoller(a.Inbox, cfg.Notifications.PollInterval)
	a.Notifications.OnClick(a.routeNotification)
	if cfg.Notifications.PushURL != "" {
		a.push = notifications.NewPushSubscriber(cfg.Notifications.PushURL, a.Session.Token, a.Notifications)
	}

	a.ActivityForm = workflows.NewActivityForm(a.Activities, a.Picker, nil)
	a.ActivityForm.OnCreated = a.onActivityCreated

	a.Profile = workflows.NewProfileEditor(a.Users, a.Session, a.Picker)
	a.Profile.OnUpdate = a.onProfileUpdated
	a.Profile.OnClose = a.onProfileClosed

	a.Dashboard = workflows.NewDashboard(a.Statistics)

	a.Session.Subscribe(a.onSession)
	return a
}

// Start applies the session startup policy, resolves the user's location
// and, when signed in, starts notification polling. Background work stops
// when ctx is done or Shutdown is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.ctx != nil {
		a.mu.Unlock()
		return fmt.Errorf("app already started")
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	runCtx := a.ctx
	a.mu.Unlock()

	if err := a.Session.Init(runCtx); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	a.Map.Init(runCtx)

	if a.Session.Authenticated() {
		a.startBackground()
	}
	log.Info().
		Bool("authenticated", a.Session.Authenticated()).
		Bool("located", a.hasLocation()).
		Msg("Client started")
	return nil
}

// Shutdown stops every timer and socket. No callback fires afterwards.
func (a *App) Shutdown() {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return
	}
	a.shutdown = true
	cancel := a.cancel
	details := a.details
	a.details = nil
	a.mu.Unlock()

	a.stopBackground()
	if details != nil {
		details.Release()
	}
	a.ActivityForm.Close()
	a.Picker.Unregister(workflows.ProfileOwner)
	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	log.Info().Msg("Client stopped")
}

func (a *App) runContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) hasLocation() bool {
	_, ok := a.Map.UserLocation()
	return ok
}

// userLocation returns the resolved user location, or nil
func (a *App) userLocation() *models.Coordinate {
	loc, ok := a.Map.UserLocation()
	if !ok {
		return nil
	}
	return &loc
}

// UI returns the open views
func (a *App) UI() UIState {
	a.mu.Lock()
	defer a.mu.Unlock()
	ui := a.ui
	if ui.Selected != nil {
		sel := *ui.Selected
		ui.Selected = &sel
	}
	return ui
}

func (a *App) notice(msg string) {
	if a.OnNotice != nil {
		a.OnNotice(msg)
		return
	}
	log.Info().Str("notice", msg).Msg("Notice")
}

func (a *App) onLocation(c models.Coordinate) {
	if _, err := a.Feed.SetCenter(a.runContext(), c); err != nil {
		log.Debug().Err(err).Msg("Feed refresh after location change failed")
	}
}

func (a *App) onSession(sess *models.Session) {
	a.mu.Lock()
	started := a.ctx != nil && !a.shutdown
	a.mu.Unlock()
	if !started {
		return
	}

	if sess == nil {
		a.stopBackground()
		a.closeAll()
		a.Map.ClearMarkers()
		return
	}
	a.startBackground()
	if _, err := a.Feed.Refresh(a.runContext()); err != nil {
		log.Debug().Err(err).Msg("Feed refresh after login failed")
	}
}

func (a *App) startBackground() {
	ctx := a.runContext()
	a.Notifications.Start(ctx)

	if a.push == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pushCancel != nil || a.shutdown {
		return
	}
	pushCtx, cancel := context.WithCancel(ctx)
	a.pushCancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.push.Run(pushCtx)
	}()
}

func (a *App) stopBackground() {
	a.Notifications.Stop()

	a.mu.Lock()
	cancel := a.pushCancel
	a.pushCancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *App) closeAll() {
	a.CloseActivityForm()
	a.CloseProfile()
	a.CloseFriends()
	a.CloseDashboard()
	a.Map.CloseDetails()
}
