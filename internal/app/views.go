package app

import (
	"context"
	"errors"

	"social-explore-client/internal/mapsurface"
	"social-explore-client/internal/models"
	"social-explore-client/internal/workflows"

	"github.com/rs/zerolog/log"
)

// OpenActivityForm shows the create-activity form and puts the map in
// picking mode for it. An open profile editor is closed first so only one
// form owns the picker.
func (a *App) OpenActivityForm() {
	a.CloseProfile()

	a.ActivityForm.Open(a.userLocation())
	a.Map.OpenPicker(workflows.ActivityFormOwner)

	a.mu.Lock()
	a.ui.ActivityForm = true
	a.mu.Unlock()
}

// CloseActivityForm hides the form and leaves picking mode
func (a *App) CloseActivityForm() {
	a.ActivityForm.Close()
	a.Map.ClosePicker(workflows.ActivityFormOwner)

	a.mu.Lock()
	a.ui.ActivityForm = false
	a.mu.Unlock()
}

func (a *App) onActivityCreated(activity *models.Activity) {
	a.CloseActivityForm()
	if _, err := a.Feed.Refresh(a.runContext()); err != nil {
		log.Debug().Err(err).Msg("Feed refresh after create failed")
	}
	a.Map.CloseDetails()
	a.notice("Activity \"" + activity.Title + "\" created")
}

// OpenProfile shows the profile editor and puts the map in picking mode for
// it, closing the activity form first
func (a *App) OpenProfile(ctx context.Context) error {
	a.CloseActivityForm()

	a.mu.Lock()
	a.ui.Profile = true
	a.mu.Unlock()
	a.Map.OpenPicker(workflows.ProfileOwner)

	return a.Profile.Open(ctx)
}

// CloseProfile hides the profile editor
func (a *App) CloseProfile() {
	a.mu.Lock()
	open := a.ui.Profile
	a.mu.Unlock()
	if open {
		a.Profile.Close()
	}
}

func (a *App) onProfileClosed() {
	a.Map.ClosePicker(workflows.ProfileOwner)
	a.mu.Lock()
	a.ui.Profile = false
	a.mu.Unlock()
}

func (a *App) onProfileUpdated() {
	a.Map.ReloadSelfLocation(a.runContext())
}

// OpenFriends shows the friends view on tab and loads it
func (a *App) OpenFriends(ctx context.Context, tab workflows.Tab) (*workflows.FriendsList, error) {
	if !tab.Valid() {
		tab = workflows.TabFriends
	}
	friends := workflows.NewFriendsList(a.Friends, a.Search, a.userLocation, tab)
	friends.OnUpdate = func() { a.Notifications.Poke(a.runContext()) }

	a.mu.Lock()
	a.friends = friends
	a.ui.Friends = true
	a.ui.FriendsTab = tab
	a.mu.Unlock()

	if err := friends.Load(ctx); err != nil {
		return friends, err
	}
	if tab == workflows.TabSearch {
		if _, err := friends.Search(ctx); err != nil {
			log.Debug().Err(err).Msg("People search on open failed")
		}
	}
	return friends, nil
}

// FriendsView returns the open friends view, or nil
func (a *App) FriendsView() *workflows.FriendsList {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.friends
}

// CloseFriends hides the friends view
func (a *App) CloseFriends() {
	a.mu.Lock()
	a.friends = nil
	a.ui.Friends = false
	a.ui.FriendsTab = ""
	a.mu.Unlock()
}

// OpenDashboard shows the statistics dashboard and loads it
func (a *App) OpenDashboard(ctx context.Context) error {
	a.mu.Lock()
	a.ui.Dashboard = true
	a.mu.Unlock()
	return a.Dashboard.Load(ctx)
}

// CloseDashboard hides the dashboard
func (a *App) CloseDashboard() {
	a.mu.Lock()
	a.ui.Dashboard = false
	a.mu.Unlock()
}

// SelectActivity opens the details of an activity, as a marker click would
func (a *App) SelectActivity(activity *models.Activity) {
	a.Map.SelectActivity(activity)
}

// Details returns the open details view, or nil
func (a *App) Details() *workflows.ActivityDetails {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.details
}

// CloseDetails closes the details view and clears the selection
func (a *App) CloseDetails() {
	a.Map.CloseDetails()
}

// ShowRoute draws the route to the selected activity
func (a *App) ShowRoute(ctx context.Context) (*mapsurface.RouteInfo, error) {
	selected := a.Map.Selected()
	if selected == nil {
		return nil, errNoSelection
	}
	return a.Map.ShowRoute(ctx, selected)
}

// onSelect follows the map selection: a new selection replaces the open
// details view, nil closes it
func (a *App) onSelect(activity *models.Activity) {
	a.mu.Lock()
	previous := a.details
	a.details = nil
	if activity == nil {
		a.ui.Selected = nil
	} else {
		sel := *activity
		a.ui.Selected = &sel
	}
	shutdown := a.shutdown
	a.mu.Unlock()

	if previous != nil {
		previous.Release()
	}
	if activity == nil || shutdown {
		a.Map.ClearRoute()
		return
	}

	var userID int64
	if sess := a.Session.Current(); sess != nil {
		userID = sess.UserID
	}
	details := workflows.NewActivityDetails(*activity, userID, workflows.DetailsDeps{
		Participations: a.Participations,
		Messages:       a.Messages,
		Activities:     a.Activities,
		ChatInterval:   a.cfg.Chat.PollInterval,
	})
	details.OnClose = a.Map.CloseDetails
	details.OnUpdate = func() {
		if _, err := a.Feed.Refresh(a.runContext()); err != nil {
			log.Debug().Err(err).Msg("Feed refresh after details change failed")
		}
	}

	a.mu.Lock()
	a.details = details
	a.mu.Unlock()

	if err := details.Open(a.runContext()); err != nil {
		if errors.Is(err, workflows.ErrDetailsClosed) {
			return
		}
		log.Warn().Err(err).Int64("activity_id", activity.ID).Msg("Activity details opened with errors")
	}

	// a newer selection may have replaced this view while it was loading
	a.mu.Lock()
	current := a.details == details
	a.mu.Unlock()
	if !current {
		details.Release()
	}
}

// routeNotification navigates to whatever a clicked notification is about
func (a *App) routeNotification(n models.Notification) {
	ctx := a.runContext()
	log.Debug().Str("type", string(n.Type)).Int64("related_id", n.RelatedID()).Msg("Notification clicked")
	if n.IsFriendship() {
		tab := workflows.TabFriends
		if n.Type == models.NotificationFriendRequestReceived {
			tab = workflows.TabReceived
		}
		if _, err := a.OpenFriends(ctx, tab); err != nil {
			log.Warn().Err(err).Str("tab", string(tab)).Msg("Failed to open friends")
		}
		return
	}

	if n.ActivityID == nil {
		return
	}
	if _, err := a.OpenActivity(ctx, *n.ActivityID); err != nil {
		log.Warn().Err(err).Int64("activity_id", *n.ActivityID).Msg("Notification points to an unknown activity")
	}
}

// OpenActivity selects an activity by id, fetching it when it is not in the
// feed, and returns its details view
func (a *App) OpenActivity(ctx context.Context, id int64) (*workflows.ActivityDetails, error) {
	activity, ok := a.Feed.Find(id)
	if !ok {
		var err error
		if activity, err = a.Activities.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	a.Map.SelectActivity(activity)

	details := a.Details()
	if details == nil {
		return nil, errNoSelection
	}
	return details, nil
}
