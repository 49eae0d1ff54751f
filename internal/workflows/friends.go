package workflows

import (
	"context"
	"sync"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FriendSearchRadiusKm is the radius of the people search
const FriendSearchRadiusKm = 50

// Tab is a section of the friends view
type Tab string

const (
	TabFriends  Tab = "friends"
	TabReceived Tab = "received"
	TabSent     Tab = "sent"
	TabSearch   Tab = "search"
)

// Valid reports whether t names a known tab
func (t Tab) Valid() bool {
	switch t {
	case TabFriends, TabReceived, TabSent, TabSearch:
		return true
	}
	return false
}

// FriendsAPI is the friendship surface of the backend
type FriendsAPI interface {
	Friends(ctx context.Context) ([]models.User, error)
	Received(ctx context.Context) ([]models.FriendRequest, error)
	Sent(ctx context.Context) ([]models.FriendRequest, error)
	SendRequest(ctx context.Context, toUserID int64) (*models.FriendRequest, error)
	Respond(ctx context.Context, requestID int64, status models.FriendRequestStatus) (*models.FriendRequest, error)
	Remove(ctx context.Context, friendID int64) error
}

// PeopleSearcher finds users around a point
type PeopleSearcher interface {
	NearbyUsers(ctx context.Context, center models.Coordinate, radiusKm float64, interests ...string) ([]models.NearbyUser, error)
}

// FriendsList handles the friends modal
type FriendsList struct {
	api      FriendsAPI
	searcher PeopleSearcher
	location func() *models.Coordinate

	mu       sync.Mutex
	tab      Tab
	friends  []models.User
	received []models.FriendRequest
	sent     []models.FriendRequest
	results  []models.NearbyUser

	OnUpdate func()
}

// NewFriendsList creates the friends view on initialTab. location supplies
// the user's position for the people search.
func NewFriendsList(api FriendsAPI, searcher PeopleSearcher, location func() *models.Coordinate, initialTab Tab) *FriendsList {
	if !initialTab.Valid() {
		initialTab = TabFriends
	}
	return &FriendsList{api: api, searcher: searcher, location: location, tab: initialTab}
}

// Load fetches friends and both request lists in parallel. On failure the
// previous lists are kept.
func (f *FriendsList) Load(ctx context.Context) error {
	var (
		friends  []models.User
		received []models.FriendRequest
		sent     []models.FriendRequest
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		friends, err = f.api.Friends(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		received, err = f.api.Received(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sent, err = f.api.Sent(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Failed to load friends")
		return err
	}

	f.mu.Lock()
	f.friends = friends
	f.received = received
	f.sent = sent
	f.mu.Unlock()
	return nil
}

// Tab returns the active tab
func (f *FriendsList) Tab() Tab {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tab
}

// SelectTab switches tabs. Opening the search tab with no results runs a
// search.
func (f *FriendsList) SelectTab(ctx context.Context, tab Tab) error {
	if !tab.Valid() {
		return apperr.NewValidation("tab", "unknown tab "+string(tab))
	}
	f.mu.Lock()
	f.tab = tab
	empty := len(f.results) == 0
	f.mu.Unlock()

	if tab == TabSearch && empty {
		_, err := f.Search(ctx)
		return err
	}
	return nil
}

func (f *FriendsList) Friends() []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.friends...)
}

func (f *FriendsList) Received() []models.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FriendRequest(nil), f.received...)
}

func (f *FriendsList) Sent() []models.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FriendRequest(nil), f.sent...)
}

// Results returns the last people search results
func (f *FriendsList) Results() []models.NearbyUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.NearbyUser(nil), f.results...)
}

// Accept accepts a received request
func (f *FriendsList) Accept(ctx context.Context, requestID int64) error {
	return f.respond(ctx, requestID, models.FriendRequestAccepted)
}

// Reject rejects a received request
func (f *FriendsList) Reject(ctx context.Context, requestID int64) error {
	return f.respond(ctx, requestID, models.FriendRequestRejected)
}

func (f *FriendsList) respond(ctx context.Context, requestID int64, status models.FriendRequestStatus) error {
	if _, err := f.api.Respond(ctx, requestID, status); err != nil {
		log.Error().Err(err).Int64("request_id", requestID).Str("status", string(status)).Msg("Failed to answer friend request")
		return err
	}
	return f.reloadAndNotify(ctx)
}

// Remove ends a friendship
func (f *FriendsList) Remove(ctx context.Context, friendID int64) error {
	if err := f.api.Remove(ctx, friendID); err != nil {
		log.Error().Err(err).Int64("friend_id", friendID).Msg("Failed to remove friend")
		return err
	}
	return f.reloadAndNotify(ctx)
}

func (f *FriendsList) reloadAndNotify(ctx context.Context) error {
	err := f.Load(ctx)
	if f.OnUpdate != nil {
		f.OnUpdate()
	}
	return err
}

// Search looks for people within FriendSearchRadiusKm of the user. A failed
// query leaves an empty result list.
func (f *FriendsList) Search(ctx context.Context) ([]models.NearbyUser, error) {
	var center *models.Coordinate
	if f.location != nil {
		center = f.location()
	}
	if center == nil {
		log.Warn().Msg("People search needs the user location")
		return nil, apperr.ErrLocationUnavailable
	}

	users, err := f.searcher.NearbyUsers(ctx, *center, FriendSearchRadiusKm)
	if err != nil {
		log.Error().Err(err).Msg("Failed to search people")
		users = nil
	}

	f.mu.Lock()
	f.results = users
	f.mu.Unlock()
	return append([]models.NearbyUser(nil), users...), err
}

// SendRequest sends a friend request and refreshes the lists and the search
func (f *FriendsList) SendRequest(ctx context.Context, userID int64) error {
	if _, err := f.api.SendRequest(ctx, userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send friend request")
		return err
	}
	if err := f.Load(ctx); err != nil {
		return err
	}
	_, err := f.Search(ctx)
	return err
}

// Relationship returns how userID relates to the current user
func (f *FriendsList) Relationship(userID int64) models.Relationship {
	f.mu.Lock()
	defer f.mu.Unlock()
	return DeriveRelationship(userID, f.friends, f.sent, f.received)
}

// DeriveRelationship checks friends first, then sent requests, then
// received ones
func DeriveRelationship(userID int64, friends []models.User, sent, received []models.FriendRequest) models.Relationship {
	for i := range friends {
		if friends[i].ID == userID {
			return models.RelationshipFriend
		}
	}
	for i := range sent {
		if sent[i].ToUserID == userID {
			return models.RelationshipSent
		}
	}
	for i := range received {
		if received[i].FromUserID == userID {
			return models.RelationshipReceived
		}
	}
	return models.RelationshipNone
}
