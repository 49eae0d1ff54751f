package workflows

import (
	"context"
	"net/http"
	"testing"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"
	"social-explore-client/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendsRouter(h *hits, searchStatus int) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/friends/", func(w http.ResponseWriter, _ *http.Request) {
		h.add("friends")
		writeJSON(w, http.StatusOK, []models.User{{ID: 3, Name: "Ion"}})
	})
	r.Get("/api/friends/requests/received", func(w http.ResponseWriter, _ *http.Request) {
		h.add("received")
		writeJSON(w, http.StatusOK, []models.FriendRequest{{ID: 20, FromUserID: 4, ToUserID: 1}})
	})
	r.Get("/api/friends/requests/sent", func(w http.ResponseWriter, _ *http.Request) {
		h.add("sent")
		writeJSON(w, http.StatusOK, []models.FriendRequest{{ID: 21, FromUserID: 1, ToUserID: 5}})
	})
	r.Post("/api/friends/requests", func(w http.ResponseWriter, _ *http.Request) {
		h.add("send")
		writeJSON(w, http.StatusOK, models.FriendRequest{ID: 22, FromUserID: 1, ToUserID: 6})
	})
	r.Put("/api/friends/requests/{id}", func(w http.ResponseWriter, _ *http.Request) {
		h.add("respond")
		writeJSON(w, http.StatusOK, models.FriendRequest{ID: 20, Status: models.FriendRequestAccepted})
	})
	r.Delete("/api/friends/{id}", func(w http.ResponseWriter, _ *http.Request) {
		h.add("remove")
		writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
	})
	r.Get("/api/search/users/nearby", func(w http.ResponseWriter, req *http.Request) {
		h.add("search")
		h.add("radius=" + req.URL.Query().Get("radius_km"))
		if searchStatus != http.StatusOK {
			writeJSON(w, searchStatus, map[string]string{"detail": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, []models.NearbyUser{{ID: 6, Name: "Dana"}})
	})
	return r
}

func newFriends(t *testing.T, h *hits, searchStatus int, location *models.Coordinate) *FriendsList {
	t.Helper()
	provider := newProvider(t, friendsRouter(h, searchStatus))
	return NewFriendsList(
		services.NewFriendService(provider),
		services.NewSearchService(provider),
		func() *models.Coordinate { return location },
		TabReceived,
	)
}

func TestDeriveRelationship_FriendWins(t *testing.T) {
	friends := []models.User{{ID: 5}}
	sent := []models.FriendRequest{{ToUserID: 5}, {ToUserID: 6}}
	received := []models.FriendRequest{{FromUserID: 6}, {FromUserID: 7}}

	assert.Equal(t, models.RelationshipFriend, DeriveRelationship(5, friends, sent, received))
	assert.Equal(t, models.RelationshipSent, DeriveRelationship(6, friends, sent, received))
	assert.Equal(t, models.RelationshipReceived, DeriveRelationship(7, friends, sent, received))
	assert.Equal(t, models.RelationshipNone, DeriveRelationship(8, friends, sent, received))
}

func TestFriendsList_LoadAndRelationships(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusOK, &bucharest)
	assert.Equal(t, TabReceived, f.Tab())

	require.NoError(t, f.Load(context.Background()))
	assert.Len(t, f.Friends(), 1)
	assert.Len(t, f.Received(), 1)
	assert.Len(t, f.Sent(), 1)
	assert.Equal(t, models.RelationshipFriend, f.Relationship(3))
	assert.Equal(t, models.RelationshipReceived, f.Relationship(4))
	assert.Equal(t, models.RelationshipSent, f.Relationship(5))
}

func TestFriendsList_AcceptReloadsAndNotifies(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusOK, &bucharest)
	updates := 0
	f.OnUpdate = func() { updates++ }

	require.NoError(t, f.Accept(context.Background(), 20))
	require.NoError(t, f.Remove(context.Background(), 3))

	assert.Equal(t, 1, h.get("respond"))
	assert.Equal(t, 1, h.get("remove"))
	assert.Equal(t, 2, h.get("friends"))
	assert.Equal(t, 2, updates)
}

func TestFriendsList_SearchTabSearchesOnce(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusOK, &bucharest)

	require.NoError(t, f.SelectTab(context.Background(), TabSearch))
	require.NoError(t, f.SelectTab(context.Background(), TabFriends))
	require.NoError(t, f.SelectTab(context.Background(), TabSearch))

	assert.Equal(t, 1, h.get("search"))
	assert.Equal(t, 1, h.get("radius=50"))
	assert.Len(t, f.Results(), 1)
}

func TestFriendsList_SearchNeedsLocation(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusOK, nil)

	_, err := f.Search(context.Background())
	assert.ErrorIs(t, err, apperr.ErrLocationUnavailable)
	assert.Zero(t, h.get("search"))
}

func TestFriendsList_SearchFailureEmptiesResults(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusInternalServerError, &bucharest)

	results, err := f.Search(context.Background())
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Empty(t, f.Results())
}

func TestFriendsList_SendRequestRefreshesSearch(t *testing.T) {
	h := &hits{}
	f := newFriends(t, h, http.StatusOK, &bucharest)

	require.NoError(t, f.SendRequest(context.Background(), 6))
	assert.Equal(t, 1, h.get("send"))
	assert.Equal(t, 1, h.get("sent"))
	assert.Equal(t, 1, h.get("search"))
}
