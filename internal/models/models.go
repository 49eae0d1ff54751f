package models

import "time"

// Coordinate is a WGS84 point
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session is the authenticated identity held by the client
type Session struct {
	UserID      int64      `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Token       string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token expiry has passed at now
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// User represents the current user's profile
type User struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Bio                    *string   `json:"bio,omitempty"`
	Interests              []string  `json:"interests,omitempty"`
	VisibilityRadiusKm     int       `json:"visibility_radius_km"`
	Latitude               *float64  `json:"latitude,omitempty"`
	Longitude              *float64  `json:"longitude,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	CreatedActivitiesCount int       `json:"created_activities_count"`
	ParticipationsCount    int       `json:"participations_count"`
	FriendsCount           int       `json:"friends_count"`
}

// HomeLocation returns the saved home coordinate, if both parts are set
// and not the zero value
func (u *User) HomeLocation() (Coordinate, bool) {
	if u == nil || u.Latitude == nil || u.Longitude == nil {
		return Coordinate{}, false
	}
	if *u.Latitude == 0 || *u.Longitude == 0 {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *u.Latitude, Longitude: *u.Longitude}, true
}

// ProfileUpdate is the body of PUT /api/users/me. Nil fields are not sent.
type ProfileUpdate struct {
	Name               *string  `json:"name,omitempty"`
	Bio                *string  `json:"bio,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	VisibilityRadiusKm *int     `json:"visibility_radius_km,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
}

// AuthResponse is returned by the login and register endpoints
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Category is an activity category
type Category string

const (
	CategorySport     Category = "sport"
	CategoryFood      Category = "food"
	CategoryGames     Category = "games"
	CategoryVolunteer Category = "volunteer"
	CategoryOther     Category = "other"
)

// Categories lists every known category in display order
var Categories = []Category{CategorySport, CategoryFood, CategoryGames, CategoryVolunteer, CategoryOther}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Activity represents an activity as listed by the backend
type Activity struct {
	ID                       int64                `json:"id"`
	Title                    string               `json:"title"`
	Description              *string              `json:"description,omitempty"`
	Category                 Category             `json:"category"`
	StartTime                time.Time            `json:"start_time"`
	EndTime                  *time.Time           `json:"end_time,omitempty"`
	Latitude                 float64              `json:"latitude"`
	Longitude                float64              `json:"longitude"`
	MaxPeople                *int                 `json:"max_people,omitempty"`
	IsPublic                 bool                 `json:"is_public"`
	CreatorID                int64                `json:"creator_id"`
	CreatorName              *string              `json:"creator_name,omitempty"`
	CreatedAt                time.Time            `json:"created_at"`
	ParticipantsCount        int                  `json:"participants_count"`
	CurrentUserParticipation *ParticipationStatus `json:"current_user_participation,omitempty"`
}

// Location returns the activity coordinate
func (a *Activity) Location() Coordinate {
	return Coordinate{Latitude: a.Latitude, Longitude: a.Longitude}
}

// ActivityCreate is the body of POST /api/activities/
type ActivityCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	MaxPeople   *int       `json:"max_people"`
	IsPublic    bool       `json:"is_public"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
}

// ParticipationStatus is the state of a participation request
type ParticipationStatus string

const (
	ParticipationPending  ParticipationStatus = "pending"
	ParticipationAccepted ParticipationStatus = "accepted"
	ParticipationRejected ParticipationStatus = "rejected"
)

// Participation is a user's request to join an activity
type Participation struct {
	ID         int64               `json:"id"`
	ActivityID int64               `json:"activity_id"`
	UserID     int64               `json:"user_id"`
	UserName   *string             `json:"user_name,omitempty"`
	Status     ParticipationStatus `json:"status"`
	JoinedAt   time.Time           `json:"joined_at"`
}

// FriendRequestStatus is the state of a friend request
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a pending or resolved friendship request
type FriendRequest struct {
	ID           int64               `json:"id"`
	FromUserID   int64               `json:"from_user_id"`
	FromUserName *string             `json:"from_user_name,omitempty"`
	ToUserID     int64               `json:"to_user_id"`
	ToUserName   *string             `json:"to_user_name,omitempty"`
	Status       FriendRequestStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Relationship is the derived relation between the current user and another
type Relationship string

const (
	RelationshipFriend   Relationship = "friend"
	RelationshipSent     Relationship = "sent"
	RelationshipReceived Relationship = "received"
	RelationshipNone     Relationship = "none"
)

// Message is a chat message attached to an activity
type Message struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activity_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName *string   `json:"sender_name,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NearbyUser is a user returned by the nearby search
type NearbyUser struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Bio        *string  `json:"bio,omitempty"`
	Interests  []string `json:"interests,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Location returns the user's coordinate when known
func (u *NearbyUser) Location() (Coordinate, bool) {
	if u.Latitude == nil || u.Longitude == nil || *u.Latitude == 0 || *u.Longitude == 0 {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *u.Latitude, Longitude: *u.Longitude}, true
}
