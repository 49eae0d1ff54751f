package models

import "time"

// NotificationType identifies what a notification refers to
type NotificationType string

const (
	NotificationParticipationRequest  NotificationType = "participation_request"
	NotificationNewMessage            NotificationType = "new_message"
	NotificationFriendRequestReceived NotificationType = "friend_request_received"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
)

// Notification is an unread item shown in the notification dropdown
type Notification struct {
	ID            int64            `json:"id"`
	Type          NotificationType `json:"type"`
	ActivityID    *int64           `json:"activity_id,omitempty"`
	ActivityTitle *string          `json:"activity_title,omitempty"`
	UserID        int64            `json:"user_id"`
	UserName      string           `json:"user_name"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RelatedID returns the activity a notification points to, or the user for
// friendship notifications
func (n *Notification) RelatedID() int64 {
	if n.ActivityID != nil {
		return *n.ActivityID
	}
	return n.UserID
}

// IsFriendship reports whether the notification belongs to the friends view
func (n *Notification) IsFriendship() bool {
	return n.Type == NotificationFriendRequestReceived || n.Type == NotificationFriendRequestAccepted
}

// NotificationsResponse is returned by GET /api/participations/notifications
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Count         int            `json:"count"`
}

// NotificationCount is returned by GET /api/participations/notifications/count
type NotificationCount struct {
	Count                 int `json:"count"`
	PendingParticipations int `json:"pending_participations"`
}

// CategoryCount is one bar of a per-category chart
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MonthlyCount is one point of a per-month chart, Month formatted YYYY-MM
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TopActivity is an entry of the personal top activities list
type TopActivity struct {
	ID                int64    `json:"id"`
	Title             string   `json:"title"`
	Category          Category `json:"category"`
	ParticipantsCount int      `json:"participants_count"`
}

// GeneralStatistics is returned by GET /api/statistics/general
type GeneralStatistics struct {
	TotalActivities       int             `json:"total_activities"`
	TotalUsers            int             `json:"total_users"`
	TotalParticipations   int             `json:"total_participations"`
	Categories            []CategoryCount `json:"categories"`
	MonthlyActivities     []MonthlyCount  `json:"monthly_activities"`
	MonthlyParticipations []MonthlyCount  `json:"monthly_participations"`
}

// PersonalStatistics is returned by GET /api/statistics/personal
type PersonalStatistics struct {
	CreatedActivities      int             `json:"created_activities"`
	AcceptedParticipations int             `json:"accepted_participations"`
	PendingParticipations  int             `json:"pending_participations"`
	Categories             []CategoryCount `json:"categories"`
	MonthlyActivities      []MonthlyCount  `json:"monthly_activities"`
	MonthlyParticipations  []MonthlyCount  `json:"monthly_participations"`
	NewFriendsLast3Months  int             `json:"new_friends_last_3_months"`
	TopActivities          []TopActivity   `json:"top_activities"`
}
