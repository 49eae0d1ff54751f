package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"social-explore-client/internal/observability"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// PushEvent is a message received on the notification socket
type PushEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Poker is refreshed whenever the server announces a change
type Poker interface {
	Poke(ctx context.Context)
}

// PushSubscriber listens on a websocket for notification events and pokes
// the poller on each one, so new items show up before the next tick.
type PushSubscriber struct {
	url     string
	token   func() string
	target  Poker
	dialer  *websocket.Dialer
	backoff time.Duration
}

// NewPushSubscriber creates a subscriber for pushURL. The credential is sent
// as the token query parameter.
func NewPushSubscriber(pushURL string, token func() string, target Poker) *PushSubscriber {
	return &PushSubscriber{
		url:     pushURL,
		token:   token,
		target:  target,
		dialer:  websocket.DefaultDialer,
		backoff: 2 * time.Second,
	}
}

// Run connects and reads events until ctx is done, reconnecting after
// failures
func (s *PushSubscriber) Run(ctx context.Context) {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry_in", s.backoff).Msg("Notification socket disconnected")

		timer := time.NewTimer(s.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *PushSubscriber) endpoint() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("failed to parse push url: %w", err)
	}
	q := u.Query()
	q.Set("token", s.token())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *PushSubscriber) session(ctx context.Context) error {
	endpoint, err := s.endpoint()
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Info().Msg("Notification socket connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("read failed: %w", err)
			}
			return err
		}

		var event PushEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Error().Err(err).Msg("Failed to parse push event")
			continue
		}
		s.handle(ctx, event)
	}
}

func (s *PushSubscriber) handle(ctx context.Context, event PushEvent) {
	switch event.Type {
	case "error":
		log.Warn().Str("message", event.Message).Msg("Push server error")
	case "ping":
	default:
		observability.IncPushEvent()
		log.Debug().Str("type", event.Type).Msg("Push event received")
		s.target.Poke(ctx)
	}
}
