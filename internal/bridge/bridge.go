package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"social-explore-client/internal/models"
	"social-explore-client/internal/observability"

	"github.com/rs/zerolog/log"
)

// ErrNoReceiver is returned when no form took the picked location in time
var ErrNoReceiver = errors.New("no location receiver registered")

// Receiver accepts a coordinate picked on the map
type Receiver func(models.Coordinate)

// LocationPicker forwards map clicks to the one form that is currently
// picking a location. A form registers itself when it opens; a later
// registration replaces the earlier one.
type LocationPicker struct {
	maxAttempts   int
	retryInterval time.Duration

	mu       sync.Mutex
	owner    string
	receiver Receiver
}

// NewLocationPicker creates a bridge that retries delivery maxAttempts times
func NewLocationPicker(maxAttempts int, retryInterval time.Duration) *LocationPicker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &LocationPicker{maxAttempts: maxAttempts, retryInterval: retryInterval}
}

// Register installs receiver for owner, replacing whatever held the slot
func (b *LocationPicker) Register(owner string, receiver Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.owner != "" && b.owner != owner {
		log.Debug().Str("previous", b.owner).Str("owner", owner).Msg("Location receiver replaced")
	}
	b.owner = owner
	b.receiver = receiver
}

// Unregister clears the slot if owner still holds it
func (b *LocationPicker) Unregister(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.owner != owner {
		return
	}
	b.owner = ""
	b.receiver = nil
}

// Owner returns the current slot holder, or ""
func (b *LocationPicker) Owner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// Deliver hands coord to the registered receiver. When none is registered
// yet it retries at the configured interval, giving a form that is still
// opening time to register.
func (b *LocationPicker) Deliver(ctx context.Context, coord models.Coordinate) error {
	for attempt := 1; ; attempt++ {
		if receiver := b.current(); receiver != nil {
			receiver(coord)
			observability.IncBridgeDelivery("delivered")
			return nil
		}
		if attempt >= b.maxAttempts {
			break
		}

		timer := time.NewTimer(b.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			observability.IncBridgeDelivery("canceled")
			return ctx.Err()
		case <-timer.C:
		}
	}

	observability.IncBridgeDelivery("dropped")
	log.Warn().
		Float64("latitude", coord.Latitude).
		Float64("longitude", coord.Longitude).
		Int("attempts", b.maxAttempts).
		Msg("Picked location dropped: no receiver")
	return ErrNoReceiver
}

func (b *LocationPicker) current() Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receiver
}
