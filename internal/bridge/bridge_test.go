package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"social-explore-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu  sync.Mutex
	got []models.Coordinate
}

func (c *collector) receive(coord models.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, coord)
}

func (c *collector) values() []models.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Coordinate(nil), c.got...)
}

func TestLastRegistrantWins(t *testing.T) {
	b := NewLocationPicker(1, time.Millisecond)
	form, profile := &collector{}, &collector{}

	b.Register("activity-form", form.receive)
	b.Register("profile", profile.receive)

	require.NoError(t, b.Deliver(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2}))
	assert.Empty(t, form.values())
	assert.Len(t, profile.values(), 1)
	assert.Equal(t, "profile", b.Owner())
}

func TestStaleUnregisterIsNoop(t *testing.T) {
	b := NewLocationPicker(1, time.Millisecond)
	profile := &collector{}

	b.Register("activity-form", func(models.Coordinate) {})
	b.Register("profile", profile.receive)
	b.Unregister("activity-form")

	require.NoError(t, b.Deliver(context.Background(), models.Coordinate{Latitude: 3, Longitude: 4}))
	assert.Len(t, profile.values(), 1)

	b.Unregister("profile")
	assert.Equal(t, "", b.Owner())
}

func TestDeliverWaitsForLateReceiver(t *testing.T) {
	b := NewLocationPicker(10, 20*time.Millisecond)
	form := &collector{}

	go func() {
		time.Sleep(30 * time.Millisecond)
		b.Register("activity-form", form.receive)
	}()

	require.NoError(t, b.Deliver(context.Background(), models.Coordinate{Latitude: 5, Longitude: 6}))
	assert.Equal(t, []models.Coordinate{{Latitude: 5, Longitude: 6}}, form.values())
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	b := NewLocationPicker(3, time.Millisecond)

	start := time.Now()
	err := b.Deliver(context.Background(), models.Coordinate{})
	assert.ErrorIs(t, err, ErrNoReceiver)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDeliverHonorsContext(t *testing.T) {
	b := NewLocationPicker(100, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Deliver(ctx, models.Coordinate{}), context.Canceled)
}
