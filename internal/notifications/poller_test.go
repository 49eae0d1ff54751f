package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"social-explore-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sourceMock struct{ mock.Mock }

func (m *sourceMock) Count(ctx context.Context) (*models.NotificationCount, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(*models.NotificationCount)
	return c, args.Error(1)
}

func (m *sourceMock) List(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.Notification)
	return items, args.Error(1)
}

func (m *sourceMock) MarkRead(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n.ID).Error(0)
}

func methodNames(calls []mock.Call) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Method)
	}
	return names
}

func sample(ids ...int64) []models.Notification {
	items := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.Notification{ID: id, Type: models.NotificationParticipationRequest})
	}
	return items
}

func TestMarkRead_CountBeforeList(t *testing.T) {
	src := &sourceMock{}
	src.On("List", mock.Anything).Return(sample(1, 2), nil).Once()
	src.On("MarkRead", mock.Anything, int64(1)).Return(nil).Once()
	src.On("Count", mock.Anything).Return(&models.NotificationCount{Count: 1}, nil).Once()
	src.On("List", mock.Anything).Return(sample(2), nil).Once()

	p := NewPoller(src, time.Hour)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	require.NoError(t, p.MarkRead(ctx, sample(1)[0]))

	assert.Equal(t, []string{"List", "MarkRead", "Count", "List"}, methodNames(src.Calls))
	state := p.Snapshot()
	assert.Equal(t, 1, state.Count)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, int64(2), state.Notifications[0].ID)
	src.AssertExpectations(t)
}

func TestMarkRead_FailureSkipsRefresh(t *testing.T) {
	src := &sourceMock{}
	src.On("MarkRead", mock.Anything, int64(1)).Return(errors.New("404")).Once()

	p := NewPoller(src, time.Hour)
	assert.Error(t, p.MarkRead(context.Background(), sample(1)[0]))
	assert.Equal(t, []string{"MarkRead"}, methodNames(src.Calls))
}

func TestMarkAllRead_PartialFailure(t *testing.T) {
	src := &sourceMock{}
	src.On("List", mock.Anything).Return(sample(1, 2, 3), nil).Once()
	src.On("MarkRead", mock.Anything, int64(1)).Return(nil).Once()
	src.On("MarkRead", mock.Anything, int64(2)).Return(errors.New("boom")).Once()
	src.On("MarkRead", mock.Anything, int64(3)).Return(nil).Once()
	src.On("Count", mock.Anything).Return(&models.NotificationCount{Count: 1}, nil).Once()
	src.On("List", mock.Anything).Return(sample(2), nil).Once()

	p := NewPoller(src, time.Hour)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	failed, err := p.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, p.Count())
	assert.Len(t, p.Snapshot().Notifications, 1)

	names := methodNames(src.Calls)
	assert.Equal(t, []string{"Count", "List"}, names[len(names)-2:])
	src.AssertExpectations(t)
}

func TestRefreshCount_FailureShowsZero(t *testing.T) {
	src := &sourceMock{}
	src.On("Count", mock.Anything).Return(&models.NotificationCount{Count: 3, PendingParticipations: 2}, nil).Once()
	src.On("Count", mock.Anything).Return(nil, errors.New("timeout")).Once()

	p := NewPoller(src, time.Hour)
	require.NoError(t, p.RefreshCount(context.Background()))
	assert.True(t, p.Visible())
	assert.Equal(t, 2, p.Snapshot().Pending)

	assert.Error(t, p.RefreshCount(context.Background()))
	assert.False(t, p.Visible())
}

func TestClick_ClosesThenRoutes(t *testing.T) {
	src := &sourceMock{}
	src.On("List", mock.Anything).Return(sample(5), nil)
	src.On("MarkRead", mock.Anything, int64(5)).Return(nil)
	src.On("Count", mock.Anything).Return(&models.NotificationCount{}, nil)

	p := NewPoller(src, time.Hour)
	var openAtClick []bool
	p.OnClick(func(n models.Notification) {
		openAtClick = append(openAtClick, p.Snapshot().Open)
		assert.Equal(t, int64(5), n.ID)
	})

	require.NoError(t, p.Open(context.Background()))
	p.Click(context.Background(), sample(5)[0])
	assert.Equal(t, []bool{false}, openAtClick)
}

type countingSource struct {
	counts atomic.Int32
	lists  atomic.Int32
	value  atomic.Int32
}

func (s *countingSource) Count(context.Context) (*models.NotificationCount, error) {
	s.counts.Add(1)
	return &models.NotificationCount{Count: int(s.value.Load())}, nil
}

func (s *countingSource) List(context.Context) ([]models.Notification, error) {
	s.lists.Add(1)
	return nil, nil
}

func (s *countingSource) MarkRead(context.Context, *models.Notification) error { return nil }

func TestStartStop_NoTicksAfterStop(t *testing.T) {
	src := &countingSource{}
	p := NewPoller(src, 5*time.Millisecond)

	var mu sync.Mutex
	changes := 0
	p.OnChange(func(State) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	p.Start(context.Background())
	p.Start(context.Background())
	assert.True(t, p.Running())

	require.Eventually(t, func() bool { return src.counts.Load() >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())

	mu.Lock()
	seenChanges := changes
	mu.Unlock()
	seen := src.counts.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, src.counts.Load())
	mu.Lock()
	assert.Equal(t, seenChanges, changes)
	mu.Unlock()

	p.Stop()
}

func TestTick_RefreshesListWhenOpenAndCountChanged(t *testing.T) {
	src := &countingSource{}
	p := NewPoller(src, time.Hour)
	ctx := context.Background()

	require.NoError(t, p.Open(ctx))
	assert.Equal(t, int32(1), src.lists.Load())

	p.Poke(ctx)
	assert.Equal(t, int32(1), src.lists.Load())

	src.value.Store(2)
	p.Poke(ctx)
	assert.Equal(t, int32(2), src.lists.Load())

	p.Close()
	src.value.Store(4)
	p.Poke(ctx)
	assert.Equal(t, int32(2), src.lists.Load())
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "now", Age(now.Add(-10*time.Second), now))
	assert.Equal(t, "5 min ago", Age(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 h ago", Age(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", Age(now.Add(-50*time.Hour), now))
	assert.Equal(t, "01.05", Age(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), now))
}
