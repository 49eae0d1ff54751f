package notifications

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"social-explore-client/internal/models"
	"social-explore-client/internal/observability"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Source is the backend side of notifications
type Source interface {
	Count(ctx context.Context) (*models.NotificationCount, error)
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, n *models.Notification) error
}

// State is what the notification bell displays
type State struct {
	Count         int
	Pending       int
	Open          bool
	Notifications []models.Notification
}

// Poller keeps the unread count fresh and loads details when the dropdown
// is open
type Poller struct {
	src      Source
	interval time.Duration

	mu       sync.Mutex
	count    int
	pending  int
	open     bool
	items    []models.Notification
	onChange []func(State)
	onClick  func(models.Notification)
	cancel   context.CancelFunc
	done     chan struct{}
	stopped  atomic.Bool
}

// NewPoller creates a poller that refreshes the count every interval
func NewPoller(src Source, interval time.Duration) *Poller {
	return &Poller{src: src, interval: interval}
}

// OnChange registers fn to receive every state change
func (p *Poller) OnChange(fn func(State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// OnClick sets the handler called after a notification was clicked
func (p *Poller) OnClick(fn func(models.Notification)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick = fn
}

// Start fetches the count now and then on every tick until Stop or ctx
// is done. Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()
	p.stopped.Store(false)

	go func() {
		defer close(done)

		p.tick(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
	log.Debug().Dur("interval", p.interval).Msg("Notification polling started")
}

// Stop cancels the timer and waits for an in-flight tick to finish. After
// Stop returns no callback fires until the next Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	p.stopped.Store(true)
	cancel()
	<-done

	p.mu.Lock()
	p.count, p.pending, p.open, p.items = 0, 0, false, nil
	p.mu.Unlock()
	log.Debug().Msg("Notification polling stopped")
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) tick(ctx context.Context) {
	changed, err := p.refreshCount(ctx)
	observability.IncPollTick("notifications", err == nil)
	if ctx.Err() != nil {
		return
	}
	if changed && p.Snapshot().Open {
		_ = p.RefreshList(ctx)
	}
}

// Poke refreshes immediately, as if the timer had fired
func (p *Poller) Poke(ctx context.Context) {
	p.tick(ctx)
}

// RefreshCount reloads the unread count. A failed request shows zero.
func (p *Poller) RefreshCount(ctx context.Context) error {
	_, err := p.refreshCount(ctx)
	return err
}

func (p *Poller) refreshCount(ctx context.Context) (bool, error) {
	count, err := p.src.Count(ctx)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	p.mu.Lock()
	before := p.count
	if err != nil {
		p.count, p.pending = 0, 0
	} else {
		p.count, p.pending = count.Count, count.PendingParticipations
	}
	changed := before != p.count
	p.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to load notification count")
	}
	p.emit()
	return changed, err
}

// RefreshList reloads the notification details. A failed request keeps the
// previous list.
func (p *Poller) RefreshList(ctx context.Context) error {
	items, err := p.src.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load notifications")
		return err
	}

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	p.emit()
	return nil
}

// Open shows the dropdown and loads its content
func (p *Poller) Open(ctx context.Context) error {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
	return p.RefreshList(ctx)
}

// Close hides the dropdown
func (p *Poller) Close() {
	p.mu.Lock()
	was := p.open
	p.open = false
	p.mu.Unlock()
	if was {
		p.emit()
	}
}

// MarkRead acknowledges n, then refreshes the count and after it the list
func (p *Poller) MarkRead(ctx context.Context, n models.Notification) error {
	if err := p.src.MarkRead(ctx, &n); err != nil {
		log.Error().Err(err).Int64("notification_id", n.ID).Str("type", string(n.Type)).Msg("Failed to mark notification as read")
		return err
	}
	// count before list
	_, _ = p.refreshCount(ctx)
	return p.RefreshList(ctx)
}

// Click marks n read, closes the dropdown and hands n to the click handler.
// A failed acknowledgement does not stop the navigation.
func (p *Poller) Click(ctx context.Context, n models.Notification) {
	_ = p.MarkRead(ctx, n)
	p.Close()

	p.mu.Lock()
	fn := p.onClick
	p.mu.Unlock()
	if fn != nil && !p.stopped.Load() {
		fn(n)
	}
}

// MarkAllRead acknowledges every listed notification in parallel. Single
// failures are logged and skipped; the number of failures is returned.
func (p *Poller) MarkAllRead(ctx context.Context) (int, error) {
	p.mu.Lock()
	items := append([]models.Notification(nil), p.items...)
	p.mu.Unlock()

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		n := items[i]
		g.Go(func() error {
			if err := p.src.MarkRead(gctx, &n); err != nil {
				failed.Add(1)
				log.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to mark notification as read")
			}
			return nil
		})
	}
	_ = g.Wait()

	_, _ = p.refreshCount(ctx)
	if err := p.RefreshList(ctx); err != nil {
		return int(failed.Load()), err
	}
	log.Info().Int("total", len(items)).Int32("failed", failed.Load()).Msg("Notifications marked as read")
	return int(failed.Load()), nil
}

// Count returns the unread count
func (p *Poller) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Visible reports whether the bell should be shown
func (p *Poller) Visible() bool {
	return p.Count() > 0
}

// Snapshot returns the current state
func (p *Poller) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Poller) stateLocked() State {
	return State{
		Count:         p.count,
		Pending:       p.pending,
		Open:          p.open,
		Notifications: append([]models.Notification(nil), p.items...),
	}
}

func (p *Poller) emit() {
	if p.stopped.Load() {
		return
	}
	p.mu.Lock()
	state := p.stateLocked()
	subs := append(([]func(State))(nil), p.onChange...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
