package workflows

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"social-explore-client/internal/apiclient"
	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"
	"social-explore-client/internal/observability"

	"github.com/rs/zerolog/log"
)

// DefaultChatInterval is how often an open chat is reloaded
const DefaultChatInterval = 5 * time.Second

// ErrDetailsClosed is returned when opening a view that was already closed
var ErrDetailsClosed = errors.New("activity details already closed")

// ParticipationAPI is the participation surface the details view needs
type ParticipationAPI interface {
	Join(ctx context.Context, activityID int64) (*models.Participation, error)
	Mine(ctx context.Context) ([]models.Participation, error)
	ForActivity(ctx context.Context, activityID int64) ([]models.Participation, error)
	UpdateStatus(ctx context.Context, id int64, status models.ParticipationStatus) (*models.Participation, error)
}

// MessageAPI reads and posts activity chat messages
type MessageAPI interface {
	List(ctx context.Context, activityID int64) ([]models.Message, error)
	Send(ctx context.Context, activityID int64, text string) (*models.Message, error)
}

// ActivityDeleter deletes activities
type ActivityDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// DetailsDeps groups the backends of an ActivityDetails view
type DetailsDeps struct {
	Participations ParticipationAPI
	Messages       MessageAPI
	Activities     ActivityDeleter
	// ChatInterval defaults to DefaultChatInterval
	ChatInterval time.Duration
}

// ActivityDetails handles the details modal of one activity: the viewer's
// participation, the creator's request list and the chat
type ActivityDetails struct {
	activity models.Activity
	userID   int64
	deps     DetailsDeps

	mu            sync.Mutex
	baseCtx       context.Context
	participation *models.Participation
	requests      []models.Participation
	messages      []models.Message
	chatCancel    context.CancelFunc
	chatDone      chan struct{}
	closed        bool
	errMsg        string

	OnUpdate func()
	OnClose  func()
}

// NewActivityDetails creates the details view of activity for the user
// currentUserID
func NewActivityDetails(activity models.Activity, currentUserID int64, deps DetailsDeps) *ActivityDetails {
	if deps.ChatInterval <= 0 {
		deps.ChatInterval = DefaultChatInterval
	}
	return &ActivityDetails{activity: activity, userID: currentUserID, deps: deps}
}

// Activity returns the activity shown
func (d *ActivityDetails) Activity() models.Activity {
	return d.activity
}

// IsCreator reports whether the viewer created the activity
func (d *ActivityDetails) IsCreator() bool {
	return d.userID != 0 && d.activity.CreatorID == d.userID
}

// CanChat reports whether the viewer may read and post messages
func (d *ActivityDetails) CanChat() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canChatLocked()
}

func (d *ActivityDetails) canChatLocked() bool {
	if d.IsCreator() {
		return true
	}
	return d.participation != nil && d.participation.Status == models.ParticipationAccepted
}

// Open loads the viewer's participation, the request list for the creator,
// and starts the chat when allowed. The chat keeps polling until Close or
// until ctx is done. A view that was closed or released stays closed and
// Open returns ErrDetailsClosed.
func (d *ActivityDetails) Open(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDetailsClosed
	}
	d.baseCtx = ctx
	d.mu.Unlock()

	d.checkParticipation(ctx)
	if d.IsCreator() {
		if err := d.loadRequests(ctx); err != nil {
			return err
		}
	}
	d.syncChat()
	return nil
}

// Participation returns the viewer's own participation, if any
func (d *ActivityDetails) Participation() *models.Participation {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.participation == nil {
		return nil
	}
	p := *d.participation
	return &p
}

// Requests returns the participation requests, creator only
func (d *ActivityDetails) Requests() []models.Participation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Participation(nil), d.requests...)
}

// Messages returns the loaded chat messages
func (d *ActivityDetails) Messages() []models.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Message(nil), d.messages...)
}

// Error returns the inline error message
func (d *ActivityDetails) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

// Chatting reports whether the chat poller is running
func (d *ActivityDetails) Chatting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chatCancel != nil
}

func (d *ActivityDetails) checkParticipation(ctx context.Context) {
	mine, err := d.deps.Participations.Mine(ctx)
	if err != nil {
		log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to check participation")
		return
	}

	var found *models.Participation
	for i := range mine {
		if mine[i].ActivityID == d.activity.ID {
			p := mine[i]
			found = &p
			break
		}
	}

	d.mu.Lock()
	d.participation = found
	d.mu.Unlock()
}

func (d *ActivityDetails) loadRequests(ctx context.Context) error {
	requests, err := d.deps.Participations.ForActivity(ctx, d.activity.ID)
	if err != nil {
		log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to load participation requests")
		return err
	}
	d.mu.Lock()
	d.requests = requests
	d.mu.Unlock()
	return nil
}

// LoadMessages reloads the chat. A 403 means the viewer is not allowed to
// chat yet and leaves an empty list.
func (d *ActivityDetails) LoadMessages(ctx context.Context) error {
	msgs, err := d.deps.Messages.List(ctx, d.activity.ID)
	if err != nil {
		if apiclient.IsStatus(err, http.StatusForbidden) {
			d.mu.Lock()
			d.messages = nil
			d.mu.Unlock()
			return nil
		}
		if ctx.Err() == nil {
			log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to load messages")
		}
		return err
	}
	d.mu.Lock()
	d.messages = msgs
	d.mu.Unlock()
	return nil
}

// syncChat starts or stops the chat poller to match CanChat
func (d *ActivityDetails) syncChat() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.baseCtx == nil {
		return
	}
	allowed := d.canChatLocked()
	switch {
	case allowed && d.chatCancel == nil:
		ctx, cancel := context.WithCancel(d.baseCtx)
		done := make(chan struct{})
		d.chatCancel = cancel
		d.chatDone = done
		go d.chatLoop(ctx, done)
	case !allowed && d.chatCancel != nil:
		d.stopChatLocked()
	}
}

func (d *ActivityDetails) chatLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.deps.ChatInterval)
	defer ticker.Stop()

	for {
		err := d.LoadMessages(ctx)
		if ctx.Err() != nil {
			return
		}
		observability.IncPollTick("chat", err == nil)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// stopChatLocked cancels the poller without waiting. The caller holds d.mu.
func (d *ActivityDetails) stopChatLocked() chan struct{} {
	if d.chatCancel == nil {
		return nil
	}
	d.chatCancel()
	done := d.chatDone
	d.chatCancel = nil
	d.chatDone = nil
	return done
}

// Join asks to participate and rechecks the participation
func (d *ActivityDetails) Join(ctx context.Context) error {
	if _, err := d.deps.Participations.Join(ctx, d.activity.ID); err != nil {
		d.setError(apperr.UserMessage(err, "Failed to join activity"))
		log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to join activity")
		return err
	}
	d.setError("")
	d.checkParticipation(ctx)
	d.syncChat()
	d.fireUpdate()
	return nil
}

// SendMessage posts text to the chat and reloads it. Blank text is ignored.
func (d *ActivityDetails) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := d.deps.Messages.Send(ctx, d.activity.ID, text); err != nil {
		d.setError(apperr.UserMessage(err, "Failed to send message"))
		log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to send message")
		return err
	}
	d.setError("")
	return d.LoadMessages(ctx)
}

// UpdateParticipation accepts or rejects a request. Creator only.
func (d *ActivityDetails) UpdateParticipation(ctx context.Context, participationID int64, status models.ParticipationStatus) error {
	if _, err := d.deps.Participations.UpdateStatus(ctx, participationID, status); err != nil {
		d.setError(apperr.UserMessage(err, "Failed to update participation"))
		log.Error().Err(err).Int64("participation_id", participationID).Msg("Failed to update participation")
		return err
	}
	d.setError("")
	if err := d.loadRequests(ctx); err != nil {
		return err
	}
	d.fireUpdate()
	return nil
}

// Delete removes the activity, closes the view and then fires OnUpdate
func (d *ActivityDetails) Delete(ctx context.Context) error {
	if err := d.deps.Activities.Delete(ctx, d.activity.ID); err != nil {
		d.setError(apperr.UserMessage(err, "Failed to delete activity"))
		log.Error().Err(err).Int64("activity_id", d.activity.ID).Msg("Failed to delete activity")
		return err
	}
	log.Info().Int64("activity_id", d.activity.ID).Msg("Activity deleted")
	d.Close()
	d.fireUpdate()
	return nil
}

// Close stops the chat poller and fires OnClose. No poll runs after Close
// returns.
func (d *ActivityDetails) Close() {
	d.close(true)
}

// Release stops the chat poller without firing OnClose, for a view that is
// being replaced
func (d *ActivityDetails) Release() {
	d.close(false)
}

func (d *ActivityDetails) close(notify bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	done := d.stopChatLocked()
	onClose := d.OnClose
	d.mu.Unlock()

	if done != nil {
		<-done
	}
	if notify && onClose != nil {
		onClose()
	}
}

func (d *ActivityDetails) setError(msg string) {
	d.mu.Lock()
	d.errMsg = msg
	d.mu.Unlock()
}

func (d *ActivityDetails) fireUpdate() {
	if d.OnUpdate != nil {
		d.OnUpdate()
	}
}
