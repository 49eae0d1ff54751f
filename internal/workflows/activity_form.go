package workflows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"
	"social-explore-client/internal/validation"

	"github.com/rs/zerolog/log"
)

// Layouts accepted for the start and end fields. The first matches an HTML
// datetime-local input.
var draftTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", time.RFC3339}

// ActivityCreator creates activities on the backend
type ActivityCreator interface {
	Create(ctx context.Context, create *models.ActivityCreate) (*models.Activity, error)
}

// ActivityDraft is the raw content of the create-activity form
type ActivityDraft struct {
	Title       string
	Description string
	Category    models.Category
	StartTime   string
	EndTime     string
	MaxPeople   string
	IsPublic    bool
}

func emptyDraft() ActivityDraft {
	return ActivityDraft{Category: models.CategorySport, IsPublic: true}
}

// ActivityForm handles the create-activity modal
type ActivityForm struct {
	creator ActivityCreator
	bridge  LocationBridge
	zone    *time.Location

	mu                  sync.Mutex
	open                bool
	draft               ActivityDraft
	location            *models.Coordinate
	locationInitialized bool
	submitting          bool
	errMsg              string

	// OnCreated fires after a successful submit, outside the form lock
	OnCreated func(*models.Activity)
}

// NewActivityForm creates a closed form. Times typed without a zone are read
// in zone, or local time when zone is nil.
func NewActivityForm(creator ActivityCreator, bridge LocationBridge, zone *time.Location) *ActivityForm {
	if zone == nil {
		zone = time.Local
	}
	return &ActivityForm{
		creator: creator,
		bridge:  bridge,
		zone:    zone,
		draft:   emptyDraft(),
	}
}

// Open registers the form as the location receiver. The user location seeds
// the form location the first time only.
func (f *ActivityForm) Open(userLocation *models.Coordinate) {
	f.mu.Lock()
	f.open = true
	if !f.locationInitialized && userLocation != nil {
		f.location = cloneCoordinate(userLocation)
		f.locationInitialized = true
	}
	f.mu.Unlock()

	f.bridge.Register(ActivityFormOwner, f.SetLocation)
}

// Close unregisters the receiver. The draft is kept for the next open.
func (f *ActivityForm) Close() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()

	f.bridge.Unregister(ActivityFormOwner)
}

// IsOpen reports whether the modal is showing
func (f *ActivityForm) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// SetLocation takes a coordinate picked on the map
func (f *ActivityForm) SetLocation(c models.Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.location = &c
	f.locationInitialized = true
	f.errMsg = ""
}

// Location returns the selected coordinate, if any
func (f *ActivityForm) Location() *models.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneCoordinate(f.location)
}

// SetDraft replaces the form fields
func (f *ActivityForm) SetDraft(d ActivityDraft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = d
}

// Draft returns the form fields
func (f *ActivityForm) Draft() ActivityDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Error returns the inline error message, empty when there is none
func (f *ActivityForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Submit validates the draft and creates the activity. A validation failure
// returns an *apperr.ValidationError and sends nothing.
func (f *ActivityForm) Submit(ctx context.Context) (*models.Activity, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, fmt.Errorf("activity form: submit already in progress")
	}
	create, err := buildActivity(f.draft, f.location, f.zone)
	if err != nil {
		f.errMsg = apperr.UserMessage(err, err.Error())
		f.mu.Unlock()
		return nil, err
	}
	f.submitting = true
	f.errMsg = ""
	f.mu.Unlock()

	activity, err := f.creator.Create(ctx, create)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.errMsg = apperr.UserMessage(err, "Failed to create activity")
		f.mu.Unlock()
		log.Error().Err(err).Str("title", create.Title).Msg("Failed to create activity")
		return nil, err
	}
	f.draft = emptyDraft()
	f.location = nil
	f.locationInitialized = false
	onCreated := f.OnCreated
	f.mu.Unlock()

	log.Info().Int64("activity_id", activity.ID).Str("title", activity.Title).Msg("Activity created")
	if onCreated != nil {
		onCreated(activity)
	}
	return activity, nil
}

// activityInput holds the fields of a draft that are checked by tag. Field
// order is the order in which failures are reported.
type activityInput struct {
	Title     string          `json:"title" validate:"required"`
	StartTime string          `json:"start_time" validate:"required"`
	Category  models.Category `json:"category" validate:"oneof=sport food games volunteer other"`
}

var activityMessages = validation.Messages{
	"title":      "title and start date are required",
	"start_time": "title and start date are required",
	"category":   "unknown category %q",
	"max_people": "max people must be a positive whole number",
}

func buildActivity(d ActivityDraft, location *models.Coordinate, zone *time.Location) (*models.ActivityCreate, error) {
	if location == nil {
		return nil, apperr.NewValidation("location", "select a location on the map")
	}

	input := activityInput{
		Title:     strings.TrimSpace(d.Title),
		StartTime: strings.TrimSpace(d.StartTime),
		Category:  d.Category,
	}
	if input.Category == "" {
		input.Category = models.CategorySport
	}
	if err := validation.Struct(input, activityMessages); err != nil {
		return nil, err
	}
	title, category := input.Title, input.Category

	start, err := parseDraftTime(d.StartTime, zone)
	if err != nil {
		return nil, apperr.NewValidation("start_time", "start date is not a valid date")
	}

	var end *time.Time
	if strings.TrimSpace(d.EndTime) != "" {
		t, err := parseDraftTime(d.EndTime, zone)
		if err != nil {
			return nil, apperr.NewValidation("end_time", "end date is not a valid date")
		}
		if t.Before(start) {
			return nil, apperr.NewValidation("end_time", "end date cannot be before start date")
		}
		end = &t
	}

	var maxPeople *int
	if raw := strings.TrimSpace(d.MaxPeople); raw != "" {
		if err := validation.Var("max_people", raw, "number", activityMessages); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.NewValidation("max_people", activityMessages["max_people"])
		}
		if err := validation.Var("max_people", n, "gt=0", activityMessages); err != nil {
			return nil, err
		}
		maxPeople = &n
	}

	return &models.ActivityCreate{
		Title:       title,
		Description: d.Description,
		Category:    category,
		StartTime:   start,
		EndTime:     end,
		MaxPeople:   maxPeople,
		IsPublic:    d.IsPublic,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
	}, nil
}

func parseDraftTime(raw string, zone *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range draftTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, zone)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
