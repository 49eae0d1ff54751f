package feed

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"social-explore-client/internal/models"
	"social-explore-client/internal/services"

	"github.com/rs/zerolog/log"
)

// DefaultRadiusKm is used when the filter holds no usable radius
const DefaultRadiusKm = 10

// Filters is the raw state of the filter controls
type Filters struct {
	Category models.Category
	// MaxDistance is the radius exactly as typed by the user
	MaxDistance string
}

// ActivityLister fetches activities around a point
type ActivityLister interface {
	Nearby(ctx context.Context, q services.NearbyQuery) ([]models.Activity, error)
}

// MarkerSink displays the fetched activities
type MarkerSink interface {
	SetMarkers(activities []models.Activity)
}

// NormalizeRadius parses a radius typed by the user. Anything that is not
// a finite positive number yields def.
func NormalizeRadius(raw string, def float64) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return def
	}
	return r
}

// Feed keeps the list of nearby activities in sync with the center and
// the filters
type Feed struct {
	lister        ActivityLister
	sink          MarkerSink
	defaultRadius float64

	mu         sync.Mutex
	center     *models.Coordinate
	filters    Filters
	activities []models.Activity
	seq        uint64
}

// New creates a feed. defaultRadius <= 0 falls back to DefaultRadiusKm.
func New(lister ActivityLister, sink MarkerSink, defaultRadius float64) *Feed {
	if defaultRadius <= 0 {
		defaultRadius = DefaultRadiusKm
	}
	return &Feed{lister: lister, sink: sink, defaultRadius: defaultRadius}
}

// SetCenter moves the query center and refetches
func (f *Feed) SetCenter(ctx context.Context, c models.Coordinate) ([]models.Activity, error) {
	f.mu.Lock()
	f.center = &c
	f.mu.Unlock()
	return f.Refresh(ctx)
}

// SetFilters replaces the filters and refetches
func (f *Feed) SetFilters(ctx context.Context, filters Filters) ([]models.Activity, error) {
	f.mu.Lock()
	f.filters = filters
	f.mu.Unlock()
	return f.Refresh(ctx)
}

// Filters returns the current filters
func (f *Feed) Filters() Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters
}

// Query returns the request the next refresh would send, and false when
// no center is known yet
func (f *Feed) Query() (services.NearbyQuery, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryLocked()
}

func (f *Feed) queryLocked() (services.NearbyQuery, bool) {
	if f.center == nil {
		return services.NearbyQuery{}, false
	}
	return services.NearbyQuery{
		Center:   *f.center,
		RadiusKm: NormalizeRadius(f.filters.MaxDistance, f.defaultRadius),
		Category: f.filters.Category,
	}, true
}

// Refresh refetches activities. Without a center nothing is requested. A
// failed fetch empties the list; the error is returned for callers that
// want to show it.
func (f *Feed) Refresh(ctx context.Context) ([]models.Activity, error) {
	f.mu.Lock()
	q, ok := f.queryLocked()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	if !ok {
		return nil, nil
	}

	activities, err := f.lister.Nearby(ctx, q)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load activities")
		activities = nil
	}

	f.mu.Lock()
	if seq != f.seq {
		// a newer refresh owns the list
		f.mu.Unlock()
		return activities, err
	}
	f.activities = activities
	f.mu.Unlock()

	if f.sink != nil {
		f.sink.SetMarkers(activities)
	}
	log.Debug().Int("count", len(activities)).Float64("radius_km", q.RadiusKm).Msg("Activities loaded")
	return activities, err
}

// Activities returns the last fetched list
func (f *Feed) Activities() []models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Activity(nil), f.activities...)
}

// Find returns an activity of the last fetched list by id
func (f *Feed) Find(id int64) (*models.Activity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.activities {
		if f.activities[i].ID == id {
			a := f.activities[i]
			return &a, true
		}
	}
	return nil, false
}
