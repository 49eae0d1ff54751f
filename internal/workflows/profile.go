package workflows

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"social-explore-client/internal/apiclient"
	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"

	"github.com/rs/zerolog/log"
)

const defaultVisibilityRadiusKm = 10

// SessionExpiredMessage is shown when a save is rejected with 401
const SessionExpiredMessage = "Session expired. Please log in again."

// ProfileBackend reads and writes the current user's profile
type ProfileBackend interface {
	Me(ctx context.Context) (*models.User, error)
	Update(ctx context.Context, update *models.ProfileUpdate) (*models.User, error)
}

// SessionRefresher reloads the session identity after a profile change
type SessionRefresher interface {
	Refresh(ctx context.Context) (*models.User, error)
}

// ProfileForm is the editable part of the profile
type ProfileForm struct {
	Name               string
	Bio                string
	Interests          []string
	VisibilityRadiusKm int
}

// ProfileEditor handles the profile modal
type ProfileEditor struct {
	users   ProfileBackend
	session SessionRefresher
	bridge  LocationBridge

	mu                  sync.Mutex
	profile             *models.User
	form                ProfileForm
	location            *models.Coordinate
	locationInitialized bool
	errMsg              string

	OnUpdate func()
	OnClose  func()
}

// NewProfileEditor creates a profile editor
func NewProfileEditor(users ProfileBackend, session SessionRefresher, bridge LocationBridge) *ProfileEditor {
	return &ProfileEditor{
		users:   users,
		session: session,
		bridge:  bridge,
		form:    ProfileForm{VisibilityRadiusKm: defaultVisibilityRadiusKm},
	}
}

// Open registers the editor as the location receiver and loads the profile
func (p *ProfileEditor) Open(ctx context.Context) error {
	p.bridge.Register(ProfileOwner, p.SetLocation)
	return p.Load(ctx)
}

// Load fetches the profile and fills the form
func (p *ProfileEditor) Load(ctx context.Context) error {
	user, err := p.users.Me(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load profile")
		p.mu.Lock()
		p.errMsg = apperr.UserMessage(err, "Failed to load profile")
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile = user
	form := ProfileForm{
		Name:               user.Name,
		Interests:          append([]string(nil), user.Interests...),
		VisibilityRadiusKm: user.VisibilityRadiusKm,
	}
	if user.Bio != nil {
		form.Bio = *user.Bio
	}
	if form.VisibilityRadiusKm == 0 {
		form.VisibilityRadiusKm = defaultVisibilityRadiusKm
	}
	p.form = form

	if !p.locationInitialized {
		if home, ok := user.HomeLocation(); ok {
			p.location = &home
			p.locationInitialized = true
		}
	}
	return nil
}

// Profile returns the last loaded profile
func (p *ProfileEditor) Profile() *models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// Form returns a copy of the form
func (p *ProfileEditor) Form() ProfileForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.form
	f.Interests = append([]string(nil), p.form.Interests...)
	return f
}

func (p *ProfileEditor) SetName(name string) {
	p.mu.Lock()
	p.form.Name = name
	p.mu.Unlock()
}

func (p *ProfileEditor) SetBio(bio string) {
	p.mu.Lock()
	p.form.Bio = bio
	p.mu.Unlock()
}

func (p *ProfileEditor) SetRadius(km int) {
	p.mu.Lock()
	p.form.VisibilityRadiusKm = km
	p.mu.Unlock()
}

// AddInterest appends a trimmed interest unless it is blank or present
func (p *ProfileEditor) AddInterest(raw string) bool {
	interest := strings.TrimSpace(raw)
	if interest == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Contains(p.form.Interests, interest) {
		return false
	}
	p.form.Interests = append(p.form.Interests, interest)
	return true
}

// RemoveInterest drops every occurrence of interest
func (p *ProfileEditor) RemoveInterest(interest string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.form.Interests = slices.DeleteFunc(p.form.Interests, func(s string) bool { return s == interest })
}

// SetLocation takes a coordinate picked on the map
func (p *ProfileEditor) SetLocation(c models.Coordinate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.location = &c
	p.locationInitialized = true
}

// Location returns the selected home coordinate
func (p *ProfileEditor) Location() *models.Coordinate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneCoordinate(p.location)
}

// Error returns the inline error message
func (p *ProfileEditor) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Save sends the non-empty fields, reloads the profile, refreshes the
// session identity and closes the editor
func (p *ProfileEditor) Save(ctx context.Context) error {
	p.mu.Lock()
	update := buildProfileUpdate(p.form, p.location)
	p.errMsg = ""
	p.mu.Unlock()

	if _, err := p.users.Update(ctx, update); err != nil {
		msg := apperr.UserMessage(err, err.Error())
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			msg = SessionExpiredMessage
			err = &apperr.AuthError{Detail: msg, Err: fmt.Errorf("%w: %w", apperr.ErrSessionExpired, err)}
		}
		p.mu.Lock()
		p.errMsg = msg
		p.mu.Unlock()
		log.Error().Err(err).Msg("Failed to save profile")
		return err
	}

	if err := p.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Profile saved but reload failed")
	}
	if p.session != nil {
		if _, err := p.session.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Profile saved but session refresh failed")
		}
	}

	log.Info().Msg("Profile updated")
	if p.OnUpdate != nil {
		p.OnUpdate()
	}
	p.Close()
	return nil
}

// Close unregisters the receiver and fires OnClose
func (p *ProfileEditor) Close() {
	p.bridge.Unregister(ProfileOwner)
	if p.OnClose != nil {
		p.OnClose()
	}
}

func buildProfileUpdate(form ProfileForm, location *models.Coordinate) *models.ProfileUpdate {
	update := &models.ProfileUpdate{}
	if name := strings.TrimSpace(form.Name); name != "" {
		update.Name = &name
	}
	if form.Bio != "" {
		bio := form.Bio
		update.Bio = &bio
	}
	if len(form.Interests) > 0 {
		update.Interests = append([]string(nil), form.Interests...)
	}
	if form.VisibilityRadiusKm > 0 {
		radius := form.VisibilityRadiusKm
		update.VisibilityRadiusKm = &radius
	}
	if location != nil {
		lat, lng := location.Latitude, location.Longitude
		update.Latitude = &lat
		update.Longitude = &lng
	}
	return update
}
