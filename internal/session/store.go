package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"social-explore-client/internal/apiclient"
	"social-explore-client/internal/apperr"
	"social-explore-client/internal/config"
	"social-explore-client/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Store owns the authenticated identity and the credential used by every
// backend call. Identity and credential always change together.
type Store struct {
	clients *apiclient.Factory
	tokens  TokenStore
	policy  string
	now     func() time.Time

	mu          sync.RWMutex
	current     *models.Session
	user        *models.User
	subscribers []func(*models.Session)
}

// NewStore creates a session store talking to baseURL. The store owns the
// client factory so clients always carry its current credential.
func NewStore(baseURL string, tokens TokenStore, policy string, opts ...apiclient.Option) *Store {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	if policy == "" {
		policy = config.PolicyDiscard
	}
	s := &Store{
		tokens: tokens,
		policy: policy,
		now:    time.Now,
	}
	s.clients = apiclient.NewFactory(baseURL, s, opts...)
	return s
}

// Clients returns the factory bound to this store's credential
func (s *Store) Clients() *apiclient.Factory {
	return s.clients
}

// Client returns the client for the current credential
func (s *Store) Client() *apiclient.Client {
	return s.clients.Client()
}

// Token returns the current bearer token, or "" without a session
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Current returns a copy of the active session, or nil
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// User returns a copy of the last loaded profile, or nil
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// Authenticated reports whether a session is active
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to be called after every identity change. fn
// receives nil on logout.
func (s *Store) Subscribe(fn func(*models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Init applies the startup policy. With PolicyDiscard any stored credential
// is dropped and the client starts logged out. With PolicyRestore the stored
// credential is loaded and validated against the backend.
func (s *Store) Init(ctx context.Context) error {
	if s.policy != config.PolicyRestore {
		if err := s.tokens.Clear(); err != nil {
			log.Warn().Err(err).Msg("Failed to clear stored session")
		}
		s.install(nil, nil)
		return nil
	}

	stored, err := s.tokens.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load stored session")
		_ = s.tokens.Clear()
		s.install(nil, nil)
		return nil
	}
	if stored == nil {
		s.install(nil, nil)
		return nil
	}

	sess := &models.Session{
		UserID:      stored.UserID,
		DisplayName: stored.DisplayName,
		Email:       stored.Email,
		Token:       stored.Token,
		ExpiresAt:   tokenExpiry(stored.Token),
	}
	s.install(sess, nil)

	if err := s.Validate(ctx); err != nil {
		log.Info().Err(err).Msg("Stored session discarded")
	}
	return nil
}

// Login authenticates with email and password. On failure the previous
// session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp models.AuthResponse
	if err := s.clients.Anonymous().Post(ctx, "/api/auth/login", body, &resp); err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			return nil, &apperr.AuthError{Detail: detailOf(err), Err: apperr.ErrInvalidCredentials}
		}
		return nil, &apperr.AuthError{Detail: detailOf(err), Err: fmt.Errorf("failed to login: %w", err)}
	}

	sess, err := s.establish(&resp)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", sess.UserID).Msg("Logged in")
	return sess, nil
}

// Register creates an account and logs in as it
func (s *Store) Register(ctx context.Context, name, email, password string) (*models.Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	var resp models.AuthResponse
	if err := s.clients.Anonymous().Post(ctx, "/api/auth/register", body, &resp); err != nil {
		return nil, &apperr.AuthError{Detail: detailOf(err), Err: fmt.Errorf("failed to register: %w", err)}
	}

	sess, err := s.establish(&resp)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", sess.UserID).Msg("Registered")
	return sess, nil
}

// Logout clears the session and the persisted credential
func (s *Store) Logout() {
	if err := s.tokens.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear stored session")
	}
	s.install(nil, nil)
	log.Info().Msg("Logged out")
}

// Refresh reloads the profile of the current user. A rejected credential is
// reported but does not end the session; Validate is the only path that
// evicts.
func (s *Store) Refresh(ctx context.Context) (*models.User, error) {
	token := s.Token()
	if token == "" {
		log.Warn().Msg("Refresh skipped: no session")
		return nil, apperr.ErrNotAuthenticated
	}

	var user models.User
	if err := s.clients.Client().Get(ctx, "/api/users/me", nil, &user); err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			log.Warn().Msg("Refresh rejected: token invalid or expired, keeping session")
			return nil, &apperr.AuthError{Detail: detailOf(err), Err: apperr.ErrSessionExpired}
		}
		log.Error().Err(err).Msg("Failed to refresh user")
		return nil, fmt.Errorf("failed to refresh user: %w", err)
	}

	s.mu.Lock()
	if s.current == nil || s.current.Token != token {
		// identity changed while the request was in flight
		s.mu.Unlock()
		return &user, nil
	}
	next := *s.current
	next.DisplayName = user.Name
	next.Email = user.Email
	s.current = &next
	s.user = &user
	s.mu.Unlock()

	s.notify(&next)
	log.Debug().Str("name", user.Name).Msg("User refreshed")
	return &user, nil
}

// Validate checks the current credential: locally against the token expiry,
// then against the backend. Any failure evicts the session.
func (s *Store) Validate(ctx context.Context) error {
	sess := s.Current()
	if sess == nil {
		return apperr.ErrNotAuthenticated
	}

	if sess.Expired(s.now()) {
		s.evict(sess.Token)
		return &apperr.AuthError{Err: apperr.ErrSessionExpired}
	}

	var user models.User
	if err := s.clients.Client().Get(ctx, "/api/users/me", nil, &user); err != nil {
		s.evict(sess.Token)
		return &apperr.AuthError{Detail: detailOf(err), Err: fmt.Errorf("%w: %v", apperr.ErrSessionExpired, err)}
	}

	s.mu.Lock()
	if s.current != nil && s.current.Token == sess.Token {
		next := *s.current
		next.UserID = user.ID
		next.DisplayName = user.Name
		next.Email = user.Email
		s.current = &next
		s.user = &user
		sess = &next
	}
	s.mu.Unlock()

	s.notify(sess)
	return nil
}

// establish builds the full session before swapping it in
func (s *Store) establish(resp *models.AuthResponse) (*models.Session, error) {
	if resp.AccessToken == "" {
		return nil, &apperr.AuthError{Err: errors.New("backend returned no access token")}
	}

	user := resp.User
	sess := &models.Session{
		UserID:      user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Token:       resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp.AccessToken),
	}

	if err := s.tokens.Save(&StoredSession{
		Token:       sess.Token,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		Email:       sess.Email,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session")
	}

	s.install(sess, &user)
	cp := *sess
	return &cp, nil
}

func (s *Store) install(sess *models.Session, user *models.User) {
	s.mu.Lock()
	changed := s.current != nil || sess != nil
	s.current = sess
	s.user = user
	s.mu.Unlock()

	if changed {
		var cp *models.Session
		if sess != nil {
			c := *sess
			cp = &c
		}
		s.notify(cp)
	}
}

// evict clears the session only if it still holds token
func (s *Store) evict(token string) {
	s.mu.Lock()
	if s.current == nil || s.current.Token != token {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear stored session")
	}
	log.Info().Msg("Session evicted")
	s.notify(nil)
}

func (s *Store) notify(sess *models.Session) {
	s.mu.RLock()
	subs := make([]func(*models.Session), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(sess)
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The
// backend remains the authority; this only avoids a round trip for a token
// that is already known to be stale.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

func detailOf(err error) string {
	var d apperr.Detailer
	if errors.As(err, &d) {
		return d.ErrorDetail()
	}
	return ""
}
