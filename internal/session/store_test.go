package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/config"
	"social-explore-client/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fakeBackend struct {
	validToken string
	meCalls    atomic.Int32
	meStatus   atomic.Int32
}

func (b *fakeBackend) router(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, r.Header.Get("Authorization"))
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Email sau parolă incorectă"}`))
			return
		}
		writeJSON(w, models.AuthResponse{
			AccessToken: b.validToken,
			TokenType:   "bearer",
			User:        models.User{ID: 7, Name: "Ana", Email: body["email"]},
		})
	})
	r.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	})
	r.Get("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		b.meCalls.Add(1)
		if status := b.meStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.User{ID: 7, Name: "Ana Maria", Email: "ana@example.com"})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, policy string, tokens TokenStore) (*Store, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{validToken: signToken(t, "ana@example.com", time.Now().Add(time.Hour))}
	srv := httptest.NewServer(backend.router(t))
	t.Cleanup(srv.Close)
	return NewStore(srv.URL, tokens, policy), backend
}

func TestLogin_InstallsIdentityAndCredentialTogether(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, backend := newTestStore(t, config.PolicyDiscard, tokens)

	var notified []*models.Session
	store.Subscribe(func(s *models.Session) { notified = append(notified, s) })

	sess, err := store.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "Ana", sess.DisplayName)
	require.NotNil(t, sess.ExpiresAt)

	assert.Equal(t, backend.validToken, store.Token())
	assert.Equal(t, backend.validToken, store.Client().Token())
	require.Len(t, notified, 1)
	assert.Equal(t, backend.validToken, notified[0].Token)

	stored, err := tokens.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, backend.validToken, stored.Token)
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	store, backend := newTestStore(t, config.PolicyDiscard, nil)
	ctx := context.Background()

	_, err := store.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = store.Login(ctx, "ana@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Equal(t, "Email sau parolă incorectă", apperr.UserMessage(err, "login failed"))

	assert.Equal(t, backend.validToken, store.Token())
	assert.Equal(t, "Ana", store.Current().DisplayName)
}

func TestRegister_SurfacesBackendDetail(t *testing.T) {
	store, _ := newTestStore(t, config.PolicyDiscard, nil)

	_, err := store.Register(context.Background(), "Ana", "ana@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))
	assert.Equal(t, "Email already registered", apperr.UserMessage(err, "register failed"))
	assert.Nil(t, store.Current())
}

func TestRefresh_RejectedCredentialKeepsSession(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, backend := newTestStore(t, config.PolicyDiscard, tokens)
	ctx := context.Background()

	_, err := store.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	backend.meStatus.Store(http.StatusUnauthorized)
	_, err = store.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	assert.NotNil(t, store.Current())
	stored, _ := tokens.Load()
	assert.NotNil(t, stored)
}

func TestRefresh_UpdatesDisplayName(t *testing.T) {
	store, _ := newTestStore(t, config.PolicyDiscard, nil)
	ctx := context.Background()

	_, err := store.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	user, err := store.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", user.Name)
	assert.Equal(t, "Ana Maria", store.Current().DisplayName)
	assert.Equal(t, "Ana Maria", store.User().Name)
}

func TestValidate_RejectedCredentialEvicts(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, backend := newTestStore(t, config.PolicyDiscard, tokens)
	ctx := context.Background()

	_, err := store.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	var last *models.Session = &models.Session{}
	store.Subscribe(func(s *models.Session) { last = s })

	backend.meStatus.Store(http.StatusUnauthorized)
	err = store.Validate(ctx)
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))

	assert.Nil(t, store.Current())
	assert.Equal(t, "", store.Token())
	assert.Nil(t, last)
	stored, _ := tokens.Load()
	assert.Nil(t, stored)
}

func TestValidate_ExpiredTokenEvictsWithoutRequest(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, backend := newTestStore(t, config.PolicyRestore, tokens)
	expired := signToken(t, "ana@example.com", time.Now().Add(-time.Minute))
	require.NoError(t, tokens.Save(&StoredSession{Token: expired, UserID: 7}))

	require.NoError(t, store.Init(context.Background()))

	assert.Nil(t, store.Current())
	assert.Equal(t, int32(0), backend.meCalls.Load())
}

func TestInit_DiscardPolicyDropsStoredToken(t *testing.T) {
	tokens := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	store, backend := newTestStore(t, config.PolicyDiscard, tokens)
	require.NoError(t, tokens.Save(&StoredSession{Token: backend.validToken, UserID: 7}))

	require.NoError(t, store.Init(context.Background()))

	assert.Nil(t, store.Current())
	assert.Equal(t, int32(0), backend.meCalls.Load())
	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestInit_RestorePolicyValidatesStoredToken(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, backend := newTestStore(t, config.PolicyRestore, tokens)
	require.NoError(t, tokens.Save(&StoredSession{Token: backend.validToken, UserID: 7, DisplayName: "Ana"}))

	require.NoError(t, store.Init(context.Background()))

	require.NotNil(t, store.Current())
	assert.Equal(t, "Ana Maria", store.Current().DisplayName)
	assert.Equal(t, int32(1), backend.meCalls.Load())
}

func TestLogout_ClearsEverything(t *testing.T) {
	tokens := NewMemoryTokenStore()
	store, _ := newTestStore(t, config.PolicyDiscard, tokens)

	_, err := store.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	store.Logout()
	assert.Nil(t, store.Current())
	assert.Nil(t, store.User())
	assert.Equal(t, "", store.Client().Token())
	stored, _ := tokens.Load()
	assert.Nil(t, stored)

	_, err = store.Refresh(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestRegistrationValidate(t *testing.T) {
	base := Registration{Name: "Ana", Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	assert.NoError(t, base.Validate())

	mismatch := base
	mismatch.ConfirmPassword = "secret2"
	assert.True(t, apperr.IsValidation(mismatch.Validate()))
	assert.Equal(t, "passwords do not match", apperr.UserMessage(mismatch.Validate(), ""))

	short := base
	short.Password, short.ConfirmPassword = "abc", "abc"
	assert.Equal(t, "password must be at least 6 characters", apperr.UserMessage(short.Validate(), ""))

	blank := base
	blank.Name = "   "
	assert.Equal(t, "name is required", apperr.UserMessage(blank.Validate(), ""))

	badEmail := base
	badEmail.Email = "ana-at-example"
	assert.Equal(t, "email is not a valid email address", apperr.UserMessage(badEmail.Validate(), ""))

	both := base
	both.Password, both.ConfirmPassword = "abc", "abd"
	assert.Equal(t, "passwords do not match", apperr.UserMessage(both.Validate(), ""), "mismatch is reported before length")
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	fs := NewFileTokenStore(path)

	stored, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, fs.Save(&StoredSession{Token: "abc", UserID: 3}))
	stored, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Token)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
}
