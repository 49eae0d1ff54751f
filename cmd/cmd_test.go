package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42", "activity id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(raw, "activity id")
		assert.True(t, apperr.IsValidation(err), raw)
	}
}

func TestCoordinateFlags(t *testing.T) {
	parse := func(args ...string) (*models.Coordinate, error) {
		c := &cobra.Command{Use: "x"}
		addCoordinateFlags(c, "point")
		require.NoError(t, c.Flags().Parse(args))
		return coordinateFlags(c)
	}

	loc, err := parse()
	require.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = parse("--lat", "44.5", "--lng", "26.1")
	require.NoError(t, err)
	assert.Equal(t, &models.Coordinate{Latitude: 44.5, Longitude: 26.1}, loc)

	_, err = parse("--lat", "44.5")
	assert.True(t, apperr.IsValidation(err))

	_, err = parse("--lat", "91", "--lng", "0")
	assert.True(t, apperr.IsValidation(err))
}

func fakeBackend(t *testing.T) string {
	t.Helper()
	user := models.User{ID: 7, Name: "Ana", Email: "ana@example.com", VisibilityRadiusKm: 10}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, models.AuthResponse{AccessToken: "cli-token", TokenType: "bearer", User: user})
	})
	r.Get("/api/users/me", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer cli-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, user)
	})
	r.Get("/api/activities/nearby", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []models.Activity{{ID: 3, Title: "Morning run", Category: models.CategorySport, Latitude: 44.43, Longitude: 26.1}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeConfig(t *testing.T, baseURL string, sessionLines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("api:\n  base_url: %s\nsession:\n  token_file: %s\n", baseURL, filepath.Join(dir, "session.json"))
	for _, line := range sessionLines {
		content += "  " + line + "\n"
	}
	content += "log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestLoginThenNearby(t *testing.T) {
	cfgPath := writeConfig(t, fakeBackend(t))

	out, _, err := execute("--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ana")

	out, _, err = execute("--config", cfgPath, "nearby", "--lat", "44.4268", "--lng", "26.1025", "--radius", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "1 activities within 10.0 km")
	assert.Contains(t, out, "Morning run")

	out, _, err = execute("--config", cfgPath, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
}

func TestCommandsNeedLogin(t *testing.T) {
	cfgPath := writeConfig(t, fakeBackend(t))

	_, errOut, err := execute("--config", cfgPath, "whoami")
	require.Error(t, err)
	assert.Contains(t, errOut, "Not logged in")
}

func TestDiscardPolicyForgetsStoredSession(t *testing.T) {
	cfgPath := writeConfig(t, fakeBackend(t))

	_, _, err := execute("--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, _, err = execute("--config", cfgPath, "--session-policy", "discard", "whoami")
	require.Error(t, err)

	_, _, err = execute("--config", cfgPath, "whoami")
	assert.Error(t, err, "the discarded credential is gone for good")
}

func TestConfiguredPolicyAppliesWithoutFlag(t *testing.T) {
	t.Setenv("SOCIALEXPLORE_SESSION_POLICY", "")
	cfgPath := writeConfig(t, fakeBackend(t), "startup_policy: discard")

	_, _, err := execute("--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, errOut, err := execute("--config", cfgPath, "whoami")
	require.Error(t, err, "the file asks to discard stored sessions")
	assert.Contains(t, errOut, "Not logged in")
}

func TestPolicyFlagOverridesConfig(t *testing.T) {
	t.Setenv("SOCIALEXPLORE_SESSION_POLICY", "discard")
	cfgPath := writeConfig(t, fakeBackend(t))

	_, _, err := execute("--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, _, err := execute("--config", cfgPath, "--session-policy", "restore", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana <ana@example.com>")
}
