package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestoreWithoutStoredSession(t *testing.T) {
	c := New("http://unused", NewMemoryStore())

	_, err := c.Restore(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRestoreReturnsCachedSessionWithoutNetwork(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{
		User:         User{Email: "alice@example.com"},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))

	c := New(ts.URL, store)
	session, err := c.Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", session.User.Email)
	require.Zero(t, hits)
}

func TestRestoreFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	c := New("http://unused", NewFileStore(path))

	_, err := c.Restore(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestConfirmRefreshesCachedProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": "u1", "email": "alice@example.com", "name": "Alice Lim", "role": "admin"},
		})
	}))
	defer ts.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{
		User:         User{ID: "u1", Email: "alice@example.com", Role: "customer"},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))

	c := New(ts.URL, store)
	user, err := c.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, "admin", user.Role)

	// The stored profile caught up with the server, tokens untouched.
	session, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "admin", session.User.Role)
	require.Equal(t, "Alice Lim", session.User.Name)
	require.Equal(t, "access", session.AccessToken)
}

func TestConfirmExpiredSessionLogsOut(t *testing.T) {
	// Every request is rejected, including the refresh attempt.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "invalid token"})
	}))
	defer ts.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{AccessToken: "dead", RefreshToken: "dead"}))

	c := New(ts.URL, store)
	_, err := c.Confirm(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	session, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.Nil(t, session)
}

func TestLogoutAlwaysPurges(t *testing.T) {
	var revoked bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			revoked = true
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{AccessToken: "access", RefreshToken: "refresh"}))

	c := New(ts.URL, store)
	require.NoError(t, c.Logout(context.Background()))
	require.True(t, revoked)

	session, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, session)

	// Even with the server gone, logout still clears local state.
	require.NoError(t, store.Save(&Session{AccessToken: "access", RefreshToken: "refresh"}))
	ts.Close()
	require.NoError(t, c.Logout(context.Background()))

	session, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, session)
}
