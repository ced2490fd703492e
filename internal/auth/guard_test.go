package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/supabase"
)

const testUserID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

// signedToken mints an HS256 token with the given expiry. The guard never
// verifies signatures, so any signing key works.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": testUserID,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func writeSession(t *testing.T, dir string, st state) {
	t.Helper()
	data, err := json.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFile), data, 0o600))
}

func newTestGuard(t *testing.T, handler http.HandlerFunc) (*Guard, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := supabase.New(server.URL, "anon-key", log.NewNop())
	require.NoError(t, err)

	dir := t.TempDir()
	return NewGuard(client, dir, log.NewNop()), dir
}

func TestGuard_Token_ValidTokenReusedWithoutNetwork(t *testing.T) {
	var calls int
	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	access := signedToken(t, time.Now().Add(time.Hour))
	writeSession(t, dir, state{AccessToken: access, RefreshToken: "rt", UserID: testUserID})

	token, err := guard.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, access, token)
	assert.Zero(t, calls, "an unexpired token must not touch the provider")
}

func TestGuard_Token_ExpiredTokenIsRefreshed(t *testing.T) {
	freshAccess := signedToken(t, time.Now().Add(time.Hour))

	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-old", body["refresh_token"])

		resp := map[string]any{
			"access_token":  freshAccess,
			"refresh_token": "rt-new",
			"expires_in":    3600,
			"user":          map[string]string{"id": testUserID},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	expired := signedToken(t, time.Now().Add(-time.Hour))
	writeSession(t, dir, state{AccessToken: expired, RefreshToken: "rt-old", UserID: testUserID})

	token, err := guard.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, freshAccess, token)

	// The renewed session is persisted for the next call
	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	require.NoError(t, err)
	var st state
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, freshAccess, st.AccessToken)
	assert.Equal(t, "rt-new", st.RefreshToken)
	assert.Equal(t, testUserID, st.UserID, "identity survives the refresh")
}

func TestGuard_Token_NearExpiryCountsAsExpired(t *testing.T) {
	freshAccess := signedToken(t, time.Now().Add(time.Hour))
	var refreshed bool
	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		refreshed = true
		resp := map[string]any{
			"access_token": freshAccess,
			"user":         map[string]string{"id": testUserID},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	// Expires in 10s, inside the leeway window
	nearExpiry := signedToken(t, time.Now().Add(10*time.Second))
	writeSession(t, dir, state{AccessToken: nearExpiry, RefreshToken: "rt", UserID: testUserID})

	token, err := guard.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, freshAccess, token)
	assert.True(t, refreshed)
}

func TestGuard_Token_RefreshFailureDestroysSession(t *testing.T) {
	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error_description": "Invalid Refresh Token: Already Used"}`)
	})

	expired := signedToken(t, time.Now().Add(-time.Hour))
	writeSession(t, dir, state{AccessToken: expired, RefreshToken: "rt-revoked", UserID: testUserID})

	_, err := guard.Token(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.NoFileExists(t, filepath.Join(dir, sessionFile), "a dead session must not linger for repeated refresh attempts")

	_, err = guard.UserID(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuard_Token_ExpiredWithoutRefreshToken(t *testing.T) {
	var calls int
	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	expired := signedToken(t, time.Now().Add(-time.Hour))
	writeSession(t, dir, state{AccessToken: expired, UserID: testUserID})

	_, err := guard.Token(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, calls, "no refresh attempt without a refresh token")
	assert.NoFileExists(t, filepath.Join(dir, sessionFile))
}

func TestGuard_Token_NoSession(t *testing.T) {
	guard, _ := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := guard.Token(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuard_Token_CorruptSessionFile(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"missing access token", `{"user_id": "` + testUserID + `"}`},
		{"missing user id", `{"access_token": "x"}`},
		{"user id not a uuid", `{"access_token": "x", "user_id": "../../etc/passwd"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {})
			require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFile), []byte(tt.data), 0o600))

			_, err := guard.Token(context.Background())
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestGuard_SignIn_PersistsSession(t *testing.T) {
	access := signedToken(t, time.Now().Add(time.Hour))
	guard, _ := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		resp := map[string]any{
			"access_token":  access,
			"refresh_token": "rt-1",
			"user":          map[string]string{"id": testUserID, "email": "user@example.com"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	user, err := guard.SignIn(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, testUserID, user.ID)

	id, err := guard.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testUserID, id)

	email, err := guard.Email(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	token, err := guard.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, access, token)
}

func TestGuard_SignIn_BadCredentials(t *testing.T) {
	guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error_description": "Invalid login credentials"}`)
	})

	_, err := guard.SignIn(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	var apiErr *supabase.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.NoFileExists(t, filepath.Join(dir, sessionFile))
}

func TestGuard_SignOut(t *testing.T) {
	t.Run("revokes and clears", func(t *testing.T) {
		var revoked bool
		guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
			revoked = true
			assert.Equal(t, "/auth/v1/logout", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		access := signedToken(t, time.Now().Add(time.Hour))
		writeSession(t, dir, state{AccessToken: access, RefreshToken: "rt", UserID: testUserID})

		require.NoError(t, guard.SignOut(context.Background()))
		assert.True(t, revoked)
		assert.NoFileExists(t, filepath.Join(dir, sessionFile))
	})

	t.Run("clears locally even when the provider call fails", func(t *testing.T) {
		guard, dir := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		access := signedToken(t, time.Now().Add(time.Hour))
		writeSession(t, dir, state{AccessToken: access, UserID: testUserID})

		require.NoError(t, guard.SignOut(context.Background()))
		assert.NoFileExists(t, filepath.Join(dir, sessionFile))
	})

	t.Run("nil when not signed in", func(t *testing.T) {
		guard, _ := newTestGuard(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no provider call expected")
		})
		assert.NoError(t, guard.SignOut(context.Background()))
	})
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid for an hour", signedToken(t, now.Add(time.Hour)), false},
		{"expired an hour ago", signedToken(t, now.Add(-time.Hour)), true},
		{"inside the leeway window", signedToken(t, now.Add(5*time.Second)), true},
		{"not a jwt", "opaque-token", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenExpired(tt.token, now))
		})
	}
}

func TestTokenExpired_NoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": testUserID})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	assert.True(t, tokenExpired(signed, time.Now()), "tokens without a readable expiry are not reused")
}
