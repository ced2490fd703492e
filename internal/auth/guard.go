// Package auth resolves the current identity and mints bearer credentials
// for outbound requests.
//
// The Guard holds no in-memory session cache: every Token() call re-reads
// the session file and re-validates the access token, refreshing it through
// the identity provider when expired. Sign-out deletes the file, so a
// credential can never outlive the session it belongs to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/supabase"
)

// expiryLeeway treats tokens this close to expiry as already expired, so a
// credential minted here stays valid for the request it authorizes.
const expiryLeeway = 30 * time.Second

// Guard resolves the current authenticated identity and produces bearer
// credentials on demand.
type Guard struct {
	client *supabase.Client
	store  *stateStore
	logger log.Logger
}

// NewGuard creates a Guard persisting session state under stateDir.
func NewGuard(client *supabase.Client, stateDir string, logger log.Logger) *Guard {
	return &Guard{
		client: client,
		store:  newStateStore(stateDir),
		logger: logger,
	}
}

// SignUp registers a new user. No local session is established; projects
// with email confirmation enabled require a sign-in afterwards.
func (g *Guard) SignUp(ctx context.Context, email, password string) (*supabase.Session, error) {
	return g.client.SignUp(ctx, email, password)
}

// SignIn establishes a session and persists it locally.
func (g *Guard) SignIn(ctx context.Context, email, password string) (*supabase.User, error) {
	sess, err := g.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	st := &state{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		UserID:       sess.User.ID,
		Email:        sess.User.Email,
	}
	if err := g.store.save(st); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	g.logger.Info("signed in", "user_id", sess.User.ID)
	return &sess.User, nil
}

// UserID returns the stable identifier of the current user, or
// ErrUnauthenticated when no session exists.
func (g *Guard) UserID(ctx context.Context) (string, error) {
	st, err := g.store.load()
	if err != nil {
		return "", err
	}
	return st.UserID, nil
}

// Email returns the signed-in user's email for display purposes.
func (g *Guard) Email(ctx context.Context) (string, error) {
	st, err := g.store.load()
	if err != nil {
		return "", err
	}
	return st.Email, nil
}

// Token returns a bearer credential valid at call time.
//
// The session file is re-read on every call. An unexpired access token is
// returned as-is; an expired one is renewed through the refresh-token
// grant and the renewed session persisted. If renewal fails the local
// session is destroyed and ErrUnauthenticated returned, forcing a fresh
// sign-in rather than repeated doomed refresh attempts.
func (g *Guard) Token(ctx context.Context) (string, error) {
	st, err := g.store.load()
	if err != nil {
		return "", err
	}

	if !tokenExpired(st.AccessToken, time.Now()) {
		return st.AccessToken, nil
	}

	if st.RefreshToken == "" {
		_ = g.store.clear()
		return "", fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	sess, err := g.client.RefreshSession(ctx, st.RefreshToken)
	if err != nil {
		g.logger.Warn("session refresh failed", "error", err)
		_ = g.store.clear()
		return "", fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	st.AccessToken = sess.AccessToken
	if sess.RefreshToken != "" {
		st.RefreshToken = sess.RefreshToken
	}
	if err := g.store.save(st); err != nil {
		// The renewed token is still valid for this call even if
		// persisting it failed.
		g.logger.Warn("failed to persist refreshed session", "error", err)
	}

	g.logger.Debug("access token refreshed", "user_id", st.UserID)
	return st.AccessToken, nil
}

// SignOut revokes the provider session (best effort) and always clears
// local state.
func (g *Guard) SignOut(ctx context.Context) error {
	st, err := g.store.load()
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil // nothing to sign out of
		}
		return err
	}

	if err := g.client.SignOut(ctx, st.AccessToken); err != nil {
		// Local state is cleared regardless; the provider token will
		// expire on its own.
		g.logger.Warn("provider sign-out failed", "error", err)
	}

	if err := g.store.clear(); err != nil {
		return err
	}
	g.logger.Info("signed out", "user_id", st.UserID)
	return nil
}

// tokenExpired reports whether the access token's exp claim has passed
// (with leeway). The signature is not verified here: the token was issued
// by the provider over TLS and is only inspected to decide between reuse
// and refresh. Tokens without a readable exp claim are treated as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return now.Add(expiryLeeway).After(exp.Time)
}
