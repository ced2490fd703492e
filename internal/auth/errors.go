package auth

import "errors"

// Sentinel errors for session operations. Check with errors.Is().
var (
	// ErrUnauthenticated indicates no valid credential can be produced:
	// there is no local session, or the provider refused to renew it.
	// Callers should prompt the user to sign in again.
	ErrUnauthenticated = errors.New("not signed in")
)
