package supabase

import (
	"encoding/json"
	"fmt"
)

// User is the identity behind a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a sign-up, sign-in, or refresh call.
// AccessToken is empty after sign-up when the project requires email
// confirmation before the first sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         User
}

// DocumentRow is one row of the documents table, projected to metadata.
type DocumentRow struct {
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata carries the fields the ingestion pipeline writes per chunk.
type DocumentMetadata struct {
	Source  string `json:"source"`
	FileURL string `json:"file_url"`
}

// credentialsRequest is the body for sign-up and password sign-in.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the body for the refresh-token grant.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse covers both token grants and sign-up. GoTrue nests the user
// under "user" for token grants but returns the user object at the top level
// for sign-up, so both shapes are accepted.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`

	// Top-level user fields (sign-up shape)
	ID    string `json:"id"`
	Email string `json:"email"`
}

// session normalizes the two response shapes into one Session value.
func (r *tokenResponse) session() *Session {
	sess := &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
	if r.User != nil {
		sess.User = *r.User
	} else {
		sess.User = User{ID: r.ID, Email: r.Email}
	}
	return sess
}

// APIError is a non-2xx response from a Supabase surface.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase error (status %d)", e.Status)
	}
	return fmt.Sprintf("supabase error (status %d): %s", e.Status, e.Message)
}

// newAPIError extracts the human-readable message from an error body.
// GoTrue uses several field names across endpoints and versions; the first
// non-empty one wins. Unparseable bodies degrade to status-only errors.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorText        string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: status}
	}

	for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.ErrorText} {
		if msg != "" {
			return &APIError{Status: status, Message: msg}
		}
	}
	return &APIError{Status: status}
}
