package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a 2xx query response that matches neither
// the answered shape nor the soft-error shape.
var ErrMalformedResponse = errors.New("malformed backend response")

// QueryResult is a successfully answered query. Answer is HTML/markdown
// passed through verbatim for rendering.
type QueryResult struct {
	Answer     string
	References []Reference
}

// Reference is one backend-reported source document grounding an answer.
// Source is a path; only its basename is meaningful for display.
type Reference struct {
	Source string `json:"source"`
}

// SoftError is a structurally successful response that signals a semantic
// failure via an explicit flag and message. It is deliberately distinct
// from transport failures: its message is meant for the user as-is.
type SoftError struct {
	Message string
}

func (e *SoftError) Error() string {
	if e.Message == "" {
		return "backend reported an error"
	}
	return e.Message
}

// HTTPError is a non-2xx backend response. Message carries any structured
// message or error field found in the body, empty otherwise.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.Status)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// newHTTPError extracts a display message from an error body when one
// exists. The backend uses both "message" and "error" (a string) depending
// on the failure path.
func newHTTPError(status int, body []byte) *HTTPError {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &HTTPError{Status: status}
	}

	if payload.Message != "" {
		return &HTTPError{Status: status, Message: payload.Message}
	}
	if msg, ok := rawString(payload.Error); ok {
		return &HTTPError{Status: status, Message: msg}
	}
	return &HTTPError{Status: status}
}

// queryRequest is the query endpoint's JSON body.
type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// queryEnvelope accepts both 2xx response shapes. Error is kept raw
// because the backend emits either a boolean flag or a bare error string.
type queryEnvelope struct {
	Error      json.RawMessage `json:"error"`
	Message    string          `json:"message"`
	Answer     *string         `json:"answer"`
	References []Reference     `json:"references"`
}

// softError reports whether the envelope is the soft-error shape, and the
// message to show. Message preference: explicit message field, then the
// error string itself.
func (e *queryEnvelope) softError() (string, bool) {
	if len(e.Error) == 0 || bytes.Equal(e.Error, []byte("null")) || bytes.Equal(e.Error, []byte("false")) {
		return "", false
	}

	if e.Message != "" {
		return e.Message, true
	}
	if msg, ok := rawString(e.Error); ok {
		return msg, true
	}
	return "", true
}

// answered reports whether the envelope carries an answer payload.
func (e *queryEnvelope) answered() bool {
	return e.Answer != nil
}

// rawString decodes a raw JSON value as a non-empty string.
func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
