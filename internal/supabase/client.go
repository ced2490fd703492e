// Package supabase is a lightweight client for the two Supabase surfaces
// docsage consumes: GoTrue auth (sign-up, password sign-in, token refresh,
// current user, sign-out) and the PostgREST documents table.
//
// Only the endpoints the application actually calls are implemented; this
// is not a general Supabase SDK.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/docsage/docsage/internal/log"
)

// Client calls a single Supabase project identified by its base URL and
// anonymous API key. The anon key authenticates the project; per-user
// authorization is carried by the bearer token on each call.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a new Supabase client.
func New(baseURL, anonKey string, logger log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("supabase base URL is required")
	}
	if anonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}

	return &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// SignUp registers a new user with email and password.
//
// Depending on project settings GoTrue may require email confirmation, in
// which case the returned session carries no access token and the caller
// should tell the user to check their inbox.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	req := credentialsRequest{Email: email, Password: password}

	var resp tokenResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.baseURL+"/auth/v1/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	req := credentialsRequest{Email: email, Password: password}

	var resp tokenResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=password", "", req, &resp); err != nil {
		return nil, err
	}

	sess := resp.session()
	if sess.AccessToken == "" {
		return nil, fmt.Errorf("sign-in response carried no access token")
	}
	return sess, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	req := refreshRequest{RefreshToken: refreshToken}

	var resp tokenResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=refresh_token", "", req, &resp); err != nil {
		return nil, err
	}

	sess := resp.session()
	if sess.AccessToken == "" {
		return nil, fmt.Errorf("refresh response carried no access token")
	}
	return sess, nil
}

// User returns the identity behind an access token.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.makeRequest(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind an access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.makeRequest(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", accessToken, nil, nil)
}

// DocumentRows queries the documents table for all rows owned by ownerID,
// selecting only the metadata column. Row-level security on the table is
// enforced by the bearer token.
func (c *Client) DocumentRows(ctx context.Context, accessToken, ownerID string) ([]DocumentRow, error) {
	q := url.Values{}
	q.Set("select", "metadata")
	q.Set("user_id", "eq."+ownerID)
	endpoint := c.baseURL + "/rest/v1/documents?" + q.Encode()

	var rows []DocumentRow
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, accessToken, nil, &rows); err != nil {
		return nil, err
	}

	c.logger.Debug("document rows fetched", "owner_id", ownerID, "count", len(rows))
	return rows, nil
}

// makeRequest is a helper to call the Supabase REST surfaces.
//
// The anon key is always attached; accessToken, when non-empty, is sent as
// the bearer credential. Non-2xx responses are mapped to *APIError with the
// provider's message extracted from the body.
func (c *Client) makeRequest(ctx context.Context, method, endpoint, accessToken string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		// GoTrue expects a bearer header even for anonymous calls
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
