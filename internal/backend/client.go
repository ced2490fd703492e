// Package backend is the client for the retrieval backend: one multipart
// upload endpoint and one JSON query endpoint.
//
// The query endpoint's loose response shape is normalized at this boundary
// into a tagged contract: an answered result, a *SoftError the backend
// reported deliberately, or ErrMalformedResponse for anything that matches
// neither shape. Transport and HTTP-status failures are reported as errors
// with any structured backend message preserved (*HTTPError).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/docsage/docsage/internal/log"
)

// Client calls the retrieval backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a new backend client.
func New(baseURL string, logger log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Upload sends a document to the backend for ingestion. Size and type
// limits are the backend's to enforce; its refusal message is surfaced
// through the returned error.
func (c *Client) Upload(ctx context.Context, token, ownerID, filename string, content io.Reader) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("reading file content: %w", err)
	}
	if err := writer.WriteField("user_id", ownerID); err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, respBody)
	}

	c.logger.Info("document uploaded", "filename", filename, "owner_id", ownerID)
	return nil
}

// Query asks the backend a question and returns the normalized result.
//
// A deliberate backend refusal (the soft-error body) comes back as a
// *SoftError so callers can show its message verbatim instead of treating
// it as a transport failure.
func (c *Client) Query(ctx context.Context, token, question string, topK int) (*QueryResult, error) {
	reqBody, err := json.Marshal(queryRequest{Query: question, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(resp.StatusCode, respBody)
	}

	var envelope queryEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if msg, soft := envelope.softError(); soft {
		return nil, &SoftError{Message: msg}
	}

	if !envelope.answered() {
		return nil, fmt.Errorf("%w: body carries neither answer nor error", ErrMalformedResponse)
	}

	c.logger.Debug("query answered",
		"question_length", len(question),
		"reference_count", len(envelope.References))

	return &QueryResult{
		Answer:     *envelope.Answer,
		References: envelope.References,
	}, nil
}
