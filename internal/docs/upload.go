package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/docsage/docsage/internal/auth"
	"github.com/docsage/docsage/internal/log"
)

// Status describes the upload pipeline's user-visible state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// UploadBackend pushes a document through the backend's ingestion endpoint.
// Implemented by backend.Client.
type UploadBackend interface {
	Upload(ctx context.Context, token, ownerID, filename string, content io.Reader) error
}

// Uploader validates a local file selection, obtains a credential, submits
// the file, and refreshes the registry on success.
//
// The selection survives a failed submit so the user can retry without
// re-selecting; a successful submit clears it.
type Uploader struct {
	creds    Credentials
	backend  UploadBackend
	registry *Registry
	logger   log.Logger

	mu       sync.Mutex
	selected string
	status   Status
	message  string
}

// NewUploader creates an idle uploader.
func NewUploader(creds Credentials, backend UploadBackend, registry *Registry, logger log.Logger) *Uploader {
	return &Uploader{
		creds:    creds,
		backend:  backend,
		registry: registry,
		logger:   logger,
		status:   StatusIdle,
	}
}

// Select records the local file to upload next.
func (u *Uploader) Select(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selected = path
}

// Selected returns the currently selected file path, empty if none.
func (u *Uploader) Selected() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selected
}

// State returns the current status and its user-facing message.
func (u *Uploader) State() (Status, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status, u.message
}

// Submit uploads the selected file.
//
// Fail-fast paths make no network call: no selection, an unobtainable
// credential, or an unreadable local file. Backend failures leave the
// selection intact; success clears it and triggers a registry refresh.
func (u *Uploader) Submit(ctx context.Context) error {
	path := u.Selected()
	if path == "" {
		u.setState(StatusError, "Please select a file first")
		return ErrNoFileSelected
	}

	u.setState(StatusUploading, "Uploading...")

	token, err := u.creds.Token(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			u.setState(StatusError, "User not authenticated. Please log in again.")
		} else {
			u.setState(StatusError, "Error uploading file")
		}
		return err
	}
	ownerID, err := u.creds.UserID(ctx)
	if err != nil {
		u.setState(StatusError, "User not authenticated. Please log in again.")
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		u.setState(StatusError, fmt.Sprintf("Cannot read %s", filepath.Base(path)))
		return fmt.Errorf("opening selected file: %w", err)
	}
	defer file.Close()

	if err := u.backend.Upload(ctx, token, ownerID, filepath.Base(path), file); err != nil {
		u.logger.Warn("upload failed", "path", path, "error", err)
		u.setState(StatusError, "Error uploading file")
		return err
	}

	u.mu.Lock()
	u.selected = ""
	u.status = StatusSuccess
	u.message = "File uploaded & embedded successfully"
	u.mu.Unlock()

	// Refresh so the new document shows up; a listing hiccup here does
	// not turn a completed upload into a failure.
	if err := u.registry.Refresh(ctx); err != nil {
		u.logger.Warn("registry refresh after upload failed", "error", err)
	}

	return nil
}

func (u *Uploader) setState(status Status, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
	u.message = message
}
