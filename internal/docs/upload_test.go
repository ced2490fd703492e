package docs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/auth"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/supabase"
)

type fakeBackend struct {
	err   error
	calls int

	gotToken    string
	gotOwnerID  string
	gotFilename string
	gotContent  []byte
}

func (f *fakeBackend) Upload(ctx context.Context, token, ownerID, filename string, content io.Reader) error {
	f.calls++
	f.gotToken = token
	f.gotOwnerID = ownerID
	f.gotFilename = filename
	f.gotContent, _ = io.ReadAll(content)
	return f.err
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestUploader(creds *fakeCreds, be *fakeBackend, rows *fakeRows) (*Uploader, *Registry) {
	registry := NewRegistry(rows, creds, log.NewNop())
	return NewUploader(creds, be, registry, log.NewNop()), registry
}

func TestUploader_Submit_NoFileSelected(t *testing.T) {
	creds := &fakeCreds{userID: "owner", token: "tok"}
	be := &fakeBackend{}
	u, _ := newTestUploader(creds, be, &fakeRows{})

	err := u.Submit(context.Background())

	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Zero(t, creds.tokenCalls, "no credential resolution without a selection")
	assert.Zero(t, be.calls, "no network call without a selection")

	status, message := u.State()
	assert.Equal(t, StatusError, status)
	assert.Equal(t, "Please select a file first", message)
}

func TestUploader_Submit_NotAuthenticated(t *testing.T) {
	creds := &fakeCreds{tokenErr: auth.ErrUnauthenticated}
	be := &fakeBackend{}
	u, _ := newTestUploader(creds, be, &fakeRows{})

	u.Select(writeTempFile(t, "doc.pdf", "content"))
	err := u.Submit(context.Background())

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Zero(t, be.calls, "no network call without a credential")

	status, message := u.State()
	assert.Equal(t, StatusError, status)
	assert.Equal(t, "User not authenticated. Please log in again.", message)
}

func TestUploader_Submit_Success(t *testing.T) {
	creds := &fakeCreds{userID: "owner-1", token: "tok-xyz"}
	be := &fakeBackend{}
	rows := &fakeRows{rows: []supabase.DocumentRow{row("doc.pdf", "https://store/doc")}}
	u, registry := newTestUploader(creds, be, rows)

	path := writeTempFile(t, "doc.pdf", "hello world")
	u.Select(path)
	require.NoError(t, u.Submit(context.Background()))

	assert.Equal(t, "tok-xyz", be.gotToken)
	assert.Equal(t, "owner-1", be.gotOwnerID)
	assert.Equal(t, "doc.pdf", be.gotFilename, "backend receives the basename, not the path")
	assert.Equal(t, []byte("hello world"), be.gotContent)

	status, message := u.State()
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, "File uploaded & embedded successfully", message)
	assert.Empty(t, u.Selected(), "selection is cleared after success")

	// Success triggers a registry refresh
	assert.Equal(t, 1, rows.calls)
	assert.False(t, registry.Empty())
}

func TestUploader_Submit_BackendFailureKeepsSelection(t *testing.T) {
	creds := &fakeCreds{userID: "owner-1", token: "tok"}
	be := &fakeBackend{err: errors.New("status 500")}
	rows := &fakeRows{}
	u, _ := newTestUploader(creds, be, rows)

	path := writeTempFile(t, "doc.pdf", "content")
	u.Select(path)
	err := u.Submit(context.Background())

	require.Error(t, err)
	status, message := u.State()
	assert.Equal(t, StatusError, status)
	assert.Equal(t, "Error uploading file", message)
	assert.Equal(t, path, u.Selected(), "selection survives a failed upload for retry")
	assert.Zero(t, rows.calls, "no registry refresh after a failed upload")
}

func TestUploader_Submit_UnreadableFile(t *testing.T) {
	creds := &fakeCreds{userID: "owner-1", token: "tok"}
	be := &fakeBackend{}
	u, _ := newTestUploader(creds, be, &fakeRows{})

	u.Select(filepath.Join(t.TempDir(), "missing.pdf"))
	err := u.Submit(context.Background())

	require.Error(t, err)
	assert.Zero(t, be.calls, "unreadable local file must not reach the network")

	status, _ := u.State()
	assert.Equal(t, StatusError, status)
}

func TestUploader_Submit_RefreshFailureDoesNotFailUpload(t *testing.T) {
	creds := &fakeCreds{userID: "owner-1", token: "tok"}
	be := &fakeBackend{}
	rows := &fakeRows{err: errors.New("store down")}
	u, _ := newTestUploader(creds, be, rows)

	u.Select(writeTempFile(t, "doc.pdf", "content"))
	require.NoError(t, u.Submit(context.Background()), "a listing hiccup must not fail a completed upload")

	status, _ := u.State()
	assert.Equal(t, StatusSuccess, status)
}

func TestUploader_InitialState(t *testing.T) {
	u, _ := newTestUploader(&fakeCreds{}, &fakeBackend{}, &fakeRows{})
	status, message := u.State()
	assert.Equal(t, StatusIdle, status)
	assert.Empty(t, message)
	assert.Empty(t, u.Selected())
}
