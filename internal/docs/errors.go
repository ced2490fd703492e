package docs

import "errors"

// Sentinel errors for document operations. Check with errors.Is().
var (
	// ErrNoFileSelected indicates submit was called with no file selected.
	// No network call is made.
	ErrNoFileSelected = errors.New("no file selected")

	// ErrUnavailable indicates the metadata store query failed. The
	// registry keeps its last-known-good list when this happens.
	ErrUnavailable = errors.New("document store unavailable")
)
