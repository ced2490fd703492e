// Package docs tracks the current user's uploaded documents and pushes new
// ones through the backend's ingestion endpoint.
//
// The Registry is the query pipeline's precondition: asking a question
// only makes sense once at least one document is listed.
package docs

import (
	"context"
	"fmt"
	"sync"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/supabase"
)

// Credentials resolves the current identity and mints bearer tokens.
// Implemented by auth.Guard.
type Credentials interface {
	UserID(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
}

// RowSource queries the metadata store for document rows owned by a user.
// Implemented by supabase.Client.
type RowSource interface {
	DocumentRows(ctx context.Context, token, ownerID string) ([]supabase.DocumentRow, error)
}

// Document is one distinct uploaded source, display-ready.
type Document struct {
	Name string
	URL  string
}

// Registry holds the deduplicated list of the current user's documents.
// Refresh replaces the list wholesale; readers always see the result of
// the last successful refresh.
type Registry struct {
	rows   RowSource
	creds  Credentials
	logger log.Logger

	mu   sync.RWMutex
	docs []Document
}

// NewRegistry creates an empty registry.
func NewRegistry(rows RowSource, creds Credentials, logger log.Logger) *Registry {
	return &Registry{
		rows:   rows,
		creds:  creds,
		logger: logger,
	}
}

// Refresh queries the metadata store for the current user's rows and
// rebuilds the document list. On any failure the previous list is left
// untouched, so a transient listing error never spuriously trips the
// query pipeline's precondition.
func (r *Registry) Refresh(ctx context.Context) error {
	ownerID, err := r.creds.UserID(ctx)
	if err != nil {
		return err
	}
	token, err := r.creds.Token(ctx)
	if err != nil {
		return err
	}

	rows, err := r.rows.DocumentRows(ctx, token, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	docs := foldRows(rows)

	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()

	r.logger.Debug("document registry refreshed", "count", len(docs))
	return nil
}

// List returns the current documents in first-seen order from the last
// successful refresh. The returned slice is a copy.
func (r *Registry) List() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Empty reports whether no documents are known.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs) == 0
}

// foldRows builds the display list from raw store rows: one entry per
// distinct source name, keeping the first URL seen. The store holds one
// row per ingested chunk, so the same source appears many times.
func foldRows(rows []supabase.DocumentRow) []Document {
	seen := make(map[string]struct{}, len(rows))
	docs := make([]Document, 0, len(rows))

	for _, row := range rows {
		name := row.Metadata.Source
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		docs = append(docs, Document{Name: name, URL: row.Metadata.FileURL})
	}

	return docs
}
