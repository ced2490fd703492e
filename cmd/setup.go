package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsage/docsage/internal/auth"
	"github.com/docsage/docsage/internal/backend"
	"github.com/docsage/docsage/internal/chat"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/docs"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/supabase"
)

// runtime wires the pipelines to their collaborators. Built fresh per
// command invocation; nothing outlives the process except the session file.
type runtime struct {
	cfg      *config.Config
	logger   log.Logger
	identity *supabase.Client
	guard    *auth.Guard
	registry *docs.Registry
	uploader *docs.Uploader
	service  *chat.Service
}

// newRuntime loads configuration and builds the component graph.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.Default()

	identity, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, logger.With("component", "supabase"))
	if err != nil {
		return nil, err
	}

	rag, err := backend.New(cfg.BackendURL, logger.With("component", "backend"))
	if err != nil {
		return nil, err
	}

	guard := auth.NewGuard(identity, cfg.StateDir, logger.With("component", "auth"))
	registry := docs.NewRegistry(identity, guard, logger.With("component", "registry"))
	uploader := docs.NewUploader(guard, rag, registry, logger.With("component", "upload"))
	service := chat.NewService(guard, rag, registry, chat.NewHistory(), cfg.TopK, logger.With("component", "chat"))

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		identity: identity,
		guard:    guard,
		registry: registry,
		uploader: uploader,
		service:  service,
	}, nil
}

// refreshRegistry populates the document list after identity resolution.
// Best effort: a listing failure keeps the last-known-good (empty at
// startup) list rather than aborting the command.
func (rt *runtime) refreshRegistry(ctx context.Context) {
	if err := rt.registry.Refresh(ctx); err != nil {
		rt.logger.Warn("could not refresh document list", "error", err)
	}
}
