// Package cmd provides the docsage CLI commands.
//
// Commands:
//   - signup / login / logout / whoami: identity lifecycle
//   - upload: push a document through the backend's ingestion endpoint
//   - docs: list uploaded documents
//   - ask: one-shot question
//   - chat: interactive chat screen (default when run without a subcommand)
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	GitCommit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "docsage",
	Short: "Ask questions against your own documents",
	Long: `docsage uploads your documents to a retrieval backend and lets you ask
natural-language questions against them, with answers grounded in the
documents that were actually used.

Running docsage without a subcommand starts the interactive chat screen.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute is the main entry point for the docsage CLI.
func Execute() error {
	level := slog.LevelWarn
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	// Logs go to stderr; stdout is reserved for answers
	slog.SetDefault(log.New(log.Config{Level: level}))

	return rootCmd.Execute()
}
