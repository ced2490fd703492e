package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat screen",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resolve identity up front so the user lands in a signed-in screen
	// with their document list already populated.
	if _, err := rt.guard.UserID(ctx); err != nil {
		return fmt.Errorf("not signed in; run `docsage login` first")
	}
	rt.refreshRegistry(ctx)

	model := tui.New(ctx, rt.service, rt.registry, rt.uploader)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat screen exited: %w", err)
	}
	return nil
}
