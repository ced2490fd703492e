package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/chat"
	"github.com/docsage/docsage/internal/tui"
)

var askPlain bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question against your documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print the raw answer without terminal styling")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt.refreshRegistry(ctx)

	question := strings.Join(args, " ")
	result := rt.service.Ask(ctx, question)

	switch result.Kind {
	case chat.KindAnswered:
		if askPlain {
			fmt.Println(result.Answer)
		} else {
			fmt.Println(tui.RenderMarkdown(result.Answer))
		}
		if len(result.Sources) > 0 {
			fmt.Printf("\nSources: %s\n", strings.Join(result.Sources, ", "))
		}
		return nil

	case chat.KindNoDocuments:
		// A warning, not an error: nothing uploaded yet
		fmt.Fprintln(os.Stderr, result.Answer)
		return nil

	default:
		return errors.New(result.Answer)
	}
}
