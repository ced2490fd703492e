package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List your uploaded documents",
	RunE:  runDocs,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for question answering",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(uploadCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	if err := rt.registry.Refresh(context.Background()); err != nil {
		return err
	}

	list := rt.registry.List()
	if len(list) == 0 {
		fmt.Println("No documents uploaded yet.")
		return nil
	}

	for _, doc := range list {
		if doc.URL != "" {
			fmt.Printf("%s\t%s\n", doc.Name, doc.URL)
		} else {
			fmt.Println(doc.Name)
		}
	}
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	rt.uploader.Select(args[0])
	if err := rt.uploader.Submit(context.Background()); err != nil {
		_, message := rt.uploader.State()
		return errors.New(message)
	}

	_, message := rt.uploader.State()
	fmt.Println(message)
	return nil
}
