package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string
	var documentID string

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a document for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			content, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if strings.TrimSpace(title) == "" {
				title = filepath.Base(sourcePath)
			}

			return ctx.withApp(func(a *app) error {
				id, err := a.manager.Submit(cmd.Context(), documentID, title, sourcePath, content)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s as document %s\n", title, id)
				fmt.Fprintln(cmd.OutOrStdout(), "Run `docket run` to process pending documents.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVar(&documentID, "id", "", "Document ID (defaults to a generated UUID)")
	return cmd
}
