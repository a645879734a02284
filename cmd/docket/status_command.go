package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <document-id>",
		Short: "Show a document's pipeline progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				status, err := a.manager.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Document: %s (%s)\n", status.Document.Title, status.Document.ID)
				fmt.Fprintf(out, "Status:   %s\n", status.Document.Status)
				if status.Document.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", status.Document.ErrorMessage)
				}

				rows := make([][]string, 0, len(pipeline.Stages()))
				for _, stg := range pipeline.Stages() {
					record := status.State.Record(stg)
					rows = append(rows, []string{
						string(stg),
						string(record.Status),
						formatTimestamp(record.Timestamp),
						stageDetail(record),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Stage", "Status", "Updated", "Detail"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				docs, err := a.docs.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, docs)
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents submitted.")
					return nil
				}

				rows := make([][]string, 0, len(docs))
				for _, doc := range docs {
					rows = append(rows, []string{
						doc.ID,
						doc.Title,
						string(doc.Status),
						formatTimestamp(doc.UpdatedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"ID", "Title", "Status", "Updated"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func stageDetail(record pipeline.StageRecord) string {
	if msg := record.ErrorMessage(); msg != "" {
		return msg
	}
	if summary, ok := record.Metadata[pipeline.MetaSummary].(string); ok {
		if fromCache, _ := record.Metadata[pipeline.MetaFromCache].(bool); fromCache {
			return summary + " (cached)"
		}
		return summary
	}
	return ""
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
