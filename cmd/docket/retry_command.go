package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docket/internal/pipeline"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var fromStage string

	cmd := &cobra.Command{
		Use:   "retry <document-id>",
		Short: "Requeue a failed document",
		Long: "Requeue a failed document. By default processing resumes from the stage " +
			"that failed; use --from to rerun from an earlier stage.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				documentID := args[0]

				var from pipeline.Stage
				if fromStage != "" {
					parsed, ok := pipeline.ParseStage(fromStage)
					if !ok {
						return fmt.Errorf("unknown stage %q (one of %v)", fromStage, pipeline.Stages())
					}
					from = parsed
				} else {
					status, err := a.manager.Status(cmd.Context(), documentID)
					if err != nil {
						return err
					}
					failed, ok := status.State.FirstFailed()
					if !ok {
						return fmt.Errorf("document %s has no failed stage; use --from to force a rerun", documentID)
					}
					from = failed
				}

				if err := a.manager.Retry(cmd.Context(), documentID, from); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Document %s queued; processing resumes at %s\n", documentID, from)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromStage, "from", "", "Stage to resume from (defaults to the failed stage)")
	return cmd
}
