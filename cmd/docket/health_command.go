package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check readiness of the pipeline's dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				checks := a.manager.Health(cmd.Context())
				if asJSON {
					if err := writeJSON(cmd, checks); err != nil {
						return err
					}
				} else {
					rows := make([][]string, 0, len(checks))
					for _, check := range checks {
						ready := "ok"
						if !check.Ready {
							ready = "unavailable"
						}
						rows = append(rows, []string{check.Name, ready, check.Detail})
					}
					fmt.Fprintln(cmd.OutOrStdout(),
						renderTable([]string{"Component", "Status", "Detail"}, rows))
				}

				for _, check := range checks {
					if !check.Ready {
						return fmt.Errorf("component %s is not ready", check.Name)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
