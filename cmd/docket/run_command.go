package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process pending documents until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				// One run loop per data directory; two loops sharing a
				// SQLite database would fight over pending documents.
				lockPath := filepath.Join(a.cfg.Paths.DataDir, "docket.lock")
				fileLock := flock.New(lockPath)
				held, err := fileLock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire run lock: %w", err)
				}
				if !held {
					return errors.New("another docket run loop is already active for this data directory")
				}
				defer func() { _ = fileLock.Unlock() }()

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := a.manager.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Processing documents; press Ctrl-C to stop.")

				<-runCtx.Done()
				a.manager.Stop()
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
				return nil
			})
		},
	}
}
