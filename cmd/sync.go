package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/cloud"
	"github.com/spf13/cobra"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local progress with the remote store",
	Long: `Run one last-writer-wins reconciliation for the configured identity.

Remote progress newer than the local save replaces it; the local save is
then pushed back to the remote store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RemoteBackend == internal.BackendNone {
			return errors.New("no remote backend configured (set remote_backend or NOVEL_REMOTE_BACKEND)")
		}
		if cfg.Identity == "" {
			return errors.New("no identity configured (use --identity or NOVEL_IDENTITY)")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		coord, _, closeRemote, err := openCoordinator(ctx, rt)
		if err != nil {
			return err
		}
		defer closeRemote()

		var outcome cloud.Outcome
		err = internal.ShowProgress(ctx, fmt.Sprintf("Synchronizing %s via %s", cfg.Identity, cfg.RemoteBackend), func() error {
			var syncErr error
			outcome, syncErr = coord.Reconcile(ctx, cfg.Identity)
			return syncErr
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outcome.Pulled {
			fmt.Fprintf(out, "Pulled remote progress saved %s\n", outcome.RemoteUpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "Pushed local progress at %s\n", outcome.PushedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
