package cmd

import (
	"context"
	"errors"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/cloud"
	"github.com/spf13/cobra"
)

var (
	resetConfirm bool
	resetLocal   bool
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all story progress",
	Long: `Relock every chapter and collection, clear the transcript and remove the
local save. When an identity and a remote backend are configured the remote
progress fields are cleared too; the remote document itself is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("reset discards all progress; pass --yes to confirm")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := openRuntime()
		if err != nil {
			return err
		}

		var remote cloud.RemoteStore
		closeRemote := func() {}
		steps := []internal.ProgressStep{}
		if cfg.SyncEnabled() && !resetLocal {
			steps = append(steps, internal.ProgressStep{
				Message: "Connecting to remote store",
				Fn: func() error {
					var err error
					_, remote, closeRemote, err = openCoordinator(ctx, rt)
					return err
				},
			})
		}
		steps = append(steps, internal.ProgressStep{
			Message: "Clearing progress",
			Fn: func() error {
				var clearer internal.ProgressClearer
				if remote != nil {
					clearer = remote
				}
				return rt.ClearAll(ctx, clearer, cfg.Identity)
			},
		})

		err = internal.ShowProgressWithSteps(ctx, steps)
		closeRemote()
		if err != nil {
			return err
		}
		internal.PrintSuccess("Progress cleared")
		if resetLocal && cfg.SyncEnabled() {
			internal.PrintInfo("Remote progress for " + cfg.Identity + " left untouched")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetConfirm, "yes", "y", false, "Confirm the reset")
	resetCmd.Flags().BoolVar(&resetLocal, "local-only", false, "Leave remote progress untouched")
}
