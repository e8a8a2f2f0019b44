package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/api"
	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the driver API over HTTP",
	Long: `Serve the story runtime to a presentation driver over HTTP.

Progress is saved after every change. When an identity and a remote backend
are configured, a reconciliation runs at startup and POST /api/v1/sync runs
one on demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		if _, err := rt.Start(); err != nil {
			return err
		}

		var opts []api.Option
		if cfg.RemoteBackend != internal.BackendNone {
			coord, _, closeRemote, err := openCoordinator(ctx, rt)
			if err != nil {
				internal.LogWarn("Remote unavailable, serving without sync: %v", err)
			} else {
				defer closeRemote()
				opts = append(opts, api.WithReconciler(coord))
				if cfg.Identity != "" {
					go func() {
						res := <-coord.Trigger(ctx, cfg.Identity)
						if res.Err != nil {
							internal.LogWarn("Startup sync failed: %v", res.Err)
						}
					}()
				}
			}
		}

		addr := cfg.Listen
		if listenAddr != "" {
			addr = listenAddr
		}
		return api.NewServer(rt, opts...).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")
}
