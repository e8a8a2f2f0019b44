package cmd

import (
	"context"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/cloud"
)

// openRuntime builds the runtime from cfg and loads the local blobs
func openRuntime() (*internal.Runtime, error) {
	rt := internal.NewRuntime(cfg)
	if err := rt.Load(); err != nil {
		return nil, err
	}
	return rt, nil
}

// openCoordinator opens the configured remote. It returns a nil
// coordinator when no backend is configured. The returned func releases
// both.
func openCoordinator(ctx context.Context, rt *internal.Runtime) (*cloud.Coordinator, cloud.RemoteStore, func(), error) {
	remote, err := cloud.OpenRemote(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if remote == nil {
		return nil, nil, func() {}, nil
	}
	coord := cloud.NewCoordinator(remote, rt)
	closeFn := func() {
		coord.Close()
		if err := remote.Close(); err != nil {
			internal.LogWarn("Failed to close remote store: %v", err)
		}
	}
	return coord, remote, closeFn, nil
}
