package cloud

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iksnae/novel-session/internal"
)

// LocalState is the local side of a reconciliation
type LocalState interface {
	// EngineModTime returns the engine blob's modification time; ok is
	// false when there is no blob
	EngineModTime() (modTime time.Time, ok bool, err error)
	ReadBlobs() (engine, session []byte, err error)
	WriteBlobs(engine, session []byte) error
	// Reload rebuilds in-memory state from the local blobs
	Reload() error
}

// Outcome describes what a reconciliation did
type Outcome struct {
	Identity        string    `json:"identity"`
	Pulled          bool      `json:"pulled"`
	Pushed          bool      `json:"pushed"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at,omitempty"`
	PushedAt        time.Time `json:"pushed_at,omitempty"`
}

// Result is delivered by Trigger when an attempt finishes
type Result struct {
	Outcome Outcome
	Err     error
}

type attempt struct {
	id     uint64
	cancel context.CancelFunc
}

// Coordinator runs last-writer-wins reconciliation between a LocalState
// and a RemoteStore
type Coordinator struct {
	remote RemoteStore
	local  LocalState
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]*attempt
	applyMu  sync.Mutex

	nextID     atomic.Uint64
	attempts   atomic.Int64
	superseded atomic.Int64
	failures   atomic.Int64
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a coordinator
func NewCoordinator(remote RemoteStore, local LocalState, opts ...Option) *Coordinator {
	c := &Coordinator{
		remote:   remote,
		local:    local,
		now:      time.Now,
		inflight: make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reconcile pulls the remote snapshot when the local engine blob is absent
// or older, then always pushes the local blobs stamped with the current
// time. The push happens even when nothing changed, so the remote
// updatedAt is re-stamped on every call.
func (c *Coordinator) Reconcile(ctx context.Context, identity string) (Outcome, error) {
	c.attempts.Inc()
	out := Outcome{Identity: identity}

	localMod, haveLocal, err := c.local.EngineModTime()
	if err != nil {
		return c.fail(out, "read-local", err)
	}

	snap, err := c.remote.Fetch(ctx, identity)
	if err != nil {
		return c.fail(out, "fetch", err)
	}

	if snap != nil {
		out.RemoteUpdatedAt = snap.UpdatedAt
		if !haveLocal || snap.UpdatedAt.After(localMod) {
			if err := decodeSnapshot(snap); err != nil {
				return c.fail(out, "decode", err)
			}
			if err := c.pull(ctx, snap); err != nil {
				return c.fail(out, "write-local", err)
			}
			out.Pulled = true
			internal.LogWith("Pulled remote progress",
				"identity", identity,
				"remote", snap.UpdatedAt.Format(time.RFC3339),
				"local", describeLocal(localMod, haveLocal))
		}
	}

	if err := ctx.Err(); err != nil {
		return c.fail(out, "push", err)
	}
	engine, session, err := c.local.ReadBlobs()
	if err != nil {
		return c.fail(out, "read-local", err)
	}
	pushedAt := c.now()
	if err := c.remote.Push(ctx, identity, Snapshot{UpdatedAt: pushedAt, Engine: engine, Session: session}); err != nil {
		return c.fail(out, "push", err)
	}
	out.Pushed = true
	out.PushedAt = pushedAt
	internal.LogDebug("Pushed progress for %s at %s", identity, pushedAt.Format(time.RFC3339Nano))
	return out, nil
}

// pull writes the remote blobs locally and reloads. A canceled attempt
// never touches local state.
func (c *Coordinator) pull(ctx context.Context, snap *Snapshot) error {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.local.WriteBlobs(snap.Engine, snap.Session); err != nil {
		return err
	}
	return c.local.Reload()
}

// decodeSnapshot checks that the remote blobs load before they are allowed
// to replace the local ones
func decodeSnapshot(snap *Snapshot) error {
	if snap.Engine != nil {
		if _, err := internal.DecodeNovel(snap.Engine); err != nil {
			return err
		}
	}
	if snap.Session != nil {
		if err := internal.NewSessionLog().LoadBytes(snap.Session); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) fail(out Outcome, op string, err error) (Outcome, error) {
	c.failures.Inc()
	syncErr := &internal.SyncError{Identity: out.Identity, Op: op, Err: err}
	internal.LogWarn("Sync abandoned: %v", syncErr)
	return out, syncErr
}

func describeLocal(mod time.Time, ok bool) string {
	if !ok {
		return "absent"
	}
	return mod.Format(time.RFC3339)
}

// Trigger starts a reconciliation in the background. A newer trigger for
// the same identity cancels the one in flight. The channel receives one
// Result and is then closed.
func (c *Coordinator) Trigger(ctx context.Context, identity string) <-chan Result {
	attemptCtx, cancel := context.WithCancel(ctx)
	a := &attempt{id: c.nextID.Inc(), cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.inflight[identity]; ok {
		prev.cancel()
		c.superseded.Inc()
		internal.LogDebug("Superseded sync attempt %d for %s", prev.id, identity)
	}
	c.inflight[identity] = a
	c.mu.Unlock()

	results := make(chan Result, 1)
	go func() {
		defer close(results)
		defer cancel()
		outcome, err := c.Reconcile(attemptCtx, identity)

		c.mu.Lock()
		if c.inflight[identity] == a {
			delete(c.inflight, identity)
		}
		c.mu.Unlock()

		results <- Result{Outcome: outcome, Err: err}
	}()
	return results
}

// Close cancels every attempt in flight
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for identity, a := range c.inflight {
		a.cancel()
		delete(c.inflight, identity)
	}
}

// Stats reports attempt counters
type Stats struct {
	Attempts   int64 `json:"attempts"`
	Superseded int64 `json:"superseded"`
	Failures   int64 `json:"failures"`
}

// Stats returns the counters since creation
func (c *Coordinator) Stats() Stats {
	return Stats{
		Attempts:   c.attempts.Load(),
		Superseded: c.superseded.Load(),
		Failures:   c.failures.Load(),
	}
}
