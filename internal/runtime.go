package internal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// State is the engine, session and player triple guarded by a Runtime
type State struct {
	Engine  *Engine
	Session *SessionLog
	Player  *Player
}

// ProgressClearer removes remote progress for an identity
type ProgressClearer interface {
	Clear(ctx context.Context, identity string) error
}

// Runtime is the context object built once at startup. It owns the story
// state and the local store and serializes every access to them.
type Runtime struct {
	mu      sync.Mutex
	cfg     *Config
	store   *LocalStore
	state   State
	started bool
}

// NewRuntime creates a runtime with nothing loaded
func NewRuntime(cfg *Config) *Runtime {
	engine := NewEngine()
	session := NewSessionLog()
	return &Runtime{
		cfg:   cfg,
		store: NewLocalStore(cfg.DataDir),
		state: State{
			Engine:  engine,
			Session: session,
			Player:  NewPlayer(engine, session, cfg.ChoiceDelay),
		},
	}
}

// Config returns the runtime configuration
func (r *Runtime) Config() *Config {
	return r.cfg
}

// Store returns the local blob store
func (r *Runtime) Store() *LocalStore {
	return r.store
}

// Load reads the local blobs. A missing or unreadable engine blob falls
// back to the seed novel, a missing or unreadable session blob to an
// empty session.
func (r *Runtime) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *Runtime) loadLocked() error {
	engineBlob, err := r.store.ReadEngine()
	if err != nil {
		LogWarn("Failed to read engine save, using seed: %v", err)
	}
	loaded := false
	if engineBlob != nil {
		if err := r.state.Engine.LoadBytes(engineBlob); err != nil {
			LogWarn("Engine save is not usable, using seed: %v", err)
		} else {
			loaded = true
		}
	}
	if !loaded {
		seed, err := r.seed()
		if err != nil {
			return err
		}
		if err := r.state.Engine.LoadBytes(seed); err != nil {
			return fmt.Errorf("failed to load seed novel: %w", err)
		}
		LogDebug("Loaded seed novel %q", r.state.Engine.Title())
	}

	r.state.Session.Reset()
	sessionBlob, err := r.store.ReadSession()
	if err != nil {
		LogWarn("Failed to read session save, starting empty: %v", err)
	}
	if sessionBlob != nil {
		if err := r.state.Session.LoadBytes(sessionBlob); err != nil {
			LogWarn("Session save is not usable, starting empty: %v", err)
			r.state.Session.Reset()
		}
	}
	return nil
}

func (r *Runtime) seed() ([]byte, error) {
	if r.cfg.SeedPath == "" {
		return SeedNovel(), nil
	}
	data, err := os.ReadFile(r.cfg.SeedPath)
	if err != nil {
		return nil, &LoadError{Kind: "engine", Path: r.cfg.SeedPath, Err: err}
	}
	return data, nil
}

// Start begins or resumes playback and returns any entries emitted
func (r *Runtime) Start() ([]TranscriptEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.state.Player.Start()
	if err != nil {
		return nil, err
	}
	r.started = true
	return entries, nil
}

// Do runs fn with exclusive access to the story state
func (r *Runtime) Do(fn func(s *State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.state)
}

// Save writes both blobs atomically
func (r *Runtime) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Runtime) saveLocked() error {
	engineBlob, err := r.state.Engine.Serialize()
	if err != nil {
		return err
	}
	sessionBlob, err := r.state.Session.Serialize()
	if err != nil {
		return err
	}
	if err := r.store.WriteEngine(engineBlob); err != nil {
		return err
	}
	return r.store.WriteSession(sessionBlob)
}

// EngineModTime returns the local engine blob's modification time
func (r *Runtime) EngineModTime() (time.Time, bool, error) {
	return r.store.EngineModTime()
}

// ReadBlobs returns the local blobs as saved on disk; either may be nil
func (r *Runtime) ReadBlobs() (engine, session []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if engine, err = r.store.ReadEngine(); err != nil {
		return nil, nil, err
	}
	if session, err = r.store.ReadSession(); err != nil {
		return nil, nil, err
	}
	return engine, session, nil
}

// WriteBlobs overwrites the local blobs. A nil blob leaves that file alone.
func (r *Runtime) WriteBlobs(engine, session []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if engine != nil {
		if err := r.store.WriteEngine(engine); err != nil {
			return err
		}
	}
	if session != nil {
		if err := r.store.WriteSession(session); err != nil {
			return err
		}
	}
	return nil
}

// Reload replaces the in-memory state with the local blobs. Playback is
// resumed if it had been started.
func (r *Runtime) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(); err != nil {
		return err
	}
	if r.started {
		if _, err := r.state.Player.Start(); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll resets progress, removes the local blobs, and clears the remote
// progress fields for identity when remote is non-nil.
func (r *Runtime) ClearAll(ctx context.Context, remote ProgressClearer, identity string) error {
	r.mu.Lock()
	r.state.Engine.Reset()
	r.state.Session.Reset()
	err := r.store.Clear()
	r.started = false
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if remote == nil || identity == "" {
		return nil
	}
	if err := remote.Clear(ctx, identity); err != nil {
		return &SyncError{Identity: identity, Op: "clear", Err: err}
	}
	LogInfo("Cleared remote progress for %s", identity)
	return nil
}
