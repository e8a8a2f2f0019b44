package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/iksnae/novel-session/testutil"
)

type recordingClearer struct {
	cleared []string
	err     error
}

func (r *recordingClearer) Clear(ctx context.Context, identity string) error {
	r.cleared = append(r.cleared, identity)
	return r.err
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(testutil.CreateTempDir(t), "data")
	cfg.ChoiceDelay = 0
	return NewRuntime(cfg)
}

func TestRuntime_LoadFallsBackToSeed(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_ = rt.Do(func(s *State) error {
		if s.Engine.Title() != "Night Shift Rules" {
			t.Errorf("Title() = %q, want seed novel", s.Engine.Title())
		}
		if s.Session.Len() != 0 {
			t.Error("session not empty")
		}
		return nil
	})
}

func TestRuntime_LoadCorruptBlobs(t *testing.T) {
	rt := newTestRuntime(t)
	testutil.WriteFileFixture(t, rt.Config().DataDir, EngineFileName, []byte("{corrupt"))
	testutil.WriteFileFixture(t, rt.Config().DataDir, SessionFileName, []byte("[]"))

	if err := rt.Load(); err != nil {
		t.Fatalf("Load() error = %v, want fallback", err)
	}
	_ = rt.Do(func(s *State) error {
		if !s.Engine.Loaded() || s.Engine.Entry() != "Arrival" {
			t.Error("seed novel not loaded over corrupt save")
		}
		return nil
	})
}

func TestRuntime_LoadCustomSeed(t *testing.T) {
	rt := newTestRuntime(t)
	data, err := EncodeNovel(CreateChoiceNovel())
	if err != nil {
		t.Fatal(err)
	}
	rt.Config().SeedPath = testutil.WriteFileFixture(t, testutil.CreateTempDir(t), "seed.json", data)

	if err := rt.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_ = rt.Do(func(s *State) error {
		if s.Engine.Entry() != "ch1" {
			t.Errorf("Entry() = %q, want ch1", s.Engine.Entry())
		}
		return nil
	})

	rt.Config().SeedPath = filepath.Join(rt.Config().DataDir, "missing.json")
	var loadErr *LoadError
	if err := rt.Load(); !errors.As(err, &loadErr) {
		t.Errorf("Load() with missing seed error = %v, want LoadError", err)
	}
}

func TestRuntime_SaveAndResume(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Start(); err != nil {
		t.Fatal(err)
	}
	var entries int
	_ = rt.Do(func(s *State) error {
		s.Player.Advance()
		entries = s.Session.Len()
		return nil
	})
	if err := rt.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	resumed := NewRuntime(rt.Config())
	if err := resumed.Load(); err != nil {
		t.Fatal(err)
	}
	emitted, err := resumed.Start()
	if err != nil {
		t.Fatal(err)
	}
	if emitted != nil {
		t.Errorf("Start() after restore emitted %d entries", len(emitted))
	}
	_ = resumed.Do(func(s *State) error {
		cur, _ := s.Engine.Cursor()
		ch, idx := s.Session.Position()
		if cur.Chapter != ch || cur.Line != idx {
			t.Errorf("engine cursor %+v disagrees with session %s:%d", cur, ch, idx)
		}
		if s.Session.Len() != entries {
			t.Errorf("restored %d entries, want %d", s.Session.Len(), entries)
		}
		return nil
	})
}

func TestRuntime_WriteBlobsAndReload(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Load(); err != nil {
		t.Fatal(err)
	}

	source := NewEngine()
	if err := source.Load(CreateChoiceNovel()); err != nil {
		t.Fatal(err)
	}
	source.SetCursor("chL", 0)
	engineBlob, _ := source.Serialize()

	if err := rt.WriteBlobs(engineBlob, nil); err != nil {
		t.Fatalf("WriteBlobs() error = %v", err)
	}
	if err := rt.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	_ = rt.Do(func(s *State) error {
		if s.Engine.ResumePoint() != (Cursor{Chapter: "chL"}) {
			t.Errorf("ResumePoint() = %+v, want chL:0", s.Engine.ResumePoint())
		}
		return nil
	})

	gotEngine, gotSession, err := rt.ReadBlobs()
	if err != nil || string(gotEngine) != string(engineBlob) || gotSession != nil {
		t.Errorf("ReadBlobs() = %d bytes, %v, %v", len(gotEngine), gotSession, err)
	}
	if _, ok, _ := rt.EngineModTime(); !ok {
		t.Error("EngineModTime() reports no blob after WriteBlobs")
	}
}

func TestRuntime_ClearAll(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Start(); err != nil {
		t.Fatal(err)
	}
	if err := rt.Save(); err != nil {
		t.Fatal(err)
	}

	remote := &recordingClearer{}
	if err := rt.ClearAll(context.Background(), remote, "player-1"); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if len(remote.cleared) != 1 || remote.cleared[0] != "player-1" {
		t.Errorf("remote cleared %v", remote.cleared)
	}
	if _, ok, _ := rt.EngineModTime(); ok {
		t.Error("engine blob survived ClearAll")
	}
	_ = rt.Do(func(s *State) error {
		if s.Session.Len() != 0 {
			t.Error("transcript survived ClearAll")
		}
		return nil
	})

	failing := &recordingClearer{err: errors.New("offline")}
	err := rt.ClearAll(context.Background(), failing, "player-1")
	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Op != "clear" {
		t.Errorf("ClearAll() error = %v, want SyncError(clear)", err)
	}

	if err := rt.ClearAll(context.Background(), nil, ""); err != nil {
		t.Errorf("ClearAll() without remote error = %v", err)
	}
}
