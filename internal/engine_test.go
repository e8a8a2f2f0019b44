package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/novel-session/testutil"
)

func loadedEngine(t *testing.T, novel *Novel) *Engine {
	t.Helper()
	e := NewEngine()
	if err := e.Load(novel); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return e
}

func TestEngine_LoadRejectsInvalidAndKeepsPrevious(t *testing.T) {
	e := loadedEngine(t, CreateChoiceNovel())

	bad := CreateTestNovel()
	bad.Entry = "missing"
	err := e.Load(bad)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	if e.Title() != "Fork" {
		t.Errorf("Title() = %q, want previous novel kept", e.Title())
	}

	if err := e.Load(nil); !errors.Is(err, ErrNoNovel) {
		t.Errorf("Load(nil) error = %v, want ErrNoNovel", err)
	}
}

func TestEngine_LoadBytesMalformed(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"no entry", `{"title":"x","chapters":[]}`},
		{"bad options", `{"entry":"a","chapters":[{"name":"a","messages":[{"character":"x","type":3,"value":"","options":["a"]}]}]}`},
		{"dangling route", `{"entry":"a","chapters":[{"name":"a","messages":[{"character":"x","type":3,"value":"","options":["a"],"routes":["b"]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.LoadBytes([]byte(tt.data))
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("LoadBytes() error = %v, want *LoadError", err)
			}
		})
	}
	if e.Loaded() {
		t.Error("Loaded() = true after only failed loads")
	}
}

func TestEngine_LoadFileSetsPath(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteNovelFixture(t, dir, []byte("not json"))

	err := NewEngine().LoadFile(path)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Path != path {
		t.Fatalf("LoadFile() error = %v, want LoadError with path %s", err, path)
	}

	err = NewEngine().LoadFile(filepath.Join(dir, "missing.json"))
	if !errors.As(err, &loadErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}

func TestEngine_SetCursorUnlocksAndClamps(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())

	tests := []struct {
		name     string
		chapter  string
		line     int
		wantLine int
	}{
		{"start of chapter", "left", 0, 0},
		{"negative line", "right", -3, 0},
		{"past end", "deep", 10, 2},
		{"at end", "start", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.SetCursor(tt.chapter, tt.line)
			if !e.Chapter(tt.chapter).Unlocked {
				t.Errorf("Chapter(%q).Unlocked = false after SetCursor", tt.chapter)
			}
			cur, ok := e.Cursor()
			if !ok || cur != (Cursor{Chapter: tt.chapter, Line: tt.wantLine}) {
				t.Errorf("Cursor() = %+v, %v", cur, ok)
			}
			if e.Novel().CurrentChapter != tt.chapter || e.Novel().CurrentIndex != tt.wantLine {
				t.Errorf("persisted position = %s:%d, want %s:%d",
					e.Novel().CurrentChapter, e.Novel().CurrentIndex, tt.chapter, tt.wantLine)
			}
		})
	}
}

func TestEngine_SetCursorUnknownChapterIsNoop(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())
	e.SetCursor("left", 0)
	e.SetCursor("nowhere", 3)

	cur, _ := e.Cursor()
	if cur.Chapter != "left" {
		t.Errorf("Cursor().Chapter = %q, want left", cur.Chapter)
	}
}

func TestEngine_NextMessage(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())

	if e.NextMessage() != nil || e.HasNextMessage() {
		t.Fatal("NextMessage() without a chapter selected should be nil")
	}

	e.SetCursor("right", 0)
	first := e.NextMessage()
	if first == nil || first.Kind != KindHint {
		t.Fatalf("NextMessage() = %+v, want hint", first)
	}
	if !e.HasNextMessage() {
		t.Error("HasNextMessage() = false before last message")
	}
	second := e.NextMessage()
	if second == nil || second.Kind != KindOptions {
		t.Fatalf("NextMessage() = %+v, want options", second)
	}
	if e.HasNextMessage() {
		t.Error("HasNextMessage() = true at chapter end")
	}
	if e.NextMessage() != nil {
		t.Error("NextMessage() past end should be nil")
	}
	if e.Novel().CurrentIndex != 2 {
		t.Errorf("CurrentIndex = %d, want 2", e.Novel().CurrentIndex)
	}
}

func TestEngine_NextMessageReturnsCopy(t *testing.T) {
	e := loadedEngine(t, CreateChoiceNovel())
	e.SetCursor("ch1", 0)
	msg := e.NextMessage()
	msg.Value = "mutated"
	if e.Chapter("ch1").Messages[0].Value == "mutated" {
		t.Error("NextMessage() exposed engine-owned message")
	}
}

func TestEngine_Reset(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())
	for _, name := range e.ChapterNames() {
		e.SetCursor(name, 1)
	}
	e.UnlockCollection("Map")

	e.Reset()

	for _, ch := range e.Novel().Chapters {
		want := ch.Name == "start"
		if ch.Unlocked != want {
			t.Errorf("chapter %q unlocked = %v, want %v", ch.Name, ch.Unlocked, want)
		}
	}
	if e.Collection("Map").Unlocked {
		t.Error("collection still unlocked after Reset")
	}
	if cur, ok := e.Cursor(); !ok || cur != (Cursor{Chapter: "start"}) {
		t.Errorf("Cursor() = %+v, %v, want start:0", cur, ok)
	}
}

func TestEngine_UnlockCollection(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())
	e.UnlockCollection("nope")
	e.UnlockCollection("Map")
	if !e.Collection("Map").Unlocked {
		t.Error("Collection(Map).Unlocked = false")
	}
}

func TestEngine_ChoiceScenario(t *testing.T) {
	e := loadedEngine(t, CreateChoiceNovel())
	s := NewSessionLog()

	e.SetCursor(e.Entry(), 0)
	msg := e.NextMessage()
	if msg == nil || msg.Kind != KindOptions {
		t.Fatalf("NextMessage() = %+v, want options", msg)
	}
	entry := s.Append(*msg, e.Character(msg.Character))

	label, route, err := s.ResolveOption(entry.ID, 1)
	if err != nil {
		t.Fatalf("ResolveOption() error = %v", err)
	}
	if label != "go right" || route != "chR" {
		t.Fatalf("ResolveOption() = (%q, %q), want (go right, chR)", label, route)
	}
	e.SetCursor(route, 0)

	if !e.Chapter("chR").Unlocked {
		t.Error("chR not unlocked")
	}
	if cur, _ := e.Cursor(); cur != (Cursor{Chapter: "chR"}) {
		t.Errorf("Cursor() = %+v, want chR:0", cur)
	}
}

func TestEngine_SerializeIsDeterministic(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())
	e.SetCursor("right", 1)
	e.UnlockCollection("Map")

	first, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	reloaded := NewEngine()
	if err := reloaded.LoadBytes(first); err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	second, err := reloaded.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("save/load/save not byte-identical:\n%s\n---\n%s", first, second)
	}
	if reloaded.ResumePoint() != (Cursor{Chapter: "right", Line: 1}) {
		t.Errorf("ResumePoint() = %+v, want right:1", reloaded.ResumePoint())
	}
}

func TestEngine_SerializeEmptySlices(t *testing.T) {
	e := loadedEngine(t, CreateChoiceNovel())
	data, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	for _, want := range []string{`"images": []`, `"audios": []`, `"collections": []`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("Serialize() missing %s", want)
		}
	}
	if _, err := NewEngine().Serialize(); !errors.Is(err, ErrNoNovel) {
		t.Errorf("Serialize() on empty engine error = %v, want ErrNoNovel", err)
	}
}

func TestEngine_SaveIsAtomic(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, EngineFileName)
	e := loadedEngine(t, CreateTestNovel())

	if err := e.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != EngineFileName {
		t.Errorf("directory holds %v, want only %s", entries, EngineFileName)
	}
	if err := NewEngine().LoadFile(path); err != nil {
		t.Errorf("LoadFile() after Save error = %v", err)
	}
}

func TestEngine_ResumePoint(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())
	if got := e.ResumePoint(); got != (Cursor{Chapter: "start"}) {
		t.Errorf("ResumePoint() = %+v, want start:0", got)
	}
	if got := NewEngine().ResumePoint(); got != (Cursor{}) {
		t.Errorf("ResumePoint() without novel = %+v", got)
	}
}

func TestEngine_Lookups(t *testing.T) {
	e := loadedEngine(t, CreateTestNovel())

	if e.Character("Guide").Type != CharacterIncoming {
		t.Error("Character(Guide) not incoming")
	}
	if e.Character("Stranger").Name != "" {
		t.Error("Character(unknown) should be zero")
	}
	if got := e.ResolveContent(KindImage, "map"); got != "images/map.png" {
		t.Errorf("ResolveContent(image) = %q", got)
	}
	if got := e.ResolveContent(KindBackgroundMusic, "theme"); got != "audio/theme.m4a" {
		t.Errorf("ResolveContent(bgm) = %q", got)
	}
	if got := e.ResolveContent(KindText, "hello"); got != "hello" {
		t.Errorf("ResolveContent(text) = %q", got)
	}
	if got := e.ResolveContent(KindAudio, "missing"); got != "" {
		t.Errorf("ResolveContent(missing audio) = %q", got)
	}

	names := e.ChapterNames()
	if len(names) != 5 || names[0] != "start" || names[4] != "orphan" {
		t.Errorf("ChapterNames() = %v", names)
	}
	speakers := e.SpeakerNames()
	if len(speakers) != 3 || speakers[0] != "Guide" || speakers[1] != "Player" || speakers[2] != SystemSpeaker {
		t.Errorf("SpeakerNames() = %v", speakers)
	}
}
