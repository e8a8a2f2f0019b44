package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func newTestSessionLog() *SessionLog {
	s := NewSessionLog()
	s.newID = sequentialIDs()
	return s
}

var (
	guide  = Character{Name: "Guide", Avatar: "guide", Type: CharacterIncoming}
	player = Character{Name: "Player", Avatar: "player", Type: CharacterNarrator}
)

func TestSessionLog_Append(t *testing.T) {
	s := newTestSessionLog()

	incoming := s.Append(Message{Character: "Guide", Kind: KindText, Value: "hi"}, guide)
	if !incoming.IsIncoming || incoming.Avatar != "guide" || incoming.Delivered {
		t.Errorf("Append(guide) = %+v", incoming)
	}
	outgoing := s.Append(Message{Character: "Player", Kind: KindText, Value: "hello"}, player)
	if outgoing.IsIncoming {
		t.Error("narrator-type speaker placed as incoming")
	}
	unknown := s.Append(Message{Character: "Ghost", Kind: KindText}, Character{})
	if unknown.IsIncoming || unknown.Avatar != "" {
		t.Errorf("Append(unknown) = %+v", unknown)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if incoming.ID == outgoing.ID {
		t.Error("entry ids are not unique")
	}
}

func TestNewSessionLog_UsesUUIDs(t *testing.T) {
	s := NewSessionLog()
	a := s.Append(Message{Kind: KindText}, Character{})
	b := s.Append(Message{Kind: KindText}, Character{})
	if len(a.ID) != 36 || a.ID == b.ID {
		t.Errorf("ids = %q, %q", a.ID, b.ID)
	}
}

func TestSessionLog_SideEffectFiresOnce(t *testing.T) {
	s := newTestSessionLog()
	bgm := s.Append(Message{Character: SystemSpeaker, Kind: KindBackgroundMusic, Value: "theme"}, Character{})

	if !s.NeedsDelivery(bgm.ID) {
		t.Fatal("NeedsDelivery() = false before delivery")
	}
	if !s.MarkDelivered(bgm.ID) {
		t.Fatal("first MarkDelivered() = false")
	}

	fires := 0
	for i := 0; i < 5; i++ {
		if s.NeedsDelivery(bgm.ID) {
			fires++
		}
		if s.MarkDelivered(bgm.ID) {
			fires++
		}
	}
	if fires != 0 {
		t.Errorf("entry fired %d more times after delivery", fires)
	}
	entry, _ := s.Entry(bgm.ID)
	if !entry.Delivered {
		t.Error("Delivered = false after MarkDelivered")
	}
}

func TestSessionLog_NeedsDeliveryOnlyForSideEffects(t *testing.T) {
	s := newTestSessionLog()
	text := s.Append(Message{Kind: KindText}, Character{})
	if s.NeedsDelivery(text.ID) {
		t.Error("text entry should not need delivery")
	}
	if s.NeedsDelivery("missing") || s.MarkDelivered("missing") {
		t.Error("unknown entry reported as deliverable")
	}
}

func TestSessionLog_ResolveOption(t *testing.T) {
	s := newTestSessionLog()
	text := s.Append(Message{Character: "Guide", Kind: KindText, Value: "pick"}, guide)
	opts := s.Append(Message{
		Character: "Guide",
		Kind:      KindOptions,
		Options:   []string{"go left", "go right"},
		Routes:    []string{"chL", "chR"},
	}, guide)

	tests := []struct {
		name   string
		id     string
		option int
		reason string
	}{
		{"unknown entry", "missing", 0, "not found"},
		{"non-options entry", text.ID, 0, "not options"},
		{"negative index", opts.ID, -1, "out of range"},
		{"index past end", opts.ID, 2, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Entries()
			_, _, err := s.ResolveOption(tt.id, tt.option)
			if !errors.Is(err, ErrInvalidChoice) {
				t.Fatalf("ResolveOption() error = %v, want ErrInvalidChoice", err)
			}
			var choiceErr *InvalidChoiceError
			if !errors.As(err, &choiceErr) || !strings.Contains(choiceErr.Reason, tt.reason) {
				t.Errorf("ResolveOption() error = %v, want reason %q", err, tt.reason)
			}
			if s.Len() != len(before) {
				t.Errorf("transcript changed on error: %d -> %d entries", len(before), s.Len())
			}
		})
	}

	label, route, err := s.ResolveOption(opts.ID, 1)
	if err != nil {
		t.Fatalf("ResolveOption() error = %v", err)
	}
	if label != "go right" || route != "chR" {
		t.Errorf("ResolveOption() = (%q, %q)", label, route)
	}
	if _, ok := s.Entry(opts.ID); ok {
		t.Error("options entry still present after resolve")
	}
	if _, _, err := s.ResolveOption(opts.ID, 0); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("second ResolveOption() error = %v, want ErrInvalidChoice", err)
	}
}

func TestSessionLog_AppendEcho(t *testing.T) {
	s := newTestSessionLog()
	echo := s.AppendEcho("Guide", "go right", "guide")
	if echo.Kind != KindText || echo.IsIncoming || !echo.Delivered || echo.Value != "go right" {
		t.Errorf("AppendEcho() = %+v", echo)
	}
}

func TestSessionLog_Bookmarks(t *testing.T) {
	s := newTestSessionLog()
	s.RecordBookmark("ch1")
	s.Append(Message{Kind: KindText, Value: "a"}, Character{})
	s.RecordBookmark("ch2")
	s.Append(Message{Kind: KindText, Value: "b"}, Character{})

	marks := s.Bookmarks()
	if len(marks) != 2 {
		t.Fatalf("Bookmarks() = %d, want 2", len(marks))
	}
	if marks[0].Name != "ch1" || len(marks[0].Snapshot) != 0 {
		t.Errorf("bookmark 0 = %+v", marks[0])
	}
	if marks[1].Name != "ch2" || len(marks[1].Snapshot) != 1 {
		t.Errorf("bookmark 1 = %+v", marks[1])
	}

	s.ClearTranscript()
	if s.Len() != 0 || len(s.Bookmarks()) != 2 {
		t.Error("ClearTranscript() should keep bookmarks")
	}

	s.Reset()
	if s.Len() != 0 || len(s.Bookmarks()) != 0 {
		t.Error("Reset() left state behind")
	}
	if ch, idx := s.Position(); ch != "" || idx != 0 {
		t.Errorf("Position() after Reset = %s:%d", ch, idx)
	}
}

func TestSessionLog_SerializeRoundTrip(t *testing.T) {
	s := newTestSessionLog()
	s.SetPosition("ch1", 3)
	s.RecordBookmark("ch1")
	bgm := s.Append(Message{Kind: KindBackgroundMusic, Value: "theme"}, Character{})
	s.MarkDelivered(bgm.ID)
	s.Append(Message{Kind: KindSoundEffect, Value: "door"}, Character{})
	s.Append(Message{Character: "Guide", Kind: KindText, Value: "hi"}, guide)
	s.RecordBookmark("ch2")

	data, err := s.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	for _, key := range []string{`"messages"`, `"currentChapterName": "ch1"`, `"currentIndex": 3`, `"chapterHistory"`, `"messagesSnapshot"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Serialize() missing %s", key)
		}
	}

	restored := newTestSessionLog()
	if err := restored.LoadBytes(data); err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	entries := restored.Entries()
	if len(entries) != 2 {
		t.Fatalf("restored %d entries, want 2 (sound effect pruned)", len(entries))
	}
	for _, e := range entries {
		if e.Kind == KindSoundEffect {
			t.Error("sound effect survived serialization")
		}
	}
	if restored.NeedsDelivery(bgm.ID) {
		t.Error("delivered flag lost across serialization")
	}
	marks := restored.Bookmarks()
	if len(marks) != 2 || len(marks[1].Snapshot) != 2 {
		t.Errorf("restored bookmarks = %+v", marks)
	}
	if ch, idx := restored.Position(); ch != "ch1" || idx != 3 {
		t.Errorf("Position() = %s:%d", ch, idx)
	}
}

func TestSessionLog_LoadBytesRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"missing id", `{"messages":[{"type":0}]}`},
		{"duplicate id", `{"messages":[{"id":"a"},{"id":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSessionLog()
			s.Append(Message{Kind: KindText}, Character{})
			err := s.LoadBytes([]byte(tt.data))
			var loadErr *LoadError
			if !errors.As(err, &loadErr) || loadErr.Kind != "session" {
				t.Errorf("LoadBytes() error = %v", err)
			}
			if s.Len() != 1 {
				t.Error("session mutated on failed load")
			}
		})
	}
}
