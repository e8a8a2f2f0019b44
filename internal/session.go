package internal

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TranscriptEntry is one rendered item in the player-visible log
type TranscriptEntry struct {
	ID         string      `json:"id"`
	Kind       MessageKind `json:"type"`
	Sender     string      `json:"sender"`
	Value      string      `json:"value"`
	IsIncoming bool        `json:"isIncoming"`
	Options    []string    `json:"options"`
	Routes     []string    `json:"routes"`
	Avatar     string      `json:"avatar"`
	Delivered  bool        `json:"delivered"`
}

// ChapterBookmark captures the transcript at the moment a chapter was entered
type ChapterBookmark struct {
	Name     string            `json:"name"`
	Snapshot []TranscriptEntry `json:"messagesSnapshot"`
}

// SessionLog is the append-only transcript plus side-effect bookkeeping.
// Like Engine it is not safe for concurrent use.
type SessionLog struct {
	entries   []TranscriptEntry
	bookmarks []ChapterBookmark
	chapter   string
	index     int
	newID     func() string
}

// sessionState is the persisted shape of a SessionLog
type sessionState struct {
	Messages           []TranscriptEntry `json:"messages"`
	CurrentChapterName string            `json:"currentChapterName"`
	CurrentIndex       int               `json:"currentIndex"`
	ChapterHistory     []ChapterBookmark `json:"chapterHistory"`
}

// NewSessionLog creates an empty session log
func NewSessionLog() *SessionLog {
	return &SessionLog{newID: func() string { return uuid.NewString() }}
}

// Append converts an engine message into a transcript entry. The speaker
// decides transcript placement; pass the zero Character for unknown
// speakers.
func (s *SessionLog) Append(msg Message, speaker Character) TranscriptEntry {
	entry := TranscriptEntry{
		ID:         s.newID(),
		Kind:       msg.Kind,
		Sender:     msg.Character,
		Value:      msg.Value,
		IsIncoming: speaker.Type == CharacterIncoming,
		Options:    append([]string{}, msg.Options...),
		Routes:     append([]string{}, msg.Routes...),
		Avatar:     speaker.Avatar,
	}
	s.entries = append(s.entries, entry)
	return entry
}

// AppendEcho records the player's own reply. Echo entries carry no side
// effect and are created already delivered.
func (s *SessionLog) AppendEcho(sender, text, avatar string) TranscriptEntry {
	entry := TranscriptEntry{
		ID:        s.newID(),
		Kind:      KindText,
		Sender:    sender,
		Value:     text,
		Options:   []string{},
		Routes:    []string{},
		Avatar:    avatar,
		Delivered: true,
	}
	s.entries = append(s.entries, entry)
	return entry
}

func (s *SessionLog) find(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Entry returns the entry with the given id
func (s *SessionLog) Entry(id string) (TranscriptEntry, bool) {
	if i := s.find(id); i >= 0 {
		return s.entries[i], true
	}
	return TranscriptEntry{}, false
}

// NeedsDelivery reports whether the entry's side effect has yet to fire.
// Re-rendering an entry must consult this before firing anything.
func (s *SessionLog) NeedsDelivery(id string) bool {
	i := s.find(id)
	if i < 0 {
		return false
	}
	return s.entries[i].Kind.HasSideEffect() && !s.entries[i].Delivered
}

// MarkDelivered flips the delivered flag. It returns true only for the call
// that performed the flip, so a caller can use it as a fire-once guard.
func (s *SessionLog) MarkDelivered(id string) bool {
	i := s.find(id)
	if i < 0 || s.entries[i].Delivered {
		return false
	}
	s.entries[i].Delivered = true
	return true
}

// ResolveOption consumes an Options entry and returns the chosen label and
// target chapter. The transcript is untouched on error.
func (s *SessionLog) ResolveOption(id string, option int) (label, route string, err error) {
	i := s.find(id)
	if i < 0 {
		return "", "", &InvalidChoiceError{EntryID: id, Index: option, Reason: "entry not found"}
	}
	entry := s.entries[i]
	if entry.Kind != KindOptions {
		return "", "", &InvalidChoiceError{EntryID: id, Index: option, Reason: fmt.Sprintf("entry is %s, not options", entry.Kind)}
	}
	if option < 0 || option >= len(entry.Options) || option >= len(entry.Routes) {
		return "", "", &InvalidChoiceError{EntryID: id, Index: option, Reason: "option index out of range"}
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return entry.Options[option], entry.Routes[option], nil
}

// RecordBookmark appends a snapshot of the transcript for a chapter entry
func (s *SessionLog) RecordBookmark(chapter string) {
	s.bookmarks = append(s.bookmarks, ChapterBookmark{
		Name:     chapter,
		Snapshot: cloneEntries(s.entries),
	})
}

// SetPosition records which chapter and line the transcript has reached
func (s *SessionLog) SetPosition(chapter string, index int) {
	s.chapter = chapter
	s.index = index
}

// Position returns the recorded chapter and line
func (s *SessionLog) Position() (string, int) {
	return s.chapter, s.index
}

// Entries returns a copy of the transcript
func (s *SessionLog) Entries() []TranscriptEntry {
	return cloneEntries(s.entries)
}

// Last returns the most recent entry
func (s *SessionLog) Last() (TranscriptEntry, bool) {
	if len(s.entries) == 0 {
		return TranscriptEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Len returns the number of transcript entries
func (s *SessionLog) Len() int {
	return len(s.entries)
}

// Bookmarks returns a copy of the recorded chapter bookmarks
func (s *SessionLog) Bookmarks() []ChapterBookmark {
	out := make([]ChapterBookmark, len(s.bookmarks))
	for i, b := range s.bookmarks {
		out[i] = ChapterBookmark{Name: b.Name, Snapshot: cloneEntries(b.Snapshot)}
	}
	return out
}

// ClearTranscript drops every entry but keeps bookmarks and position
func (s *SessionLog) ClearTranscript() {
	s.entries = nil
}

// Reset clears the transcript, bookmarks and position
func (s *SessionLog) Reset() {
	s.entries = nil
	s.bookmarks = nil
	s.chapter = ""
	s.index = 0
}

// Serialize encodes the session. One-shot sound effects are left out: they
// have already played and must never replay after a restore.
func (s *SessionLog) Serialize() ([]byte, error) {
	state := sessionState{
		Messages:           persistable(s.entries),
		CurrentChapterName: s.chapter,
		CurrentIndex:       s.index,
		ChapterHistory:     make([]ChapterBookmark, len(s.bookmarks)),
	}
	for i, b := range s.bookmarks {
		state.ChapterHistory[i] = ChapterBookmark{Name: b.Name, Snapshot: persistable(b.Snapshot)}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadBytes replaces the session with a serialized one. The session is
// untouched on error.
func (s *SessionLog) LoadBytes(data []byte) error {
	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return &LoadError{Kind: "session", Err: fmt.Errorf("failed to parse session JSON: %w", err)}
	}
	seen := make(map[string]bool, len(state.Messages))
	for _, entry := range state.Messages {
		if entry.ID == "" || seen[entry.ID] {
			return &LoadError{Kind: "session", Err: fmt.Errorf("missing or duplicate entry id %q", entry.ID)}
		}
		seen[entry.ID] = true
	}
	s.entries = state.Messages
	s.bookmarks = state.ChapterHistory
	s.chapter = state.CurrentChapterName
	s.index = state.CurrentIndex
	return nil
}

func persistable(entries []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindSoundEffect {
			continue
		}
		out = append(out, normalizeEntry(e))
	}
	return out
}

func normalizeEntry(e TranscriptEntry) TranscriptEntry {
	if e.Options == nil {
		e.Options = []string{}
	}
	if e.Routes == nil {
		e.Routes = []string{}
	}
	return e
}

func cloneEntries(entries []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, len(entries))
	for i, e := range entries {
		e.Options = append([]string{}, e.Options...)
		e.Routes = append([]string{}, e.Routes...)
		out[i] = e
	}
	return out
}
