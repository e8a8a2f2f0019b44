package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Engine walks a novel's chapter graph. It owns the novel and the read
// cursor; callers serialize every mutating call.
type Engine struct {
	novel    *Novel
	cursor   Cursor
	selected bool
}

// NewEngine creates an engine with no novel loaded
func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces the owned novel wholesale. On validation failure the
// previous novel and cursor are kept.
func (e *Engine) Load(novel *Novel) error {
	if novel == nil {
		return &LoadError{Kind: "engine", Err: ErrNoNovel}
	}
	if err := novel.Validate(); err != nil {
		return &LoadError{Kind: "engine", Err: err}
	}
	e.novel = novel.Clone()
	e.cursor = Cursor{}
	e.selected = false
	return nil
}

// LoadBytes decodes and loads a serialized novel
func (e *Engine) LoadBytes(data []byte) error {
	novel, err := DecodeNovel(data)
	if err != nil {
		return err
	}
	return e.Load(novel)
}

// LoadFile loads a serialized novel from path
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Kind: "engine", Path: path, Err: err}
	}
	if err := e.LoadBytes(data); err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return err
	}
	return nil
}

// DecodeNovel parses and validates a serialized novel
func DecodeNovel(data []byte) (*Novel, error) {
	var novel Novel
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&novel); err != nil {
		return nil, &LoadError{Kind: "engine", Err: fmt.Errorf("failed to parse novel JSON: %w", err)}
	}
	if err := novel.Validate(); err != nil {
		return nil, &LoadError{Kind: "engine", Err: err}
	}
	return &novel, nil
}

// Loaded reports whether a novel is loaded
func (e *Engine) Loaded() bool {
	return e.novel != nil
}

// SetCursor moves the cursor to line within chapter and unlocks the
// chapter. Unknown chapters are ignored. The line is clamped to
// [0, messageCount].
func (e *Engine) SetCursor(chapter string, line int) {
	if e.novel == nil {
		return
	}
	idx := e.novel.ChapterIndex(chapter)
	if idx < 0 {
		return
	}
	ch := &e.novel.Chapters[idx]
	ch.Unlocked = true
	e.moveTo(chapter, clamp(line, 0, len(ch.Messages)))
}

// moveTo updates the in-memory cursor and its persisted projection together
func (e *Engine) moveTo(chapter string, line int) {
	e.cursor = Cursor{Chapter: chapter, Line: line}
	e.selected = true
	e.novel.CurrentChapter = chapter
	e.novel.CurrentIndex = line
}

// Cursor returns the current cursor and whether a chapter is selected
func (e *Engine) Cursor() (Cursor, bool) {
	return e.cursor, e.selected
}

// ResumePoint returns where playback should continue: the persisted
// position if any, otherwise the start of the entry chapter.
func (e *Engine) ResumePoint() Cursor {
	if e.novel == nil {
		return Cursor{}
	}
	if e.novel.CurrentChapter == "" {
		return Cursor{Chapter: e.novel.Entry}
	}
	return Cursor{Chapter: e.novel.CurrentChapter, Line: e.novel.CurrentIndex}
}

func (e *Engine) currentChapter() *Chapter {
	if e.novel == nil || !e.selected {
		return nil
	}
	idx := e.novel.ChapterIndex(e.cursor.Chapter)
	if idx < 0 {
		return nil
	}
	return &e.novel.Chapters[idx]
}

// NextMessage returns the message at the cursor and advances past it. It
// returns nil when no chapter is selected or the chapter is exhausted.
func (e *Engine) NextMessage() *Message {
	ch := e.currentChapter()
	if ch == nil || e.cursor.Line >= len(ch.Messages) {
		return nil
	}
	msg := ch.Messages[e.cursor.Line]
	e.moveTo(e.cursor.Chapter, e.cursor.Line+1)
	return &msg
}

// HasNextMessage reports whether a chapter is selected and the cursor is
// strictly before its end
func (e *Engine) HasNextMessage() bool {
	ch := e.currentChapter()
	return ch != nil && e.cursor.Line < len(ch.Messages)
}

// UnlockCollection marks the named collection unlocked; unknown names are ignored
func (e *Engine) UnlockCollection(name string) {
	if e.novel == nil {
		return
	}
	for i := range e.novel.Collections {
		if e.novel.Collections[i].Name == name {
			e.novel.Collections[i].Unlocked = true
			return
		}
	}
}

// Reset locks every chapter and collection, then re-enters the entry chapter
func (e *Engine) Reset() {
	if e.novel == nil {
		return
	}
	for i := range e.novel.Chapters {
		e.novel.Chapters[i].Unlocked = false
	}
	for i := range e.novel.Collections {
		e.novel.Collections[i].Unlocked = false
	}
	e.SetCursor(e.novel.Entry, 0)
}

// Serialize encodes the novel deterministically: struct field order is
// fixed and nil slices are written as empty arrays, so unchanged state
// always produces identical bytes.
func (e *Engine) Serialize() ([]byte, error) {
	if e.novel == nil {
		return nil, ErrNoNovel
	}
	return EncodeNovel(e.novel)
}

// EncodeNovel writes the canonical encoding of a novel
func EncodeNovel(novel *Novel) ([]byte, error) {
	n := *novel
	normalize(&n)
	data, err := json.MarshalIndent(&n, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode novel: %w", err)
	}
	return append(data, '\n'), nil
}

func normalize(n *Novel) {
	if n.Images == nil {
		n.Images = []Resource{}
	}
	if n.Audios == nil {
		n.Audios = []Resource{}
	}
	if n.Characters == nil {
		n.Characters = []Character{}
	}
	if n.Collections == nil {
		n.Collections = []Collection{}
	}
	chapters := make([]Chapter, len(n.Chapters))
	for i, ch := range n.Chapters {
		if ch.Messages == nil {
			ch.Messages = []Message{}
		}
		chapters[i] = ch
	}
	n.Chapters = chapters
}

// Save writes the serialized novel to path atomically
func (e *Engine) Save(path string) error {
	data, err := e.Serialize()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// Novel returns a read-only view of the loaded novel, or the zero novel.
// Callers must not mutate the returned value.
func (e *Engine) Novel() *Novel {
	if e.novel == nil {
		return &Novel{}
	}
	return e.novel
}

// Title returns the novel title
func (e *Engine) Title() string {
	return e.Novel().Title
}

// Author returns the novel author
func (e *Engine) Author() string {
	return e.Novel().Author
}

// Entry returns the entry chapter name
func (e *Engine) Entry() string {
	return e.Novel().Entry
}

// Chapter returns the named chapter, or the zero Chapter when unknown
func (e *Engine) Chapter(name string) Chapter {
	if e.novel == nil {
		return Chapter{}
	}
	if idx := e.novel.ChapterIndex(name); idx >= 0 {
		return e.novel.Chapters[idx]
	}
	return Chapter{}
}

// Character returns the named character, or the zero Character when unknown
func (e *Engine) Character(name string) Character {
	if e.novel == nil {
		return Character{}
	}
	for _, c := range e.novel.Characters {
		if c.Name == name {
			return c
		}
	}
	return Character{}
}

// Image returns the named image resource, or the zero Resource when unknown
func (e *Engine) Image(name string) Resource {
	if e.novel == nil {
		return Resource{}
	}
	return findResource(e.novel.Images, name)
}

// Audio returns the named audio resource, or the zero Resource when unknown
func (e *Engine) Audio(name string) Resource {
	if e.novel == nil {
		return Resource{}
	}
	return findResource(e.novel.Audios, name)
}

// Collection returns the named collection, or the zero Collection when unknown
func (e *Engine) Collection(name string) Collection {
	if e.novel == nil {
		return Collection{}
	}
	for _, c := range e.novel.Collections {
		if c.Name == name {
			return c
		}
	}
	return Collection{}
}

func findResource(resources []Resource, name string) Resource {
	for _, r := range resources {
		if r.Name == name {
			return r
		}
	}
	return Resource{}
}

// ChapterNames returns chapter names in document order
func (e *Engine) ChapterNames() []string {
	if e.novel == nil {
		return nil
	}
	names := make([]string, len(e.novel.Chapters))
	for i, ch := range e.novel.Chapters {
		names[i] = ch.Name
	}
	return names
}

// SpeakerNames returns the sorted set of speakers used by any message
func (e *Engine) SpeakerNames() []string {
	if e.novel == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, ch := range e.novel.Chapters {
		for _, msg := range ch.Messages {
			seen[msg.Character] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveContent returns the payload a presentation layer should render
// for an entry: resource src for image and audio kinds, the raw value
// otherwise.
func (e *Engine) ResolveContent(kind MessageKind, value string) string {
	switch {
	case kind.ReferencesImage():
		return e.Image(value).Src
	case kind.ReferencesAudio():
		return e.Audio(value).Src
	default:
		return value
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
