package internal

import "fmt"

// MessageKind identifies what a story message carries
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
	KindAudio
	KindOptions
	KindHint
	KindBackgroundMusic
	KindBackgroundImage
	KindSoundEffect
	KindUnlockCollection
)

var kindNames = map[MessageKind]string{
	KindText:             "text",
	KindImage:            "image",
	KindAudio:            "audio",
	KindOptions:          "options",
	KindHint:             "hint",
	KindBackgroundMusic:  "background_music",
	KindBackgroundImage:  "background_image",
	KindSoundEffect:      "sound_effect",
	KindUnlockCollection: "unlock_collection",
}

// String returns the snake_case name of the kind
func (k MessageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the known kinds
func (k MessageKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// HasSideEffect reports whether an entry of this kind drives a stateful
// presentation effect that must fire at most once.
func (k MessageKind) HasSideEffect() bool {
	return k == KindBackgroundImage || k == KindBackgroundMusic || k == KindSoundEffect
}

// AutoAdvances reports whether the driver continues without player input
// after emitting this kind.
func (k MessageKind) AutoAdvances() bool {
	return k == KindSoundEffect || k == KindBackgroundMusic
}

// ReferencesImage reports whether the message value is an image resource id
func (k MessageKind) ReferencesImage() bool {
	return k == KindImage || k == KindBackgroundImage
}

// ReferencesAudio reports whether the message value is an audio resource id
func (k MessageKind) ReferencesAudio() bool {
	return k == KindAudio || k == KindBackgroundMusic || k == KindSoundEffect
}

// CharacterType decides which side of the transcript a speaker is placed on
type CharacterType int

const (
	CharacterNarrator CharacterType = 0
	CharacterIncoming CharacterType = 1
)

// SystemSpeaker is the sentinel speaker used for engine-generated entries
const SystemSpeaker = "System"

// Resource is a named blob reference (base64 payload or asset path)
type Resource struct {
	Name string `json:"name"`
	Src  string `json:"src"`
}

// Character is a speaker in the story
type Character struct {
	Name         string        `json:"name"`
	Avatar       string        `json:"avatar"`
	Type         CharacterType `json:"type"`
	Status       []string      `json:"status,omitempty"`
	StatusValues []int         `json:"statusValues,omitempty"`
}

// Choice is one option label paired with the chapter it routes to
type Choice struct {
	Label string
	Route string
}

// Message is a single line of a chapter
type Message struct {
	Character string      `json:"character"`
	Kind      MessageKind `json:"type"`
	Value     string      `json:"value"`
	Options   []string    `json:"options,omitempty"`
	Routes    []string    `json:"routes,omitempty"`
}

// Choices pairs options with routes positionally. It returns nil for
// anything other than an Options message.
func (m Message) Choices() []Choice {
	if m.Kind != KindOptions {
		return nil
	}
	n := len(m.Options)
	if len(m.Routes) < n {
		n = len(m.Routes)
	}
	choices := make([]Choice, n)
	for i := 0; i < n; i++ {
		choices[i] = Choice{Label: m.Options[i], Route: m.Routes[i]}
	}
	return choices
}

// Validate checks the per-kind payload shape
func (m Message) Validate() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("unknown message type %d", int(m.Kind))
	}
	if m.Kind == KindOptions {
		if len(m.Options) == 0 || len(m.Routes) == 0 {
			return fmt.Errorf("options message needs options and routes")
		}
		if len(m.Options) != len(m.Routes) {
			return fmt.Errorf("options message has %d options but %d routes", len(m.Options), len(m.Routes))
		}
		return nil
	}
	if len(m.Options) > 0 || len(m.Routes) > 0 {
		return fmt.Errorf("%s message must not carry options or routes", m.Kind)
	}
	return nil
}

// Chapter is a named, unlockable sequence of messages
type Chapter struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
	Unlocked bool      `json:"unlocked"`
	End      bool      `json:"end,omitempty"`
}

// Routes returns every route target named by the chapter's Options
// messages, in message order.
func (c Chapter) Routes() []string {
	var routes []string
	for _, msg := range c.Messages {
		if msg.Kind == KindOptions {
			routes = append(routes, msg.Routes...)
		}
	}
	return routes
}

// Collection is an unlockable gallery item
type Collection struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Desc     string `json:"desc"`
	Unlocked bool   `json:"unlocked"`
}

// Novel is the whole story document plus the persisted read position
type Novel struct {
	Title          string       `json:"title"`
	ID             string       `json:"id"`
	Cover          string       `json:"cover"`
	Author         string       `json:"author"`
	Entry          string       `json:"entry"`
	Images         []Resource   `json:"images"`
	Audios         []Resource   `json:"audios"`
	Chapters       []Chapter    `json:"chapters"`
	Characters     []Character  `json:"characters"`
	Collections    []Collection `json:"collections"`
	CurrentChapter string       `json:"currentChapter"`
	CurrentIndex   int          `json:"currentMsgIndex"`
}

// ChapterIndex returns the position of the named chapter, or -1
func (n *Novel) ChapterIndex(name string) int {
	for i := range n.Chapters {
		if n.Chapters[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants of a novel document
func (n *Novel) Validate() error {
	if n.Entry == "" {
		return fmt.Errorf("novel has no entry chapter")
	}
	seen := make(map[string]bool, len(n.Chapters))
	for _, ch := range n.Chapters {
		if ch.Name == "" {
			return fmt.Errorf("chapter with empty name")
		}
		if seen[ch.Name] {
			return fmt.Errorf("duplicate chapter %q", ch.Name)
		}
		seen[ch.Name] = true
		for i, msg := range ch.Messages {
			if err := msg.Validate(); err != nil {
				return fmt.Errorf("chapter %q message %d: %w", ch.Name, i, err)
			}
		}
	}
	if !seen[n.Entry] {
		return fmt.Errorf("entry chapter %q does not exist", n.Entry)
	}
	for _, ch := range n.Chapters {
		for i, msg := range ch.Messages {
			if msg.Kind != KindOptions {
				continue
			}
			for _, route := range msg.Routes {
				if !seen[route] {
					return fmt.Errorf("chapter %q message %d routes to unknown chapter %q", ch.Name, i, route)
				}
			}
		}
	}
	if err := uniqueNames("character", len(n.Characters), func(i int) string { return n.Characters[i].Name }); err != nil {
		return err
	}
	if err := uniqueNames("collection", len(n.Collections), func(i int) string { return n.Collections[i].Name }); err != nil {
		return err
	}
	if n.CurrentChapter != "" {
		idx := n.ChapterIndex(n.CurrentChapter)
		if idx < 0 {
			return fmt.Errorf("current chapter %q does not exist", n.CurrentChapter)
		}
		if n.CurrentIndex < 0 || n.CurrentIndex > len(n.Chapters[idx].Messages) {
			return fmt.Errorf("current index %d out of range for chapter %q", n.CurrentIndex, n.CurrentChapter)
		}
	}
	return nil
}

func uniqueNames(what string, count int, name func(int) string) error {
	seen := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		if seen[name(i)] {
			return fmt.Errorf("duplicate %s %q", what, name(i))
		}
		seen[name(i)] = true
	}
	return nil
}

// Clone returns a deep copy of the novel
func (n *Novel) Clone() *Novel {
	out := *n
	out.Images = append([]Resource(nil), n.Images...)
	out.Audios = append([]Resource(nil), n.Audios...)
	out.Collections = append([]Collection(nil), n.Collections...)
	out.Characters = make([]Character, len(n.Characters))
	for i, c := range n.Characters {
		c.Status = append([]string(nil), c.Status...)
		c.StatusValues = append([]int(nil), c.StatusValues...)
		out.Characters[i] = c
	}
	out.Chapters = make([]Chapter, len(n.Chapters))
	for i, ch := range n.Chapters {
		msgs := make([]Message, len(ch.Messages))
		for j, m := range ch.Messages {
			m.Options = append([]string(nil), m.Options...)
			m.Routes = append([]string(nil), m.Routes...)
			msgs[j] = m
		}
		ch.Messages = msgs
		out.Chapters[i] = ch
	}
	return &out
}

// Cursor points at the next message to emit within a chapter
type Cursor struct {
	Chapter string `json:"chapter"`
	Line    int    `json:"line"`
}
