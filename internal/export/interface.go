package export

import (
	"fmt"
	"io"

	"github.com/iksnae/novel-session/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// Entry is one transcript line prepared for export
type Entry struct {
	Sender   string   `json:"sender" yaml:"sender"`
	Kind     string   `json:"kind" yaml:"kind"`
	Content  string   `json:"content" yaml:"content"`
	Incoming bool     `json:"incoming" yaml:"incoming"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Transcript is a play-through ready for export
type Transcript struct {
	Title    string   `json:"title" yaml:"title"`
	Author   string   `json:"author,omitempty" yaml:"author,omitempty"`
	Chapter  string   `json:"chapter" yaml:"chapter"`
	Line     int      `json:"line" yaml:"line"`
	Chapters []string `json:"chapters_visited" yaml:"chapters_visited"`
	Entries  []Entry  `json:"entries" yaml:"entries"`
}

// NewTranscript builds an export view of the session. Image and audio
// entries carry their resolved resource source as content.
func NewTranscript(engine *internal.Engine, session *internal.SessionLog) *Transcript {
	chapter, line := session.Position()
	t := &Transcript{
		Title:    engine.Title(),
		Author:   engine.Author(),
		Chapter:  chapter,
		Line:     line,
		Chapters: []string{},
		Entries:  []Entry{},
	}
	for _, b := range session.Bookmarks() {
		t.Chapters = append(t.Chapters, b.Name)
	}
	for _, e := range session.Entries() {
		t.Entries = append(t.Entries, Entry{
			Sender:   e.Sender,
			Kind:     e.Kind.String(),
			Content:  engine.ResolveContent(e.Kind, e.Value),
			Incoming: e.IsIncoming,
			Options:  e.Options,
		})
	}
	return t
}
