package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports transcripts as a readable script
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", t.Title)

	if t.Author != "" {
		_, _ = fmt.Fprintf(w, "**Author:** %s  \n", t.Author)
	}
	_, _ = fmt.Fprintf(w, "**Chapter:** %s (line %d)  \n", t.Chapter, t.Line)
	_, _ = fmt.Fprintf(w, "**Entries:** %d\n\n", len(t.Entries))

	if len(t.Chapters) > 0 {
		_, _ = fmt.Fprintf(w, "**Route:** %s\n\n", strings.Join(t.Chapters, " → "))
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Transcript\n\n")

	for _, entry := range t.Entries {
		switch entry.Kind {
		case "options":
			_, _ = fmt.Fprintf(w, "**%s:**\n\n", entry.Sender)
			for i, opt := range entry.Options {
				_, _ = fmt.Fprintf(w, "%d. %s\n", i+1, escapeMarkdown(opt))
			}
			_, _ = fmt.Fprintln(w)
		case "image", "background_image":
			_, _ = fmt.Fprintf(w, "![%s](%s)\n\n", entry.Kind, entry.Content)
		case "audio", "background_music", "sound_effect":
			_, _ = fmt.Fprintf(w, "_%s: %s_\n\n", strings.ReplaceAll(entry.Kind, "_", " "), entry.Content)
		case "hint", "unlock_collection":
			_, _ = fmt.Fprintf(w, "> %s\n\n", escapeMarkdown(entry.Content))
		default:
			_, _ = fmt.Fprintf(w, "**%s:** %s\n\n", entry.Sender, escapeMarkdown(entry.Content))
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers in story text
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	return strings.ReplaceAll(text, "__", "\\_\\_")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
