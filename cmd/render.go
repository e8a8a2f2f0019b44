package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/novel-session/internal"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	incomingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	outgoingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Padding(0, 1)

	effectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 2)
)

// renderEntry writes one transcript entry. Side-effect entries print a
// marker line only the first time they are delivered; on later renders
// (a resumed transcript) they are shown dimmed.
func renderEntry(w io.Writer, st *internal.State, e internal.TranscriptEntry) {
	content := st.Engine.ResolveContent(e.Kind, e.Value)

	switch e.Kind {
	case internal.KindHint:
		fmt.Fprintln(w, hintStyle.Render(e.Value))
		return
	case internal.KindBackgroundImage, internal.KindBackgroundMusic, internal.KindSoundEffect:
		label := effectLabel(e.Kind, content)
		if st.Session.NeedsDelivery(e.ID) {
			st.Player.MarkDelivered(e.ID)
			fmt.Fprintln(w, effectStyle.Render(label))
		} else {
			fmt.Fprintln(w, hintStyle.Render(label))
		}
		return
	case internal.KindUnlockCollection:
		fmt.Fprintln(w, effectStyle.Render(fmt.Sprintf("★ Unlocked: %s", e.Value)))
		return
	}

	style := outgoingStyle
	if e.IsIncoming {
		style = incomingStyle
	}
	fmt.Fprintln(w, style.Render(e.Sender))

	switch e.Kind {
	case internal.KindOptions:
		for i, opt := range e.Options {
			fmt.Fprintln(w, optionStyle.Render(fmt.Sprintf("[%d] %s", i+1, opt)))
		}
	case internal.KindImage:
		fmt.Fprintln(w, contentStyle.Render(fmt.Sprintf("🖼  %s", content)))
	case internal.KindAudio:
		fmt.Fprintln(w, contentStyle.Render(fmt.Sprintf("🔊 %s", content)))
	default:
		fmt.Fprintln(w, contentStyle.Render(wrapText(content, 72)))
	}
}

func effectLabel(kind internal.MessageKind, content string) string {
	switch kind {
	case internal.KindBackgroundImage:
		return fmt.Sprintf("◐ background: %s", content)
	case internal.KindBackgroundMusic:
		return fmt.Sprintf("♫ music: %s", content)
	default:
		return fmt.Sprintf("♪ sound: %s", content)
	}
}

func renderEntries(w io.Writer, st *internal.State, entries []internal.TranscriptEntry) {
	for _, e := range entries {
		renderEntry(w, st, e)
	}
}

// wrapText wraps on word boundaries by display width
func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if runewidth.StringWidth(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		currentLine := ""
		for _, word := range strings.Fields(line) {
			switch {
			case currentLine == "":
				currentLine = word
			case runewidth.StringWidth(currentLine)+runewidth.StringWidth(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
