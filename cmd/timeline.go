package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/timeline"
	"github.com/spf13/cobra"
)

var timelineJSON bool

var (
	unlockedNodeStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("42")).
				Padding(0, 1)

	lockedNodeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true).
				Underline(true)
)

// timelineCmd represents the timeline command
var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the chapter branch graph",
	Long: `Lay out the chapters reachable from the entry chapter as a branch graph.

Chapters are placed in columns by their first-reached depth. Chapters the
player has not reached yet are shown as "???".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}

		opts := timeline.DefaultOptions()
		opts.Font.Size = cfg.FontSize

		var g *timeline.Graph
		_ = rt.Do(func(st *internal.State) error {
			g = timeline.Layout(st.Engine.Novel(), timeline.RuneWidthMeasurer{}, opts)
			return nil
		})

		out := cmd.OutOrStdout()
		if timelineJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*timeline.Graph
				ContentSize timeline.Size `json:"content_size"`
			}{g, g.ContentSize()})
		}
		renderGraph(out, g)
		return nil
	},
}

func renderGraph(w io.Writer, g *timeline.Graph) {
	columns := g.Columns()
	if len(columns) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No chapters to show"))
		return
	}

	rendered := make([]string, 0, len(columns))
	for depth, col := range columns {
		cells := []string{columnHeaderStyle.Render(fmt.Sprintf("Depth %d", depth))}
		for _, n := range col {
			style := lockedNodeStyle
			if n.Unlocked {
				style = unlockedNodeStyle
			}
			cells = append(cells, style.Render(n.Label))
		}
		rendered = append(rendered, lipgloss.JoinVertical(lipgloss.Left, cells...), "  ")
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	fmt.Fprintln(w)

	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}
	edges := make([]string, 0, len(g.Connections))
	for _, c := range g.Connections {
		edges = append(edges, fmt.Sprintf("  %s → %s", labels[c.From], labels[c.To]))
	}
	fmt.Fprintln(w, strings.Join(edges, "\n"))

	size := g.ContentSize()
	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%d chapters • content %.0f×%.0f", len(g.Nodes), size.Width, size.Height)))
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "Print the laid-out graph as JSON")
}
