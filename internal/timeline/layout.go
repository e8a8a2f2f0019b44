// Package timeline lays out the chapter branch graph for display.
package timeline

import (
	"github.com/iksnae/novel-session/internal"
)

// Point is a position in layout units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an extent in layout units
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one reachable chapter. Position is the node's center.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
	Unlocked bool   `json:"unlocked"`
	Depth    int    `json:"depth"`
	Row      int    `json:"row"`
}

// Connection is an elbow connector between two nodes: start, one bend at
// (midX, target y), end.
type Connection struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Path [3]Point `json:"path"`
}

// Graph is the laid-out branch graph
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`

	margin float64
}

// Options controls node geometry
type Options struct {
	Font         Font
	MinNodeWidth float64
	Padding      float64
	HGap         float64
	VGap         float64
	NodeHeight   float64
	LockedLabel  string
	Margin       float64
}

// DefaultOptions returns the standard geometry
func DefaultOptions() Options {
	return Options{
		Font:         Font{Size: 16},
		MinNodeWidth: 70,
		Padding:      32,
		HGap:         40,
		VGap:         40,
		NodeHeight:   70,
		LockedLabel:  "???",
		Margin:       100,
	}
}

type placed struct {
	chapter *internal.Chapter
	depth   int
	row     int
}

// Layout places every chapter reachable from the entry through option
// routes. Depth is the BFS distance from the entry and row the dequeue
// order within a depth. Unreachable chapters and routes naming missing
// chapters are left out.
func Layout(novel *internal.Novel, m Measurer, opts Options) *Graph {
	g := &Graph{Nodes: []Node{}, Connections: []Connection{}, margin: opts.Margin}
	if novel == nil || novel.ChapterIndex(novel.Entry) < 0 {
		return g
	}

	order := traverse(novel)

	// columns are indexed by depth; BFS never skips a depth
	var colWidth []float64
	widths := make([]float64, len(order))
	labels := make([]string, len(order))
	for i, p := range order {
		labels[i] = opts.LockedLabel
		if p.chapter.Unlocked {
			labels[i] = p.chapter.Name
		}
		widths[i] = nodeWidth(m.Measure(labels[i], opts.Font), opts)
		if p.depth == len(colWidth) {
			colWidth = append(colWidth, 0)
		}
		if widths[i] > colWidth[p.depth] {
			colWidth[p.depth] = widths[i]
		}
	}

	colX := make([]float64, len(colWidth))
	for d := 1; d < len(colWidth); d++ {
		colX[d] = colX[d-1] + colWidth[d-1] + opts.HGap
	}

	index := make(map[string]int, len(order))
	for i, p := range order {
		index[p.chapter.Name] = i
		g.Nodes = append(g.Nodes, Node{
			ID:    p.chapter.Name,
			Label: labels[i],
			Position: Point{
				X: colX[p.depth] + widths[i]/2,
				Y: float64(p.row)*(opts.NodeHeight+opts.VGap) + opts.NodeHeight/2,
			},
			Size:     Size{Width: widths[i], Height: opts.NodeHeight},
			Unlocked: p.chapter.Unlocked,
			Depth:    p.depth,
			Row:      p.row,
		})
	}

	for _, ch := range novel.Chapters {
		fromIdx, ok := index[ch.Name]
		if !ok {
			continue
		}
		for _, route := range ch.Routes() {
			toIdx, ok := index[route]
			if !ok {
				continue
			}
			from, to := g.Nodes[fromIdx].Position, g.Nodes[toIdx].Position
			g.Connections = append(g.Connections, Connection{
				From: ch.Name,
				To:   route,
				Path: [3]Point{from, {X: (from.X + to.X) / 2, Y: to.Y}, to},
			})
		}
	}
	return g
}

func traverse(novel *internal.Novel) []placed {
	type item struct {
		name  string
		depth int
	}
	visited := map[string]bool{novel.Entry: true}
	queue := []item{{name: novel.Entry}}
	var rows []int
	var order []placed

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		idx := novel.ChapterIndex(cur.name)
		if idx < 0 {
			internal.LogDebug("Route to missing chapter %q skipped", cur.name)
			continue
		}
		ch := &novel.Chapters[idx]
		if cur.depth == len(rows) {
			rows = append(rows, 0)
		}
		order = append(order, placed{chapter: ch, depth: cur.depth, row: rows[cur.depth]})
		rows[cur.depth]++

		for _, next := range ch.Routes() {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, item{name: next, depth: cur.depth + 1})
		}
	}
	return order
}

func nodeWidth(measured float64, opts Options) float64 {
	w := measured + opts.Padding
	if w < opts.MinNodeWidth {
		return opts.MinNodeWidth
	}
	return w
}

// Node returns the node for a chapter
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ContentSize is the largest node extent plus the layout margin on both axes
func (g *Graph) ContentSize() Size {
	var size Size
	for _, n := range g.Nodes {
		if right := n.Position.X + n.Size.Width/2; right > size.Width {
			size.Width = right
		}
		if bottom := n.Position.Y + n.Size.Height/2; bottom > size.Height {
			size.Height = bottom
		}
	}
	size.Width += g.margin
	size.Height += g.margin
	return size
}

// Unlock reveals a node's real label in place. It reports whether the node
// exists.
func (g *Graph) Unlock(id string) bool {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			g.Nodes[i].Unlocked = true
			g.Nodes[i].Label = id
			return true
		}
	}
	return false
}

// Columns groups nodes by depth in row order
func (g *Graph) Columns() [][]Node {
	var cols [][]Node
	for _, n := range g.Nodes {
		for len(cols) <= n.Depth {
			cols = append(cols, nil)
		}
		cols[n.Depth] = append(cols[n.Depth], n)
	}
	return cols
}
