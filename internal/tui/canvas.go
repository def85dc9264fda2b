package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/tree"
)

// cell style classes, one per visual layer.
type cellClass uint8

const (
	classEmpty cellClass = iota
	classAttractor
	classMissed
	classSelected
	classCurrent
	classLabel
)

var classStyles = map[cellClass]lipgloss.Style{
	classAttractor: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	classMissed:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	classSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	classCurrent:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
	classLabel:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
}

// canvas rasterizes the world rectangle into terminal cells. Higher
// classes win when layers overlap, so the selected path and labels stay
// visible over attractor dust.
type canvas struct {
	w, h    int
	world   geom.Rect
	runes   []rune
	classes []cellClass
}

func newCanvas(w, h int, world geom.Rect) *canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &canvas{
		w:       w,
		h:       h,
		world:   world,
		runes:   make([]rune, w*h),
		classes: make([]cellClass, w*h),
	}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

// cellFor maps a world position into grid coordinates.
func (c *canvas) cellFor(p geom.Vec2) (int, int) {
	fx := (p.X - c.world.Min.X) / c.world.Width()
	fy := (p.Y - c.world.Min.Y) / c.world.Height()
	x := int(fx * float64(c.w-1))
	y := int(fy * float64(c.h-1))
	if x < 0 {
		x = 0
	}
	if x >= c.w {
		x = c.w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= c.h {
		y = c.h - 1
	}
	return x, y
}

func (c *canvas) set(x, y int, r rune, class cellClass) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	i := y*c.w + x
	if class < c.classes[i] {
		return
	}
	c.runes[i] = r
	c.classes[i] = class
}

// plot marks one world position.
func (c *canvas) plot(p geom.Vec2, r rune, class cellClass) {
	x, y := c.cellFor(p)
	c.set(x, y, r, class)
}

// line draws a Bresenham segment between two world positions.
func (c *canvas) line(a, b geom.Vec2, r rune, class cellClass) {
	x0, y0 := c.cellFor(a)
	x1, y1 := c.cellFor(b)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, r, class)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// text writes a label starting at the cell right of a world position.
func (c *canvas) text(p geom.Vec2, s string, class cellClass) {
	x, y := c.cellFor(p)
	for i, r := range s {
		c.set(x+1+i, y, r, class)
	}
}

// drawScene rasterizes attractors, edges, and node markers. Edge style
// follows the child node's role; the current node gets its own marker.
func (c *canvas) drawScene(nodes []tree.Node, attractors []geom.Vec2, current int) {
	for _, a := range attractors {
		c.plot(a, '·', classAttractor)
	}
	for _, n := range nodes {
		if n.Parent == tree.NoParent {
			continue
		}
		class := classMissed
		if n.Role == tree.RoleSelected {
			class = classSelected
		}
		c.line(nodes[n.Parent].Pos, n.Pos, edgeRune(n.Role), class)
	}
	for _, n := range nodes {
		if n.HasToken {
			c.plot(n.Pos, '●', classSelected)
			c.text(n.Pos, truncateLabel(n.Token), classLabel)
		}
	}
	if current >= 0 && current < len(nodes) {
		c.plot(nodes[current].Pos, '◉', classCurrent)
	}
}

func edgeRune(r tree.Role) rune {
	if r == tree.RoleSelected {
		return '█'
	}
	return '•'
}

func truncateLabel(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > 8 {
		return string(r[:8]) + "…"
	}
	return s
}

// render emits the styled canvas, grouping runs of equal style so each
// line carries only the escape sequences it needs.
func (c *canvas) render() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := y * c.w
		x := 0
		for x < c.w {
			class := c.classes[row+x]
			start := x
			for x < c.w && c.classes[row+x] == class {
				x++
			}
			run := string(c.runes[row+start : row+x])
			if style, ok := classStyles[class]; ok {
				b.WriteString(style.Render(run))
			} else {
				b.WriteString(run)
			}
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
